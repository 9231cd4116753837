package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/pme/blobstore"
	"github.com/hupe1980/pme/distance"
	"github.com/hupe1980/pme/pack"
)

const (
	ManifestFileName = "MANIFEST"
	CurrentFileName  = "CURRENT"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Manifest describes a saved model.
type Manifest struct {
	Version     int          `yaml:"version"`
	ID          uint64       `yaml:"id"`
	CreatedAt   time.Time    `yaml:"created_at"`
	ModelID     string       `yaml:"model_id"`
	Build       Build        `yaml:"build"`
	Classifiers []Classifier `yaml:"classifiers"`
}

// Build mirrors the engine limits.
type Build struct {
	MaxClassifiers      int `yaml:"max_classifiers"`
	ResultArenaCapacity int `yaml:"result_arena_capacity"`
	MaxPatternLength    int `yaml:"max_pattern_length"`
	MaxCategoryCount    int `yaml:"max_category_count"`
}

// Classifier describes one classifier and the pack holding its patterns.
type Classifier struct {
	ID          uint16          `yaml:"id"`
	PatternSize int             `yaml:"pattern_size"`
	MaxPatterns int             `yaml:"max_patterns"`
	NumClasses  int             `yaml:"num_classes"`
	NumChannels int             `yaml:"num_channels,omitempty"`
	Distance    distance.Metric `yaml:"distance"`
	Mode        string          `yaml:"mode"`

	Blob        string           `yaml:"blob"`
	Patterns    int              `yaml:"patterns"`
	Size        int64            `yaml:"size"`
	Compression pack.Compression `yaml:"compression"`
}

// Patterns returns the total pattern count.
func (m *Manifest) Patterns() int {
	n := 0
	for _, c := range m.Classifiers {
		n += c.Patterns
	}
	return n
}

// PackName returns the blob name of classifier id's pack for manifest version.
func PackName(version uint64, id uint16) string {
	return path.Join("packs", fmt.Sprintf("%06d-%05d.pack", version, id))
}

func manifestName(version uint64) string {
	return fmt.Sprintf("%s-%06d.yaml", ManifestFileName, version)
}

// Marshal encodes m as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// Unmarshal decodes a YAML manifest and checks its version.
func Unmarshal(data []byte) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	return m, nil
}

// Store manages the manifest blobs and atomic updates.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a new manifest store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version ID. 0 means latest.
func (s *Store) LoadVersion(ctx context.Context, versionID uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadVersion(ctx, versionID)
}

func (s *Store) loadVersion(ctx context.Context, versionID uint64) (*Manifest, error) {
	var name string
	if versionID == 0 {
		current, err := blobstore.ReadAll(ctx, s.store, CurrentFileName)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		name = strings.TrimSpace(string(current))
	} else {
		name = manifestName(versionID)
	}

	data, err := blobstore.ReadAll(ctx, s.store, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", name, err)
	}
	return Unmarshal(data)
}

// ListVersions returns the readable manifests in version order. Corrupted
// or unreadable manifests are skipped.
func (s *Store) ListVersions(ctx context.Context) ([]*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.store.List(ctx, ManifestFileName)
	if err != nil {
		return nil, err
	}

	var manifests []*Manifest
	for _, f := range files {
		if path.Ext(f) != ".yaml" {
			continue
		}
		data, err := blobstore.ReadAll(ctx, s.store, f)
		if err != nil {
			continue
		}
		m, err := Unmarshal(data)
		if err != nil {
			continue
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// NextID returns the version ID the next Save will assign.
func (s *Store) NextID(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadVersion(ctx, 0)
	switch {
	case errors.Is(err, ErrNotFound):
		return 1, nil
	case err != nil:
		return 0, err
	}
	return m.ID + 1, nil
}

// Save atomically publishes m. If m.ID is 0 the next free version ID is
// assigned.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		prev, err := s.loadVersion(ctx, 0)
		switch {
		case errors.Is(err, ErrNotFound):
			m.ID = 1
		case err != nil:
			return err
		default:
			m.ID = prev.ID + 1
		}
	}
	m.Version = CurrentVersion
	m.CreatedAt = time.Now().UTC()

	data, err := m.Marshal()
	if err != nil {
		return err
	}

	name := manifestName(m.ID)
	if err := s.store.Put(ctx, name, data); err != nil {
		return err
	}

	// S3: strong consistency on overwrites. Local: atomic rename.
	return s.store.Put(ctx, CurrentFileName, []byte(name))
}

// DeleteVersion deletes the manifest blob and the packs of version versionID.
func (s *Store) DeleteVersion(ctx context.Context, versionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.loadVersion(ctx, versionID)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return err
	}
	if m != nil {
		for _, c := range m.Classifiers {
			if err := s.store.Delete(ctx, c.Blob); err != nil {
				return err
			}
		}
	}
	return s.store.Delete(ctx, manifestName(versionID))
}
