package pme

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/pme/distance"
)

// Mode selects how a classifier turns ranked results into a category.
type Mode int

const (
	// ModeRBF classifies by the influence fields that contain the input.
	ModeRBF Mode = iota
	// ModeKNN classifies by the nearest stored patterns.
	ModeKNN
)

func (m Mode) String() string {
	switch m {
	case ModeRBF:
		return "RBF"
	case ModeKNN:
		return "KNN"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ModeRBF, ModeKNN:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("unknown mode: %d", m)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. Names are case-insensitive.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "RBF":
		*m = ModeRBF
	case "KNN":
		*m = ModeKNN
	default:
		return fmt.Errorf("unknown mode: %q", text)
	}
	return nil
}

// ClassifierConfig describes one classifier of the table.
type ClassifierConfig struct {
	ID          uint16          `yaml:"id"`
	PatternSize int             `yaml:"pattern_size"`
	MaxPatterns int             `yaml:"max_patterns"`
	NumClasses  int             `yaml:"num_classes"`
	NumChannels int             `yaml:"num_channels,omitempty"`
	Distance    distance.Metric `yaml:"distance"`
	Mode        Mode            `yaml:"mode"`
}

// Channels returns the channel count, treating 0 as 1.
func (c ClassifierConfig) Channels() int {
	if c.NumChannels <= 0 {
		return 1
	}
	return c.NumChannels
}

// BuildConfig holds the engine-wide limits.
type BuildConfig struct {
	// MaxClassifiers bounds the table size.
	MaxClassifiers int `yaml:"max_classifiers" envconfig:"PME_MAX_CLASSIFIERS" default:"16"`
	// ResultArenaCapacity is the number of result nodes shared by all classifiers.
	ResultArenaCapacity int `yaml:"result_arena_capacity" envconfig:"PME_RESULT_ARENA_CAPACITY" default:"4096"`
	// MaxPatternLength bounds pattern sizes in bytes and DTW sequences in frames.
	MaxPatternLength int `yaml:"max_pattern_length" envconfig:"PME_MAX_PATTERN_LENGTH" default:"256"`
	// MaxCategoryCount bounds NumClasses and the score histogram width.
	MaxCategoryCount int `yaml:"max_category_count" envconfig:"PME_MAX_CATEGORY_COUNT" default:"255"`
}

// DefaultBuildConfig returns the default limits.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		MaxClassifiers:      16,
		ResultArenaCapacity: 4096,
		MaxPatternLength:    256,
		MaxCategoryCount:    255,
	}
}

// LoadBuildConfig reads the limits from PME_* environment variables,
// falling back to the defaults.
func LoadBuildConfig() (BuildConfig, error) {
	var cfg BuildConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return BuildConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the limits themselves.
func (b BuildConfig) Validate() error {
	switch {
	case b.MaxClassifiers <= 0:
		return fmt.Errorf("%w: max_classifiers must be positive, got %d", ErrInvalidConfig, b.MaxClassifiers)
	case b.ResultArenaCapacity < 0:
		return fmt.Errorf("%w: result_arena_capacity must not be negative, got %d", ErrInvalidConfig, b.ResultArenaCapacity)
	case b.MaxPatternLength <= 0:
		return fmt.Errorf("%w: max_pattern_length must be positive, got %d", ErrInvalidConfig, b.MaxPatternLength)
	case b.MaxCategoryCount <= 0 || b.MaxCategoryCount > 0xFFFF:
		return fmt.Errorf("%w: max_category_count out of range: %d", ErrInvalidConfig, b.MaxCategoryCount)
	}
	return nil
}

// ValidateTable checks a classifier table against the limits.
func (b BuildConfig) ValidateTable(table []ClassifierConfig) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if len(table) > b.MaxClassifiers {
		return fmt.Errorf("%w: %d classifiers exceed max_classifiers %d", ErrInvalidConfig, len(table), b.MaxClassifiers)
	}

	seen := make(map[uint16]struct{}, len(table))
	total := 0
	for _, c := range table {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate classifier id %d", ErrInvalidConfig, c.ID)
		}
		seen[c.ID] = struct{}{}

		if err := b.validateClassifier(c); err != nil {
			return err
		}
		total += c.MaxPatterns
	}

	if total > b.ResultArenaCapacity {
		return fmt.Errorf("%w: classifiers reserve %d results, capacity is %d", ErrArenaExhausted, total, b.ResultArenaCapacity)
	}
	return nil
}

func (b BuildConfig) validateClassifier(c ClassifierConfig) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: classifier %d: %s", ErrInvalidConfig, c.ID, fmt.Sprintf(format, args...))
	}

	if c.PatternSize <= 0 || c.PatternSize > b.MaxPatternLength {
		return &SizeError{Classifier: c.ID, Got: c.PatternSize, Want: b.MaxPatternLength, cause: bad("pattern_size %d not in [1, %d]", c.PatternSize, b.MaxPatternLength)}
	}
	if c.MaxPatterns <= 0 {
		return bad("max_patterns must be positive, got %d", c.MaxPatterns)
	}
	if c.NumClasses <= 0 || c.NumClasses > b.MaxCategoryCount {
		return bad("num_classes %d not in [1, %d]", c.NumClasses, b.MaxCategoryCount)
	}
	if c.NumChannels < 0 {
		return bad("num_channels must not be negative, got %d", c.NumChannels)
	}
	switch c.Distance {
	case distance.MetricL1, distance.MetricLSup:
	case distance.MetricDTW:
		if c.PatternSize%c.Channels() != 0 {
			return bad("pattern_size %d not divisible by %d channels", c.PatternSize, c.Channels())
		}
	default:
		return bad("unknown distance %s", c.Distance)
	}
	if c.Mode != ModeRBF && c.Mode != ModeKNN {
		return bad("unknown mode %s", c.Mode)
	}
	return nil
}

// Table is the YAML form of a classifier table.
type Table struct {
	Build       *BuildConfig       `yaml:"build,omitempty"`
	Classifiers []ClassifierConfig `yaml:"classifiers"`
}

// ParseTable decodes a YAML table. Unknown fields are rejected and limits
// missing from the build section keep their defaults.
func ParseTable(data []byte) (Table, error) {
	build := DefaultBuildConfig()
	t := Table{Build: &build}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Table{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := t.BuildConfigOrDefault().ValidateTable(t.Classifiers); err != nil {
		return Table{}, err
	}
	return t, nil
}

// LoadTable reads and decodes a YAML table file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	return ParseTable(data)
}

// Marshal encodes the table as YAML.
func (t Table) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

// BuildConfigOrDefault returns the table's limits or the defaults.
func (t Table) BuildConfigOrDefault() BuildConfig {
	if t.Build == nil {
		return DefaultBuildConfig()
	}
	return *t.Build
}
