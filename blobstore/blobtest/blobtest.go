// Package blobtest verifies blob store backends by publishing engines
// through them.
package blobtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pme"
	"github.com/hupe1980/pme/blobstore"
	"github.com/hupe1980/pme/distance"
	"github.com/hupe1980/pme/internal/manifest"
	"github.com/hupe1980/pme/pack"
	"github.com/hupe1980/pme/testutil"
)

// Table is the classifier table RoundTrip trains: one scalar RBF
// classifier and one multi-channel DTW classifier.
func Table() []pme.ClassifierConfig {
	return []pme.ClassifierConfig{
		{ID: 1, PatternSize: 16, MaxPatterns: 64, NumClasses: 4, Distance: distance.MetricL1, Mode: pme.ModeRBF},
		{ID: 2, PatternSize: 12, MaxPatterns: 32, NumClasses: 3, NumChannels: 3, Distance: distance.MetricDTW, Mode: pme.ModeKNN},
	}
}

// RoundTrip saves two versions of a trained engine to an empty store,
// reloads both, prunes the first and checks what remains. It expects store
// to be empty and leaves it empty.
func RoundTrip(t *testing.T, store blobstore.BlobStore) {
	t.Helper()

	ctx := context.Background()
	rng := testutil.NewRNG(42)

	e, err := pme.New(Table(), pme.WithPackCompression(pack.CompressionZstd))
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	for _, id := range e.Classifiers() {
		cfg, err := e.Config(id)
		require.NoError(t, err)

		categories := rng.Categories(20, cfg.NumClasses)
		for i, v := range rng.Vectors(20, cfg.PatternSize) {
			require.NoError(t, e.AddPattern(ctx, id, v, categories[i], 300))
		}
	}

	v1, err := e.Save(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v1)

	packs, err := store.List(ctx, "packs/")
	require.NoError(t, err)
	assert.Equal(t, []string{manifest.PackName(v1, 1), manifest.PackName(v1, 2)}, packs)

	loaded, err := pme.Load(ctx, store)
	require.NoError(t, err)
	defer func() { _ = loaded.Close() }()
	assert.Equal(t, e.ModelID(), loaded.ModelID())

	queries := rng.Vectors(8, 16)
	for _, id := range e.Classifiers() {
		cfg, err := e.Config(id)
		require.NoError(t, err)
		for _, q := range queries {
			want, err := e.ClassifyK(ctx, id, q[:cfg.PatternSize], 3)
			require.NoError(t, err)
			got, err := loaded.ClassifyK(ctx, id, q[:cfg.PatternSize], 3)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}

	require.NoError(t, e.AddPattern(ctx, 1, rng.Vector(16), 1, 300))
	v2, err := e.Save(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, v1+1, v2)

	old, err := pme.LoadVersion(ctx, store, v1)
	require.NoError(t, err)
	n, err := old.PatternCount(1)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	require.NoError(t, old.Close())

	latest, err := pme.Load(ctx, store)
	require.NoError(t, err)
	n, err = latest.PatternCount(1)
	require.NoError(t, err)
	assert.Equal(t, 21, n)
	require.NoError(t, latest.Close())

	ms := manifest.NewStore(store)
	require.NoError(t, ms.DeleteVersion(ctx, v1))

	_, err = pme.LoadVersion(ctx, store, v1)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	packs, err = store.List(ctx, "packs/")
	require.NoError(t, err)
	assert.Equal(t, []string{manifest.PackName(v2, 1), manifest.PackName(v2, 2)}, packs)

	require.NoError(t, ms.DeleteVersion(ctx, v2))
	require.NoError(t, store.Delete(ctx, manifest.CurrentFileName))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
