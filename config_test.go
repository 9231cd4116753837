package pme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pme/distance"
)

const tableYAML = `
build:
  max_classifiers: 4
  result_arena_capacity: 128
classifiers:
  - id: 1
    pattern_size: 8
    max_patterns: 32
    num_classes: 3
    distance: l1
    mode: RBF
  - id: 2
    pattern_size: 12
    max_patterns: 16
    num_classes: 2
    num_channels: 3
    distance: DTW
    mode: knn
`

func TestParseTable(t *testing.T) {
	table, err := ParseTable([]byte(tableYAML))
	require.NoError(t, err)

	build := table.BuildConfigOrDefault()
	assert.Equal(t, 4, build.MaxClassifiers)
	assert.Equal(t, 128, build.ResultArenaCapacity)
	// Limits missing from the document keep their defaults.
	assert.Equal(t, DefaultBuildConfig().MaxPatternLength, build.MaxPatternLength)
	assert.Equal(t, DefaultBuildConfig().MaxCategoryCount, build.MaxCategoryCount)

	require.Len(t, table.Classifiers, 2)
	assert.Equal(t, ClassifierConfig{
		ID: 2, PatternSize: 12, MaxPatterns: 16, NumClasses: 2, NumChannels: 3,
		Distance: distance.MetricDTW, Mode: ModeKNN,
	}, table.Classifiers[1])
	assert.Equal(t, 1, table.Classifiers[0].Channels())
	assert.Equal(t, 3, table.Classifiers[1].Channels())

	data, err := table.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "distance: L1")
	assert.Contains(t, string(data), "mode: KNN")

	again, err := ParseTable(data)
	require.NoError(t, err)
	assert.Equal(t, table, again)
}

func TestParseTable_NoBuildSection(t *testing.T) {
	table, err := ParseTable([]byte(`
classifiers:
  - {id: 5, pattern_size: 1, max_patterns: 4, num_classes: 4, distance: LSUP, mode: RBF}
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultBuildConfig(), table.BuildConfigOrDefault())
	assert.Equal(t, DefaultBuildConfig(), Table{}.BuildConfigOrDefault())
}

func TestParseTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"Syntax", "classifiers: [", ErrInvalidConfig},
		{"UnknownField", "classifiers:\n  - {id: 1, colour: red}\n", ErrInvalidConfig},
		{"UnknownMetric", "classifiers:\n  - {id: 1, pattern_size: 1, max_patterns: 1, num_classes: 1, distance: cosine, mode: RBF}\n", ErrInvalidConfig},
		{"UnknownMode", "classifiers:\n  - {id: 1, pattern_size: 1, max_patterns: 1, num_classes: 1, distance: L1, mode: SVM}\n", ErrInvalidConfig},
		{"PatternTooLong", "build: {max_pattern_length: 4}\nclassifiers:\n  - {id: 1, pattern_size: 5, max_patterns: 1, num_classes: 1, distance: L1, mode: RBF}\n", ErrSizeViolation},
		{"ArenaTooSmall", "build: {result_arena_capacity: 3}\nclassifiers:\n  - {id: 1, pattern_size: 1, max_patterns: 4, num_classes: 1, distance: L1, mode: RBF}\n", ErrArenaExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tableYAML), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Classifiers, 2)

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBuildConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := LoadBuildConfig()
		require.NoError(t, err)
		assert.Equal(t, DefaultBuildConfig(), cfg)
	})

	t.Run("Environment", func(t *testing.T) {
		t.Setenv("PME_MAX_CLASSIFIERS", "2")
		t.Setenv("PME_MAX_PATTERN_LENGTH", "64")

		cfg, err := LoadBuildConfig()
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.MaxClassifiers)
		assert.Equal(t, 64, cfg.MaxPatternLength)
		assert.Equal(t, 4096, cfg.ResultArenaCapacity)
	})

	t.Run("Malformed", func(t *testing.T) {
		t.Setenv("PME_RESULT_ARENA_CAPACITY", "lots")

		_, err := LoadBuildConfig()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		t.Setenv("PME_MAX_CATEGORY_COUNT", "70000")

		_, err := LoadBuildConfig()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidateTable(t *testing.T) {
	build := DefaultBuildConfig()
	build.MaxClassifiers = 2

	valid := scalar(1, 4, distance.MetricL1, ModeRBF)

	tests := []struct {
		name  string
		table []ClassifierConfig
		want  error
	}{
		{"Duplicate", []ClassifierConfig{valid, valid}, ErrInvalidConfig},
		{"TooMany", []ClassifierConfig{valid, scalar(2, 4, distance.MetricL1, ModeRBF), scalar(3, 4, distance.MetricL1, ModeRBF)}, ErrInvalidConfig},
		{"ZeroPatterns", []ClassifierConfig{scalar(1, 0, distance.MetricL1, ModeRBF)}, ErrInvalidConfig},
		{"ZeroSize", []ClassifierConfig{{ID: 1, MaxPatterns: 1, NumClasses: 1}}, ErrSizeViolation},
		{"TooManyClasses", []ClassifierConfig{{ID: 1, PatternSize: 1, MaxPatterns: 1, NumClasses: 256}}, ErrInvalidConfig},
		{"NegativeChannels", []ClassifierConfig{{ID: 1, PatternSize: 1, MaxPatterns: 1, NumClasses: 1, NumChannels: -1}}, ErrInvalidConfig},
		{"ChannelsNotDividing", []ClassifierConfig{{ID: 1, PatternSize: 5, MaxPatterns: 1, NumClasses: 1, NumChannels: 2, Distance: distance.MetricDTW}}, ErrInvalidConfig},
		{"UnknownDistance", []ClassifierConfig{{ID: 1, PatternSize: 1, MaxPatterns: 1, NumClasses: 1, Distance: distance.Metric(9)}}, ErrInvalidConfig},
		{"UnknownMode", []ClassifierConfig{{ID: 1, PatternSize: 1, MaxPatterns: 1, NumClasses: 1, Mode: Mode(7)}}, ErrInvalidConfig},
	}

	require.NoError(t, build.ValidateTable([]ClassifierConfig{valid}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, build.ValidateTable(tt.table), tt.want)
		})
	}

	bad := build
	bad.MaxClassifiers = 0
	assert.ErrorIs(t, bad.ValidateTable(nil), ErrInvalidConfig)
}

func TestMode_Text(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("knn")))
	assert.Equal(t, ModeKNN, m)
	assert.Error(t, m.UnmarshalText([]byte("svm")))

	_, err := Mode(3).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Unknown(3)", Mode(3).String())
}
