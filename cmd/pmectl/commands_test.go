package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pme/blobstore"
)

const testTable = `
classifiers:
  - id: 1
    pattern_size: 2
    max_patterns: 16
    num_classes: 2
    distance: L1
    mode: RBF
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTable(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", writeTable(t, testTable))
	require.NoError(t, err)
	assert.Equal(t, "ok: 1 classifiers, 16 of 4096 result slots reserved\n", out)

	_, err = run(t, "validate", writeTable(t, "classifiers:\n  - id: 1\n    pattern_size: 0\n"))
	assert.Error(t, err)

	_, err = run(t, "validate")
	assert.Error(t, err)
}

func TestWorkflow(t *testing.T) {
	table := writeTable(t, testTable)
	model := filepath.Join(t.TempDir(), "model")

	out, err := run(t, "--store", model, "init", table)
	require.NoError(t, err)
	assert.Contains(t, out, "version 1")

	_, err = run(t, "--store", model, "init", table)
	assert.ErrorContains(t, err, "already exists")

	out, err = run(t, "--store", model, "learn", "--classifier", "1", "--category", "1", "--influence", "20", "10,10")
	require.NoError(t, err)
	assert.Equal(t, "Added (version 2)\n", out)

	out, err = run(t, "--store", model, "learn", "--classifier", "1", "--category", "1", "--influence", "20", "10,10")
	require.NoError(t, err)
	assert.Equal(t, "Noop\n", out)

	out, err = run(t, "--store", model, "classify", "--classifier", "1", "12,11")
	require.NoError(t, err)
	assert.Equal(t, "Positive category=1 pattern=0 influence=20 distance=3\n", out)

	out, err = run(t, "--store", model, "classify", "--classifier", "1", "--json", "200,200")
	require.NoError(t, err)
	var res classifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Negative", res.Status)
	assert.Zero(t, res.Category)
	assert.Equal(t, [4]float32{0, 1, 20, 380}, res.Diagnostics)

	out, err = run(t, "--store", model, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, "version:  2")
	assert.Contains(t, out, "patterns: 1")
	assert.Contains(t, out, "1/16")

	out, err = run(t, "--store", model, "inspect", "--versions")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)

	out, err = run(t, "--store", model, "inspect", "--version", "1", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ID": 1`)

	out, err = run(t, "--store", model, "--compression", "zstd", "init", "--force", table)
	require.NoError(t, err)
	assert.Contains(t, out, "version 3")

	out, err = run(t, "--store", model, "prune", "--keep", "2")
	require.NoError(t, err)
	assert.Equal(t, "deleted 1 versions, current is 3\n", out)

	_, err = run(t, "--store", model, "inspect", "--version", "1")
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(model, "packs", "000001-00001.pack"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	out, err = run(t, "--store", model, "inspect", "--versions")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	_, err = run(t, "--store", model, "prune", "--keep", "0")
	assert.ErrorContains(t, err, "--keep")
}

func TestCommandErrors(t *testing.T) {
	model := t.TempDir()

	_, err := run(t, "--store", model, "inspect")
	assert.Error(t, err)

	_, err = run(t, "--store", model, "classify", "--classifier", "1", "1,2")
	assert.Error(t, err)

	_, err = run(t, "--store", model, "classify", "1,2")
	assert.ErrorContains(t, err, "classifier")

	_, err = run(t, "--store", model, "--log-level", "loud", "init", writeTable(t, testTable))
	assert.ErrorContains(t, err, "--log-level")

	_, err = run(t, "--store", model, "--compression", "gzip", "init", writeTable(t, testTable))
	assert.ErrorContains(t, err, "--compression")

	_, err = run(t, "--store", model, "learn", "--classifier", "1", "--category", "1", "--influence", "5", "1,x")
	assert.ErrorContains(t, err, "invalid vector element")
}

func TestParseVector(t *testing.T) {
	v, err := parseVector("0, 1,255")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 255}, v)

	_, err = parseVector("256")
	assert.Error(t, err)
	_, err = parseVector("")
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, s)

	s, err = openStore(ctx, "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, s)

	s, err = openStore(ctx, "minio://localhost:9000/models/pme")
	require.NoError(t, err)
	assert.NotNil(t, s)

	for _, bad := range []string{"s3:///prefix", "minio://localhost:9000", "gs://bucket"} {
		_, err := openStore(ctx, bad)
		assert.Error(t, err, bad)
	}
}
