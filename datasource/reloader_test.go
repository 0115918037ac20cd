package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, path, body string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestReloader_PicksUpNewVersion(t *testing.T) {
	// GIVEN: A dataset file loaded by a reloader
	// WHEN: The file is rewritten with a later modification time
	// THEN: Reload installs the new values and reports the change once

	path := filepath.Join(t.TempDir(), "dataset.yaml")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	writeDataset(t, path, "socialCostOfCarbon:\n  - releaseYear: 2023\n    values: [0.05]\n", t0)

	r, err := NewReloader(path)
	require.NoError(t, err)
	q := Query{ReleaseYear: 2023}

	values, err := r.SocialCostOfCarbon(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.05}, values)

	changed, err := r.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "same modification time")

	writeDataset(t, path, "socialCostOfCarbon:\n  - releaseYear: 2023\n    values: [0.08]\n", t0.Add(time.Hour))
	changed, err = r.Reload()
	require.NoError(t, err)
	assert.True(t, changed)

	values, err = r.SocialCostOfCarbon(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.08}, values)
}

func TestReloader_BadFileKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	writeDataset(t, path, datasetYAML, t0)

	r, err := NewReloader(path)
	require.NoError(t, err)

	writeDataset(t, path, "emissions: [broken: yaml", t0.Add(time.Hour))
	_, err = r.Reload()
	assert.Error(t, err)

	values, err := r.Emissions(context.Background(), QueryFor(testProject()))
	require.NoError(t, err)
	assert.Equal(t, []float64{400, 390, 380}, values)
}

func TestReloader_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	writeDataset(t, path, datasetYAML, time.Now())

	r, err := NewReloader(path)
	require.NoError(t, err)
	r.CheckInterval = 10 * time.Millisecond

	r.Start()
	r.Start()
	r.Stop()
	r.Stop()
}

func TestNewReloader_MissingFile(t *testing.T) {
	_, err := NewReloader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
