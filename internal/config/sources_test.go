package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedcal/internal/model"
)

func newTestStore(t *testing.T) *SourceStore {
	t.Helper()
	return NewSourceStore(filepath.Join(t.TempDir(), "sources.yaml"))
}

func TestSourceStore_MissingFileIsEmptyList(t *testing.T) {
	store := newTestStore(t)
	assert.Empty(t, store.List())
}

func TestSourceStore_CorruptFileIsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o600))

	store := NewSourceStore(path)
	assert.Empty(t, store.List())
}

func TestSourceStore_CreateAssignsID(t *testing.T) {
	store := newTestStore(t)

	created, err := store.Create(model.FeedSource{
		Name:    "Team calendar",
		URL:     "https://example.com/team.ics",
		Enabled: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.KindFeed, created.Kind)

	listed := store.List()
	require.Len(t, listed, 1)
	assert.Equal(t, created, listed[0])
}

func TestSourceStore_UpdateReplacesRecord(t *testing.T) {
	store := newTestStore(t)
	created, err := store.Create(model.FeedSource{ID: "team", Name: "Old", Kind: model.KindFeed})
	require.NoError(t, err)

	updated, err := store.Update(created.ID, model.FeedSource{Name: "New", Color: "#ff0000", Kind: model.KindFeed})
	require.NoError(t, err)
	assert.Equal(t, "team", updated.ID, "update must not change the id")
	assert.Equal(t, "New", updated.Name)

	listed := store.List()
	require.Len(t, listed, 1)
	assert.Equal(t, "#ff0000", listed[0].Color)
}

func TestSourceStore_UpdateUnknownID(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Update("nope", model.FeedSource{})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestSourceStore_Delete(t *testing.T) {
	store := newTestStore(t)
	created, err := store.Create(model.FeedSource{Name: "Gone"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(created.ID))
	assert.Empty(t, store.List())

	assert.ErrorIs(t, store.Delete(created.ID), ErrSourceNotFound)
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()

	// Missing file: zero jobs.
	assert.Empty(t, LoadJobs(filepath.Join(dir, "missing.yaml")))

	// Corrupt file: zero jobs.
	corrupt := filepath.Join(dir, "corrupt.yaml")
	require.NoError(t, os.WriteFile(corrupt, []byte("jobs: [broken"), 0o600))
	assert.Empty(t, LoadJobs(corrupt))

	// Valid document.
	valid := filepath.Join(dir, "jobs.yaml")
	doc := `jobs:
  - id: backup
    name: Nightly backup
    enabled: true
    schedule:
      kind: cron
      expression: "0 3 * * *"
      timezone: UTC
    payload:
      description: rotate archives
`
	require.NoError(t, os.WriteFile(valid, []byte(doc), 0o600))

	jobs := LoadJobs(valid)
	require.Len(t, jobs, 1)
	assert.Equal(t, "backup", jobs[0].ID)
	assert.True(t, jobs[0].Enabled)
	assert.Equal(t, "0 3 * * *", jobs[0].Schedule.Expression)
	require.NotNil(t, jobs[0].Payload)
	assert.Equal(t, "rotate archives", jobs[0].Payload.Description)
}
