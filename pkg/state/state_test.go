package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Commit(t *testing.T) {
	var s State
	assert.True(t, s.IsEmpty())

	s.InputPath = "/data/orders.ndjson"
	s.Commit(50, 2)
	s.Commit(0, 0)
	s.Commit(120, 5)

	assert.False(t, s.IsEmpty())
	assert.Equal(t, int64(120), s.Offset)
	assert.Equal(t, int64(5), s.Line)
	assert.Equal(t, uint64(3), s.Batches)
	assert.WithinDuration(t, time.Now(), s.UpdatedAt, time.Minute)
}

func TestFileRepository_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	repo := NewFileRepository(dir)
	ctx := context.Background()

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsEmpty())

	want := State{InputPath: "/data/orders.ndjson", Offset: 42, Line: 3, Batches: 2}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.InputPath, got.InputPath)
	assert.Equal(t, want.Offset, got.Offset)
	assert.Equal(t, want.Line, got.Line)
	assert.Equal(t, want.Batches, got.Batches)

	_, err = os.Stat(repo.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	require.NoError(t, os.WriteFile(repo.Path(), []byte("{not json"), 0o600))

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}

func TestNewInputRepository(t *testing.T) {
	dir := t.TempDir()
	a := NewInputRepository(dir, "/in/a.ndjson")
	b := NewInputRepository(dir, "/in/b.ndjson")

	assert.Equal(t, filepath.Join(dir, ".a.ndjson.batchby.json"), a.Path())
	assert.NotEqual(t, a.Path(), b.Path())
}

func TestFileRepository_SaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileRepository(t.TempDir()).Save(ctx, State{InputPath: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
