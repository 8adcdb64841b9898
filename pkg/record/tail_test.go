package record

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"n\":1}\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recs := make(chan Record, 10)
	done := make(chan error, 1)
	go func() {
		for rec, err := range Tail(ctx, path, TailOptions{PollInterval: 10 * time.Millisecond}) {
			if err != nil {
				done <- err
				return
			}
			recs <- rec
		}
		done <- nil
	}()

	next := func() Record {
		t.Helper()
		select {
		case rec := <-recs:
			return rec
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for record")
			return Record{}
		}
	}

	assert.Equal(t, json.Number("1"), next().Fields["n"])

	appendFile(t, path, "{\"n\":2}\n{\"n\":")
	rec := next()
	assert.Equal(t, json.Number("2"), rec.Fields["n"])
	assert.Equal(t, int64(2), rec.Line)

	select {
	case rec := <-recs:
		t.Fatalf("partial line yielded early: %+v", rec)
	case <-time.After(50 * time.Millisecond):
	}

	appendFile(t, path, "3}\n")
	rec = next()
	assert.Equal(t, json.Number("3"), rec.Fields["n"])
	assert.Equal(t, int64(3), rec.Line)
	assert.Equal(t, int64(24), rec.Offset)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tail did not stop after cancel")
	}
}

func TestTail_StartOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"n\":1}\n{\"n\":2}\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for rec, err := range Tail(ctx, path, TailOptions{Start: Position{Offset: 8, Line: 1}, PollInterval: 10 * time.Millisecond}) {
		require.NoError(t, err)
		assert.Equal(t, json.Number("2"), rec.Fields["n"])
		assert.Equal(t, int64(2), rec.Line)
		break
	}
}

func TestTail_MissingFile(t *testing.T) {
	var gotErr error
	for _, err := range Tail(context.Background(), filepath.Join(t.TempDir(), "nope"), TailOptions{}) {
		gotErr = err
		break
	}
	assert.Error(t, gotErr)
}
