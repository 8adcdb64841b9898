package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/batchby/pkg/pattern"
	"github.com/bft-labs/batchby/pkg/record"
)

func testBatch() pattern.Batch[any, record.Record] {
	var p any = json.Number("1")
	return pattern.Batch[any, record.Record]{
		Pattern: &p,
		Items: []record.Record{
			{Fields: map[string]any{"sku": "a", "order_id": json.Number("1")}, Line: 1, Offset: 25},
			{Fields: map[string]any{"sku": "b", "order_id": json.Number("1")}, Line: 2, Offset: 50},
		},
	}
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(3, "order_id", testBatch())

	_, err := uuid.Parse(env.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), env.Seq)
	assert.Equal(t, "order_id", env.Key)
	assert.Equal(t, json.Number("1"), env.Pattern)
	assert.Equal(t, 2, env.Count)
	assert.Equal(t, int64(50), env.LastOffset)

	other := NewEnvelope(3, "order_id", testBatch())
	assert.NotEqual(t, env.ID, other.ID)
}

func TestNewEnvelope_EmptyBatch(t *testing.T) {
	env := NewEnvelope(1, "order_id", pattern.Batch[any, record.Record]{})

	out, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"accumulate_pattern":null`)
	assert.Contains(t, string(out), `"items":[]`)
	assert.Contains(t, string(out), `"count":0`)
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLines(&buf, false)

	require.NoError(t, s.Write(context.Background(), NewEnvelope(1, "order_id", testBatch())))
	require.NoError(t, s.Write(context.Background(), NewEnvelope(2, "order_id", testBatch())))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, float64(1), env["seq"])
	assert.Len(t, env["items"], 2)

	assert.ErrorIs(t, s.Write(context.Background(), NewEnvelope(3, "order_id", testBatch())), ErrSinkClosed)
}

func TestOpenJSONLines_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	s, err := OpenJSONLines(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), NewEnvelope(1, "k", testBatch())))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "existing\n{"))
}

type recordingSink struct {
	seqs   []uint64
	err    error
	closed bool
}

func (r *recordingSink) Write(_ context.Context, env Envelope) error {
	if r.err != nil {
		return r.err
	}
	r.seqs = append(r.seqs, env.Seq)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

func TestMulti(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := Multi{a, b}

	require.NoError(t, m.Write(context.Background(), Envelope{Seq: 1}))
	assert.Equal(t, []uint64{1}, a.seqs)
	assert.Equal(t, []uint64{1}, b.seqs)

	boom := errors.New("boom")
	a.err = boom
	assert.ErrorIs(t, m.Write(context.Background(), Envelope{Seq: 2}), boom)
	assert.Equal(t, []uint64{1}, b.seqs)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
