package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string, start Position) ([]Record, error) {
	t.Helper()
	var out []Record
	for rec, err := range Read(strings.NewReader(input), start) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestRead(t *testing.T) {
	input := "{\"sku\":\"a\",\"order_id\":1}\n\n{\"sku\":\"b\",\"order_id\":1}\n{\"sku\":\"c\",\"order_id\":2}"

	recs, err := collect(t, input, Position{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, int64(1), recs[0].Line)
	assert.Equal(t, int64(25), recs[0].Offset)
	assert.Equal(t, int64(3), recs[1].Line)
	assert.Equal(t, int64(4), recs[2].Line)
	assert.Equal(t, int64(len(input)), recs[2].Offset)

	v, ok := recs[2].Get("order_id")
	require.True(t, ok)
	assert.Equal(t, json.Number("2"), v)
}

func TestRead_ResumeNumbersFromStart(t *testing.T) {
	recs, err := collect(t, "{\"a\":1}\n", Position{Offset: 100, Line: 10})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(11), recs[0].Line)
	assert.Equal(t, int64(108), recs[0].Offset)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		wantN   int
	}{
		{name: "malformed json", input: "{\"a\":1}\n{oops}\n{\"a\":2}\n", wantErr: "record: line 2", wantN: 1},
		{name: "array line", input: "[1,2]\n", wantErr: "record: line 1", wantN: 0},
		{name: "null line", input: "null\n", wantErr: "not a JSON object", wantN: 0},
		{name: "two objects on a line", input: "{} {}\n", wantErr: "trailing data", wantN: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := collect(t, tt.input, Position{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Len(t, recs, tt.wantN)
		})
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	recs, err := collect(t, "{\"big\":12345678901234567890,\"s\":\"x\"}\n", Position{})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	out, err := json.Marshal(recs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"big":12345678901234567890,"s":"x"}`, string(out))
	assert.Contains(t, string(out), "12345678901234567890")

	out, err = json.Marshal(Record{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n{\"a\":2}\n"), 0o600))

	rc, err := Open(path, 8)
	require.NoError(t, err)
	defer rc.Close()

	var recs []Record
	for rec, err := range Read(rc, Position{Offset: 8, Line: 1}) {
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	require.Len(t, recs, 1)
	assert.Equal(t, json.Number("2"), recs[0].Fields["a"])
	assert.Equal(t, int64(16), recs[0].Offset)

	_, err = Open("-", 5)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)
}

func TestPosition_Advance(t *testing.T) {
	pos := Position{Offset: 10, Line: 2}.Advance(8).Advance(1)
	assert.Equal(t, Position{Offset: 19, Line: 4}, pos)
}
