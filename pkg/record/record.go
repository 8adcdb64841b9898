package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

// Record is one decoded input line.
type Record struct {
	// Fields holds the decoded JSON object. Numbers are kept as json.Number.
	Fields map[string]any

	// Line is the 1-based line number in the input.
	Line int64

	// Offset is the byte offset just past the record's line.
	Offset int64
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// MarshalJSON encodes only the record's fields.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}

// Position is a resumable location in an input.
type Position struct {
	// Offset is the byte offset to start reading from.
	Offset int64

	// Line is the number of lines before Offset.
	Line int64
}

// Advance returns the position just past a line of n bytes, including its
// newline.
func (p Position) Advance(n int) Position {
	return Position{Offset: p.Offset + int64(n), Line: p.Line + 1}
}

// Read returns a sequence over the records in r. r must already be
// positioned at start.Offset; start is only used to number lines and
// offsets. A trailing line without a newline is still decoded. The first
// malformed line ends the sequence with an error.
func Read(r io.Reader, start Position) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		br := bufio.NewReader(r)
		pos := start
		for {
			line, err := br.ReadBytes('\n')
			if len(line) > 0 {
				pos = pos.Advance(len(line))
				rec, ok, derr := decode(line, pos)
				if derr != nil {
					yield(Record{}, derr)
					return
				}
				if ok && !yield(rec, nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(Record{}, fmt.Errorf("record: read: %w", err))
				}
				return
			}
		}
	}
}

// decode parses one line. Blank lines report ok == false.
func decode(line []byte, pos Position) (Record, bool, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return Record{}, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Record{}, false, fmt.Errorf("record: line %d: %w", pos.Line, err)
	}
	if fields == nil {
		return Record{}, false, fmt.Errorf("record: line %d: not a JSON object", pos.Line)
	}
	if dec.More() {
		return Record{}, false, fmt.Errorf("record: line %d: trailing data after object", pos.Line)
	}

	return Record{Fields: fields, Line: pos.Line, Offset: pos.Offset}, true, nil
}

// Open opens path for reading and seeks to offset. The path "-" reads from
// stdin, which cannot seek.
func Open(path string, offset int64) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		if offset > 0 {
			return nil, fmt.Errorf("record: cannot seek stdin to offset %d", offset)
		}
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("record: seek %s: %w", path, err)
		}
	}
	return f, nil
}
