package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// JSONLines writes one JSON envelope per line.
type JSONLines struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	closed bool
}

// NewJSONLines writes to w. The caller keeps ownership of w.
func NewJSONLines(w io.Writer, pretty bool) *JSONLines {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &JSONLines{enc: enc}
}

// OpenJSONLines appends to the file at path, creating it if needed.
// The path "-" writes to stdout.
func OpenJSONLines(path string, pretty bool) (*JSONLines, error) {
	if path == "" || path == "-" {
		return NewJSONLines(os.Stdout, pretty), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	s := NewJSONLines(f, pretty)
	s.closer = f
	return s, nil
}

// Write implements Sink.
func (s *JSONLines) Write(_ context.Context, env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if err := s.enc.Encode(env); err != nil {
		return fmt.Errorf("encode batch %d: %w", env.Seq, err)
	}
	return nil
}

// Close implements Sink.
func (s *JSONLines) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
