package sink

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bft-labs/batchby/pkg/pattern"
	"github.com/bft-labs/batchby/pkg/record"
)

var (
	// ErrSinkClosed is returned by Write after Close.
	ErrSinkClosed = errors.New("sink: closed")

	// ErrRetriesExhausted is returned when a delivery keeps failing.
	ErrRetriesExhausted = errors.New("sink: retries exhausted")
)

// Sink consumes batch envelopes.
type Sink interface {
	// Write delivers one envelope. A returned error stops the run.
	Write(ctx context.Context, env Envelope) error

	// Close flushes and releases resources.
	Close() error
}

// Envelope is the wire form of a delivered batch.
type Envelope struct {
	ID         string          `json:"id"`
	Seq        uint64          `json:"seq"`
	Key        string          `json:"key"`
	Pattern    any             `json:"accumulate_pattern"`
	Count      int             `json:"count"`
	LastOffset int64           `json:"last_offset"`
	Items      []record.Record `json:"items"`
}

// NewEnvelope wraps the seq-th batch of a run grouped on key.
func NewEnvelope(seq uint64, key string, b pattern.Batch[any, record.Record]) Envelope {
	env := Envelope{
		ID:    uuid.NewString(),
		Seq:   seq,
		Key:   key,
		Count: len(b.Items),
		Items: b.Items,
	}
	if b.Pattern != nil {
		env.Pattern = *b.Pattern
	}
	if env.Items == nil {
		env.Items = []record.Record{}
	}
	if n := len(b.Items); n > 0 {
		env.LastOffset = b.Items[n-1].Offset
	}
	return env
}

// Multi writes every envelope to each sink in order.
type Multi []Sink

// Write implements Sink. It stops at the first failing sink.
func (m Multi) Write(ctx context.Context, env Envelope) error {
	for _, s := range m {
		if err := s.Write(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
