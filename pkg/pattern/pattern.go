package pattern

import (
	"errors"
	"iter"

	"github.com/bft-labs/batchby/pkg/batch"
)

var (
	// ErrNilExtract is returned by BeginWith when Config.Extract is nil.
	ErrNilExtract = errors.New("pattern: nil extract func")

	// ErrNilSame is returned by BeginWith when Config.Same is nil.
	ErrNilSame = errors.New("pattern: nil same func")
)

// Batch is a run of consecutive entries sharing one pattern.
type Batch[P, E any] struct {
	// Pattern is the pattern shared by Items. It is nil only for the batch
	// flushed at the end of an empty input.
	Pattern *P `json:"accumulate_pattern"`

	// Items holds the entries in input order.
	Items []E `json:"items"`
}

// Len returns the number of entries in the batch.
func (b Batch[P, E]) Len() int {
	return len(b.Items)
}

// Config configures the same-pattern policy.
type Config[E, P any] struct {
	// Extract derives the pattern of entry. acc is the pattern of the batch
	// being built before entry is added, or nil when no entry has been seen.
	Extract func(entry E, acc *P) (P, error)

	// Same reports whether two patterns are equal.
	Same func(a, b P) bool
}

// Option tunes the policy.
type Option func(*options)

type options struct {
	skipEmpty bool
}

// SkipEmpty suppresses the empty batch otherwise flushed when the input has
// no entries.
func SkipEmpty() Option {
	return func(o *options) {
		o.skipEmpty = true
	}
}

// State is the accumulator of the same-pattern policy. The zero value is the
// empty state.
type State[P, E any] struct {
	started bool
	pattern P
	items   []E
}

// Started reports whether at least one entry has been folded in.
func (s State[P, E]) Started() bool {
	return s.started
}

func (s State[P, E]) batch() Batch[P, E] {
	if !s.started {
		return Batch[P, E]{Items: []E{}}
	}
	p := s.pattern
	return Batch[P, E]{Pattern: &p, Items: s.items}
}

// Policy implements batch.Control for the same-pattern policy.
type Policy[E, P any] struct {
	cfg  Config[E, P]
	opts options
}

// SamePattern returns a policy that batches consecutive entries whose
// extracted patterns are equal under cfg.Same.
func SamePattern[E, P any](cfg Config[E, P], opts ...Option) *Policy[E, P] {
	p := &Policy[E, P]{cfg: cfg}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

// BeginWith implements batch.Control. A nil policy fails with
// batch.ErrNilControl.
func (p *Policy[E, P]) BeginWith() (State[P, E], error) {
	if p == nil {
		return State[P, E]{}, batch.ErrNilControl
	}
	if p.cfg.Extract == nil {
		return State[P, E]{}, ErrNilExtract
	}
	if p.cfg.Same == nil {
		return State[P, E]{}, ErrNilSame
	}
	return State[P, E]{}, nil
}

// ForEachEntry implements batch.Control.
func (p *Policy[E, P]) ForEachEntry(s State[P, E], entry E) (batch.Step[State[P, E], Batch[P, E]], error) {
	var acc *P
	if s.Started() {
		acc = &s.pattern
	}

	current, err := p.cfg.Extract(entry, acc)
	if err != nil {
		return batch.Step[State[P, E], Batch[P, E]]{Next: s}, err
	}

	if !s.Started() || p.cfg.Same(s.pattern, current) {
		next := State[P, E]{started: true, pattern: current, items: append(s.items, entry)}
		return batch.Keep[State[P, E], Batch[P, E]](next), nil
	}

	next := State[P, E]{started: true, pattern: current, items: []E{entry}}
	return batch.Push(next, s.batch()), nil
}

// End implements batch.Control.
func (p *Policy[E, P]) End(last State[P, E]) ([]Batch[P, E], error) {
	if !last.Started() && p.opts.skipEmpty {
		return nil, nil
	}
	return []Batch[P, E]{last.batch()}, nil
}

// By returns the batch-by transform for a same-pattern policy.
func By[E, P any](cfg Config[E, P], opts ...Option) func(iter.Seq2[E, error]) iter.Seq2[Batch[P, E], error] {
	return batch.By[State[P, E], E, Batch[P, E]](SamePattern(cfg, opts...))
}
