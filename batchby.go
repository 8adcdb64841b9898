// Package batchby groups consecutive entries of a sequence into batches.
//
// A Control decides where one batch ends and the next begins. The most common
// policy, SamePattern, keeps adding entries to the current batch while they
// share a pattern with it and starts a new batch when the pattern changes:
//
//	in := batchby.Slice(orders)
//	for b, err := range batchby.ByProp[Order]("order_id")(in) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(*b.Pattern, len(b.Items))
//	}
//
// The same transform backs the batchby command, which applies it to NDJSON
// records.
package batchby

import (
	"iter"

	"github.com/bft-labs/batchby/pkg/batch"
	"github.com/bft-labs/batchby/pkg/pattern"
)

// Control is a batching policy over accumulator B, entries E and batches P.
type Control[B, E, P any] = batch.Control[B, E, P]

// Step is the result of folding one entry into a batch.
type Step[B, P any] = batch.Step[B, P]

// Funcs adapts plain functions to Control.
type Funcs[B, E, P any] = batch.Funcs[B, E, P]

// ControlError reports which Control call failed.
type ControlError = batch.ControlError

// Batch is a run of consecutive entries sharing one pattern.
type Batch[P, E any] = pattern.Batch[P, E]

// Config configures SamePattern.
type Config[E, P any] = pattern.Config[E, P]

// Option tunes the same-pattern policy.
type Option = pattern.Option

var (
	// ErrNilControl is yielded when By is given a nil Control.
	ErrNilControl = batch.ErrNilControl

	// ErrNilInput is yielded when the input sequence is nil.
	ErrNilInput = batch.ErrNilInput
)

// By returns the transform running control over a sequence.
func By[B, E, P any](control Control[B, E, P]) func(iter.Seq2[E, error]) iter.Seq2[P, error] {
	return batch.By(control)
}

// Apply runs control over an infallible sequence.
func Apply[B, E, P any](control Control[B, E, P], entries iter.Seq[E]) iter.Seq2[P, error] {
	return batch.Apply(control, entries)
}

// Slice returns a sequence over entries.
func Slice[E any](entries []E) iter.Seq2[E, error] {
	return batch.Slice(entries)
}

// Collect drains seq into a slice.
func Collect[P any](seq iter.Seq2[P, error]) ([]P, error) {
	return batch.Collect(seq)
}

// Keep returns a Step that emits nothing.
func Keep[B, P any](next B) Step[B, P] {
	return batch.Keep[B, P](next)
}

// Push returns a Step that emits pushed.
func Push[B, P any](next B, pushed ...P) Step[B, P] {
	return batch.Push(next, pushed...)
}

// SkipEmpty suppresses the batch flushed for an empty input.
func SkipEmpty() Option {
	return pattern.SkipEmpty()
}

// SamePattern returns the same-pattern policy for cfg.
func SamePattern[E, P any](cfg Config[E, P], opts ...Option) *pattern.Policy[E, P] {
	return pattern.SamePattern(cfg, opts...)
}

// SameProperty groups entries on the value stored under key.
func SameProperty[E any](key string, opts ...Option) *pattern.Policy[E, any] {
	return pattern.SameProperty[E](key, opts...)
}

// ByProp is By(SameProperty(key)).
func ByProp[E any](key string, opts ...Option) func(iter.Seq2[E, error]) iter.Seq2[Batch[any, E], error] {
	return pattern.ByProp[E](key, opts...)
}

// ByKey groups entries on a comparable key derived from each entry.
func ByKey[E any, K comparable](key func(E) K, opts ...Option) func(iter.Seq2[E, error]) iter.Seq2[Batch[K, E], error] {
	return pattern.ByKey(key, opts...)
}
