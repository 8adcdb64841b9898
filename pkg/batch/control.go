package batch

// Step is the result of folding one entry into a batch.
type Step[B, P any] struct {
	// Next is the accumulator to use for the following entry.
	Next B

	// Pushed holds finalized batches to emit immediately, in order.
	// Empty means nothing is emitted for this entry.
	Pushed []P
}

// Keep returns a Step that updates the accumulator and emits nothing.
func Keep[B, P any](next B) Step[B, P] {
	return Step[B, P]{Next: next}
}

// Push returns a Step that updates the accumulator and emits the given batches.
func Push[B, P any](next B, pushed ...P) Step[B, P] {
	return Step[B, P]{Next: next, Pushed: pushed}
}

// Control defines a batching policy.
//
// B is the accumulator type, E the entry type and P the type of a finalized
// batch. The transform owns the accumulator exclusively while it runs, so
// implementations may either return a fresh value or mutate and return the
// one they were given.
type Control[B, E, P any] interface {
	// BeginWith returns the initial, empty accumulator.
	// It is called exactly once, before any entry.
	BeginWith() (B, error)

	// ForEachEntry folds entry into batch. It is called once per entry in
	// input order and must always return the next accumulator.
	ForEachEntry(batch B, entry E) (Step[B, P], error)

	// End is called exactly once after the last entry with the final
	// accumulator (the initial one when the input was empty). It returns the
	// batches to flush.
	End(last B) ([]P, error)
}

// Funcs adapts three plain functions to the Control interface.
// A nil BeginFn yields the zero accumulator, a nil EntryFn keeps the
// accumulator unchanged and a nil EndFn flushes nothing.
type Funcs[B, E, P any] struct {
	BeginFn func() (B, error)
	EntryFn func(batch B, entry E) (Step[B, P], error)
	EndFn   func(last B) ([]P, error)
}

// BeginWith implements Control.
func (f Funcs[B, E, P]) BeginWith() (B, error) {
	if f.BeginFn == nil {
		var zero B
		return zero, nil
	}
	return f.BeginFn()
}

// ForEachEntry implements Control.
func (f Funcs[B, E, P]) ForEachEntry(batch B, entry E) (Step[B, P], error) {
	if f.EntryFn == nil {
		return Keep[B, P](batch), nil
	}
	return f.EntryFn(batch, entry)
}

// End implements Control.
func (f Funcs[B, E, P]) End(last B) ([]P, error) {
	if f.EndFn == nil {
		return nil, nil
	}
	return f.EndFn(last)
}
