package batch

import (
	"iter"
)

// By returns a transform that runs control over an input sequence and yields
// the batches it pushes.
//
// Entries are consumed one at a time. Batches pushed while folding an entry
// are yielded before the next entry is read, and the batches returned by End
// are yielded last. The first error, from either the input or the control,
// is yielded once and ends the sequence; End is not called after it.
//
// Each iteration of the returned sequence is an independent run with its own
// accumulator.
func By[B, E, P any](control Control[B, E, P]) func(iter.Seq2[E, error]) iter.Seq2[P, error] {
	return func(in iter.Seq2[E, error]) iter.Seq2[P, error] {
		return func(yield func(P, error) bool) {
			var zero P
			if control == nil {
				yield(zero, ErrNilControl)
				return
			}
			if in == nil {
				yield(zero, ErrNilInput)
				return
			}

			acc, err := control.BeginWith()
			if err != nil {
				yield(zero, &ControlError{Op: OpBegin, Err: err})
				return
			}

			var n int
			for entry, err := range in {
				if err != nil {
					yield(zero, err)
					return
				}

				step, err := control.ForEachEntry(acc, entry)
				if err != nil {
					yield(zero, &ControlError{Op: OpEntry, Index: n, Err: err})
					return
				}
				for _, p := range step.Pushed {
					if !yield(p, nil) {
						return
					}
				}
				acc = step.Next
				n++
			}

			pushed, err := control.End(acc)
			if err != nil {
				yield(zero, &ControlError{Op: OpEnd, Index: n, Err: err})
				return
			}
			for _, p := range pushed {
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}

// Apply runs control over a sequence that cannot fail.
func Apply[B, E, P any](control Control[B, E, P], entries iter.Seq[E]) iter.Seq2[P, error] {
	if entries == nil {
		return By(control)(nil)
	}
	return By(control)(Entries(entries))
}

// Entries lifts an infallible sequence into the error-carrying form By expects.
func Entries[E any](seq iter.Seq[E]) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		for e := range seq {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Slice returns a sequence over the given entries.
func Slice[E any](entries []E) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Collect drains seq. On error it returns the batches yielded before the
// failure together with the error.
func Collect[P any](seq iter.Seq2[P, error]) ([]P, error) {
	var out []P
	for p, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}
