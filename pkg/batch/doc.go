// Package batch provides a generic batch-by-control transform over ordered
// sequences of entries.
//
// A [Control] defines a batching policy with three operations. BeginWith
// builds the initial accumulator, ForEachEntry folds one entry into it, and
// End flushes whatever is left once the input is exhausted. The transform
// returned by [By] drives the Control one entry at a time and yields every
// batch the Control pushes, in the order the pushes happened.
//
// # Usage
//
// Transform an iterator of entries into an iterator of batches:
//
//	batches := batch.By(control)(entries)
//	for b, err := range batches {
//	    if err != nil {
//	        return err
//	    }
//	    // Deliver b...
//	}
//
// For channel based pipelines use [Pipe]:
//
//	out, errs := batch.Pipe(ctx, control, in)
//
// # Semantics
//
//   - Pushes from ForEachEntry are yielded before the next entry is read.
//   - End is called exactly once, after the last entry, and its pushes are
//     yielded last.
//   - A failing Control operation ends the sequence with a [*ControlError].
//     End is never called after a failed ForEachEntry.
//   - If the consumer stops iterating early, End is not called.
//
// The transform is strictly sequential. Each iteration of the returned
// sequence owns its own accumulator.
package batch
