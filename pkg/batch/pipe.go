package batch

import (
	"context"
)

// Pipe runs control over entries received from in and sends the pushed
// batches on the returned channel.
//
// Both returned channels are always created and are closed once processing
// stops. At most one error is sent. Closing in marks the end of input and
// triggers End. Cancelling ctx abandons the run: ctx.Err() is reported and
// End is not called.
func Pipe[B, E, P any](ctx context.Context, control Control[B, E, P], in <-chan E) (<-chan P, <-chan error) {
	out := make(chan P)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if in == nil {
			errs <- ErrNilInput
			return
		}

		src := func(yield func(E, error) bool) {
			var zero E
			for {
				select {
				case <-ctx.Done():
					yield(zero, ctx.Err())
					return
				case e, ok := <-in:
					if !ok {
						return
					}
					if !yield(e, nil) {
						return
					}
				}
			}
		}

		for p, err := range By(control)(src) {
			if err != nil {
				errs <- err
				return
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case out <- p:
			}
		}
	}()

	return out, errs
}
