package record

import (
	"context"
	"io"
)

type contextReader struct {
	*io.PipeReader
	stop func() bool
}

// NewContextReader returns a reader over r whose Read fails with ctx's error
// as soon as ctx is done, even while a Read on r is still blocked. Use it for
// inputs that cannot be interrupted, like stdin. Closing the returned reader
// does not close r.
//
// A Read on r that is already blocked keeps its goroutine until r returns.
func NewContextReader(ctx context.Context, r io.Reader) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		_, err := io.Copy(pw, r)
		pw.CloseWithError(err)
	}()
	stop := context.AfterFunc(ctx, func() {
		pw.CloseWithError(ctx.Err())
	})
	return &contextReader{PipeReader: pr, stop: stop}
}

func (c *contextReader) Close() error {
	c.stop()
	return c.PipeReader.Close()
}
