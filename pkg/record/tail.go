package record

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/batchby/pkg/log"
)

// DefaultPollInterval is the fallback interval for checking a followed file
// when no filesystem event arrives.
const DefaultPollInterval = 500 * time.Millisecond

// TailOptions configures Tail.
type TailOptions struct {
	// Start is where reading begins.
	Start Position

	// PollInterval bounds how long Tail waits for new data between
	// filesystem events. Default: DefaultPollInterval
	PollInterval time.Duration

	// Logger receives watcher diagnostics. Default: no-op
	Logger log.Logger
}

// Tail follows the file at path and yields records as complete lines are
// appended. A partial last line is held back until its newline arrives.
//
// The sequence ends without error when ctx is cancelled, so consumers treat
// an interrupted follow session as a regular end of input. Truncation of the
// file below the current offset ends the sequence with an error.
func Tail(ctx context.Context, path string, opts TailOptions) iter.Seq2[Record, error] {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	return func(yield func(Record, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer f.Close()

		if opts.Start.Offset > 0 {
			if _, err := f.Seek(opts.Start.Offset, io.SeekStart); err != nil {
				yield(Record{}, fmt.Errorf("record: seek %s: %w", path, err))
				return
			}
		}

		var events <-chan fsnotify.Event
		var watchErrs <-chan error
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			opts.Logger.Warn("file watcher unavailable, polling", log.Err(err))
		} else {
			defer watcher.Close()
			if err := watcher.Add(path); err != nil {
				opts.Logger.Warn("failed to watch input, polling", log.String("path", path), log.Err(err))
			} else {
				events = watcher.Events
				watchErrs = watcher.Errors
			}
		}

		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()

		br := bufio.NewReader(f)
		pos := opts.Start
		var pending []byte

		for {
			if ctx.Err() != nil {
				return
			}

			line, err := br.ReadBytes('\n')
			if err == nil {
				if len(pending) > 0 {
					line = append(pending, line...)
					pending = nil
				}
				pos = pos.Advance(len(line))
				rec, ok, derr := decode(line, pos)
				if derr != nil {
					yield(Record{}, derr)
					return
				}
				if ok && !yield(rec, nil) {
					return
				}
				continue
			}
			if !errors.Is(err, io.EOF) {
				yield(Record{}, fmt.Errorf("record: read: %w", err))
				return
			}
			pending = append(pending, line...)

			if info, serr := f.Stat(); serr == nil && info.Size() < pos.Offset+int64(len(pending)) {
				yield(Record{}, fmt.Errorf("record: %s truncated below offset %d", path, pos.Offset))
				return
			}

			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					opts.Logger.Warn("followed input moved or removed", log.String("path", path))
				}
			case werr, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				opts.Logger.Warn("file watcher error", log.Err(werr))
			case <-ticker.C:
			}
		}
	}
}
