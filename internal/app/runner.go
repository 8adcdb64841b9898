package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/batchby/pkg/batch"
	"github.com/bft-labs/batchby/pkg/log"
	"github.com/bft-labs/batchby/pkg/metrics"
	"github.com/bft-labs/batchby/pkg/pattern"
	"github.com/bft-labs/batchby/pkg/record"
	"github.com/bft-labs/batchby/pkg/sink"
	"github.com/bft-labs/batchby/pkg/state"
)

type (
	recordBatch = pattern.Batch[any, record.Record]
	recordState = pattern.State[any, record.Record]
)

// FlushTimeout bounds the delivery of batches flushed after a follow-mode
// run is cancelled.
const FlushTimeout = 30 * time.Second

// Config contains configuration for a run.
type Config struct {
	// Key is the property records are grouped on.
	Key string

	// Input is the NDJSON input path, "-" for stdin.
	Input string

	// Follow keeps reading Input as it grows until the context is cancelled.
	Follow       bool
	PollInterval time.Duration

	// Resume continues from the checkpoint of a previous run over Input.
	Resume bool

	// SkipEmpty suppresses the empty batch flushed for an empty input.
	SkipEmpty bool

	// MetricsAddr, when set, serves /metrics for the duration of the run.
	MetricsAddr string
}

// Runner reads records, groups consecutive records sharing Key into
// batches and delivers every batch to a sink.
type Runner struct {
	config    Config
	sink      sink.Sink
	stateRepo state.Repository
	logger    log.Logger

	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics instruments the batching policy with m. g is served on
// Config.MetricsAddr when that is set.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(r *Runner) {
		r.metrics = m
		r.gatherer = g
	}
}

// WithLogger sets the run logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner delivering to out. stateRepo may be nil, in
// which case no checkpoint is kept.
func NewRunner(config Config, out sink.Sink, stateRepo state.Repository, opts ...Option) *Runner {
	r := &Runner{
		config:    config,
		sink:      out,
		stateRepo: stateRepo,
		logger:    log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline until the input ends, the context is cancelled
// or delivery fails. A failed delivery stops the run and nothing after the
// failed batch is delivered.
//
// In follow mode cancelling ctx ends the input normally: the pending batch
// is flushed, bounded by FlushTimeout, and Run returns nil. Otherwise
// cancellation abandons the pending batch, interrupts a delivery in
// progress and Run returns the context error.
//
// A resumed run does not deliver the empty batch for an input that has no
// records past the checkpoint.
func (r *Runner) Run(ctx context.Context) error {
	if r.sink == nil {
		return errors.New("app: nil sink")
	}

	st, err := r.loadState(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		return r.pipeline(gctx, st)
	})

	if r.config.MetricsAddr != "" && r.gatherer != nil {
		srv := newMetricsServer(r.config.MetricsAddr, r.gatherer)
		g.Go(func() error {
			r.logger.Info("serving metrics", log.String("addr", r.config.MetricsAddr))
			return srv.serve()
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-done:
			}
			return srv.shutdown()
		})
	}

	return g.Wait()
}

// loadState returns the checkpoint to start from. Without Resume, or when
// the checkpoint belongs to another input, the run starts from the top.
func (r *Runner) loadState(ctx context.Context) (*state.State, error) {
	st := &state.State{}
	if r.config.Input == "" || r.config.Input == "-" {
		return st, nil
	}

	abs, err := filepath.Abs(r.config.Input)
	if err != nil {
		return nil, err
	}
	st.InputPath = abs

	if !r.config.Resume || r.stateRepo == nil {
		return st, nil
	}

	saved, err := r.stateRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if saved.IsEmpty() {
		return st, nil
	}
	if saved.InputPath != abs {
		r.logger.Warn("checkpoint belongs to another input, starting over",
			log.String("checkpoint_input", saved.InputPath),
			log.String("input", abs),
		)
		return st, nil
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.Size() < saved.Offset {
		return nil, fmt.Errorf("input %s is shorter than checkpoint offset %d", abs, saved.Offset)
	}

	r.logger.Info("resuming",
		log.Int64("offset", saved.Offset),
		log.Int64("line", saved.Line),
		log.Uint64("batches", saved.Batches),
	)
	return &saved, nil
}

func (r *Runner) pipeline(ctx context.Context, st *state.State) error {
	start := record.Position{Offset: st.Offset, Line: st.Line}

	entries, closeInput, err := r.open(ctx, start)
	if err != nil {
		return err
	}
	defer closeInput()

	var opts []pattern.Option
	if r.config.SkipEmpty || st.Batches > 0 {
		opts = append(opts, pattern.SkipEmpty())
	}
	control := metrics.Instrument[recordState, record.Record, recordBatch](
		pattern.SameProperty[record.Record](r.config.Key, opts...),
		r.metrics,
	)

	// Checkpoints of delivered batches are kept even once ctx is done.
	saveCtx := context.WithoutCancel(ctx)

	first := st.Batches
	for b, err := range batch.By(control)(entries) {
		if err != nil {
			r.logger.Error("batching stopped", log.Err(err))
			return err
		}

		seq := st.Batches + 1
		env := sink.NewEnvelope(seq, r.config.Key, b)

		began := time.Now()
		if err := r.deliver(ctx, env); err != nil {
			r.logger.Error("deliver failed",
				log.Err(err),
				log.Uint64("seq", seq),
				log.Int("items", env.Count),
			)
			return fmt.Errorf("deliver batch %d: %w", seq, err)
		}

		r.logger.Debug("delivered batch",
			log.Uint64("seq", seq),
			log.Int("items", env.Count),
			log.Any("pattern", env.Pattern),
			log.Duration("duration", time.Since(began)),
		)

		r.checkpoint(saveCtx, st, b)
	}

	r.logger.Info("input finished", log.Uint64("batches", st.Batches-first))
	return nil
}

// deliver writes env to the sink. A follow-mode flush after cancellation
// still reaches the sink, within FlushTimeout.
func (r *Runner) deliver(ctx context.Context, env sink.Envelope) error {
	if r.config.Follow && ctx.Err() != nil {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FlushTimeout)
		defer cancel()
		return r.sink.Write(fctx, env)
	}
	return r.sink.Write(ctx, env)
}

// open returns the record sequence starting at start and a func releasing
// the input.
func (r *Runner) open(ctx context.Context, start record.Position) (iter.Seq2[record.Record, error], func(), error) {
	if r.config.Follow {
		seq := record.Tail(ctx, r.config.Input, record.TailOptions{
			Start:        start,
			PollInterval: r.config.PollInterval,
			Logger:       r.logger,
		})
		return seq, func() {}, nil
	}

	rc, err := record.Open(r.config.Input, start.Offset)
	if err != nil {
		return nil, nil, err
	}
	if r.config.Input == "" || r.config.Input == "-" {
		// stdin reads cannot be interrupted.
		rc = record.NewContextReader(ctx, rc)
	}
	closeInput := func() {
		if err := rc.Close(); err != nil {
			r.logger.Warn("close input", log.Err(err))
		}
	}
	return withContext(ctx, record.Read(rc, start)), closeInput, nil
}

// checkpoint commits a delivered batch. Save failures are logged and the run
// goes on; the next successful save catches up.
func (r *Runner) checkpoint(ctx context.Context, st *state.State, b recordBatch) {
	var offset, line int64
	if n := len(b.Items); n > 0 {
		offset, line = b.Items[n-1].Offset, b.Items[n-1].Line
	}
	st.Commit(offset, line)

	if r.stateRepo == nil || st.InputPath == "" {
		return
	}
	if err := r.stateRepo.Save(ctx, *st); err != nil {
		r.logger.Error("failed to save checkpoint", log.Err(err))
	}
}

// withContext ends seq with ctx's error once ctx is done. It only checks
// between records; a blocked read is interrupted by the reader itself (see
// record.NewContextReader).
func withContext[E any](ctx context.Context, seq iter.Seq2[E, error]) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		for e, err := range seq {
			if cerr := ctx.Err(); cerr != nil {
				var zero E
				yield(zero, cerr)
				return
			}
			if !yield(e, err) {
				return
			}
		}
	}
}
