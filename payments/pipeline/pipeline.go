package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/LerianStudio/payments-engine/payments"
	"github.com/LerianStudio/payments-engine/payments/codec"
	"github.com/LerianStudio/payments-engine/payments/engine"
	"github.com/LerianStudio/payments-engine/payments/errgroup"
	"github.com/LerianStudio/payments-engine/payments/log"
	"github.com/LerianStudio/payments-engine/payments/opentelemetry/metrics"
	"github.com/LerianStudio/payments-engine/payments/transaction"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultChunkSize is the number of raw records decoded per chunk.
const DefaultChunkSize = 4096

// cancelCheckInterval is how many sequential events are applied between context checks.
const cancelCheckInterval = 1024

// Options tunes a run. Zero values select sequential decoding, the default
// chunk size, and the logger, tracer and metrics carried by the context.
type Options struct {
	Workers   int
	ChunkSize int
	Logger    log.Logger
	Tracer    trace.Tracer
	Metrics   *metrics.MetricsFactory
}

func (o Options) withDefaults(ctx context.Context) Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}

	if o.Logger == nil {
		o.Logger = payments.NewLoggerFromContext(ctx)
	}

	if o.Tracer == nil {
		o.Tracer = payments.NewTracerFromContext(ctx)
	}

	if o.Metrics == nil {
		o.Metrics = payments.NewMetricFactoryFromContext(ctx)
	}

	return o
}

// Summary reports what one run did.
type Summary struct {
	Events   uint64
	Applied  uint64
	Rejected uint64
	Accounts int
	Duration time.Duration
}

// Run decodes every event in r and applies it to eng.
func Run(ctx context.Context, r io.Reader, eng *engine.Engine, opts Options) (Summary, error) {
	opts = opts.withDefaults(ctx)
	start := time.Now()
	before := eng.Stats()

	ctx, span := opts.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.Int("pipeline.workers", opts.Workers),
		attribute.Int("pipeline.chunk_size", opts.ChunkSize),
	))
	defer span.End()

	if runID := payments.RunIDFromContext(ctx); runID != "" {
		span.SetAttributes(attribute.String("payments.run_id", runID))
	}

	dec := codec.NewDecoder(r)

	var err error
	if opts.Workers <= 1 {
		err = runSequential(ctx, dec, eng)
	} else {
		err = runParallel(ctx, dec, eng, opts)
	}

	after := eng.Stats()
	summary := Summary{
		Events:   after.Events - before.Events,
		Applied:  after.Applied - before.Applied,
		Rejected: after.Rejected - before.Rejected,
		Accounts: after.Accounts,
		Duration: time.Since(start),
	}

	span.SetAttributes(
		attribute.Int64("pipeline.events", int64(summary.Events)),
		attribute.Int64("pipeline.rejected", int64(summary.Rejected)),
		attribute.Int("pipeline.accounts", summary.Accounts),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline run failed")

		return summary, err
	}

	if err := opts.Metrics.RecordRunFinished(ctx, summary.Duration, summary.Accounts); err != nil {
		opts.Logger.Log(ctx, log.LevelWarn, "failed to record run metrics", log.Err(err))
	}

	opts.Logger.Log(ctx, log.LevelInfo, "pipeline finished",
		log.Uint64("events", summary.Events),
		log.Uint64("applied", summary.Applied),
		log.Uint64("rejected", summary.Rejected),
		log.Int("accounts", summary.Accounts),
		log.Duration("duration", summary.Duration),
	)

	return summary, nil
}

func runSequential(ctx context.Context, dec *codec.Decoder, eng *engine.Engine) error {
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		event, line, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if err := eng.Apply(ctx, event); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

type chunk struct {
	seq     int
	records []codec.Record
	// readErr ends the input after records.
	readErr error
}

type decoded struct {
	seq    int
	events []transaction.Event
	lines  []int
	err    error
}

func runParallel(ctx context.Context, dec *codec.Decoder, eng *engine.Engine, opts Options) error {
	// Decode needs the column layout before chunks fan out.
	if err := dec.ReadHeader(); err != nil {
		return err
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLogger(opts.Logger, "pipeline")

	jobs := make(chan chunk)
	results := make(chan decoded, opts.Workers)
	// Bounds the chunks read but not yet applied.
	inflight := make(chan struct{}, 2*opts.Workers)

	group.Go(func() error {
		defer close(jobs)
		return readChunks(gctx, dec, opts.ChunkSize, inflight, jobs)
	})

	workers, wctx := errgroup.WithContext(gctx)
	workers.SetLogger(opts.Logger, "decode_worker")

	for range opts.Workers {
		workers.Go(func() error {
			return decodeChunks(wctx, dec, opts, jobs, results)
		})
	}

	group.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	group.Go(func() error {
		return applyInOrder(gctx, eng, results, inflight)
	})

	return group.Wait()
}

func readChunks(ctx context.Context, dec *codec.Decoder, size int, inflight chan<- struct{}, jobs chan<- chunk) error {
	for seq := 0; ; seq++ {
		select {
		case inflight <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		c := chunk{seq: seq, records: make([]codec.Record, 0, size)}

		for len(c.records) < size {
			rec, err := dec.ReadRecord()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					c.readErr = err
				}

				return send(ctx, jobs, c)
			}

			c.records = append(c.records, rec)
		}

		if err := send(ctx, jobs, c); err != nil {
			return err
		}
	}
}

func send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func decodeChunks(ctx context.Context, dec *codec.Decoder, opts Options, jobs <-chan chunk, results chan<- decoded) error {
	for c := range jobs {
		out := decoded{
			seq:    c.seq,
			events: make([]transaction.Event, 0, len(c.records)),
			lines:  make([]int, 0, len(c.records)),
		}

		for _, rec := range c.records {
			event, err := dec.Decode(rec)
			if err != nil {
				out.err = err
				break
			}

			out.events = append(out.events, event)
			out.lines = append(out.lines, rec.Line)
		}

		if out.err == nil {
			out.err = c.readErr
		}

		if err := opts.Metrics.RecordChunkDecoded(ctx, len(out.events)); err != nil {
			opts.Logger.Log(ctx, log.LevelWarn, "failed to record chunk metrics", log.Err(err))
		}

		if err := send(ctx, results, out); err != nil {
			return err
		}
	}

	return nil
}

// applyInOrder applies decoded chunks by sequence number, buffering any that
// arrive early.
func applyInOrder(ctx context.Context, eng *engine.Engine, results <-chan decoded, inflight <-chan struct{}) error {
	pending := make(map[int]decoded)
	next := 0

	for d := range results {
		pending[d.seq] = d

		for {
			ready, ok := pending[next]
			if !ok {
				break
			}

			delete(pending, next)
			next++

			for i, event := range ready.events {
				if err := eng.Apply(ctx, event); err != nil {
					return fmt.Errorf("line %d: %w", ready.lines[i], err)
				}
			}

			if ready.err != nil {
				return ready.err
			}

			<-inflight
		}
	}

	return ctx.Err()
}
