// Package worker drains the durable queue, normalizes each payload into a
// log record, and persists it.
package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/logstream-io/logstream/internal/model"
	"github.com/logstream-io/logstream/internal/parser"
)

const dequeueBatch = 10

// MessageQueue is the queue surface the worker consumes.
type MessageQueue interface {
	Dequeue(ctx context.Context, channel string, limit int) ([]model.Message, error)
	Ack(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID) error
}

// Store persists log records.
type Store interface {
	Insert(ctx context.Context, rec *model.LogRecord) error
}

// SourceChecker verifies a source application exists. Optional; when nil
// the worker stores source identifiers as opaque strings.
type SourceChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// Options configures a Worker.
type Options struct {
	Channel     string
	Concurrency int
	// PollInterval is the idle sleep when the channel is drained.
	PollInterval time.Duration
	// Sources enables source-app validation when non-nil.
	Sources SourceChecker
	// NewRelic wraps each message in a background transaction when set.
	NewRelic *newrelic.Application
}

// Worker consumes queue messages and writes log records. It is stateless
// per message: redelivery policy lives in the queue, and a failed store
// write is reported back rather than retried here.
type Worker struct {
	queue MessageQueue
	store Store
	opts  Options
	log   zerolog.Logger
}

// New returns a Worker consuming from queue and writing to store.
func New(queue MessageQueue, store Store, opts Options, log zerolog.Logger) *Worker {
	if opts.Channel == "" {
		opts.Channel = "log_queue"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	return &Worker{queue: queue, store: store, opts: opts, log: log}
}

// Run starts the consumer goroutines and blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Str("channel", w.opts.Channel).
		Int("concurrency", w.opts.Concurrency).
		Msg("worker started")

	done := make(chan struct{})
	for i := 0; i < w.opts.Concurrency; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			w.runLoop(ctx)
		}()
	}
	for i := 0; i < w.opts.Concurrency; i++ {
		<-done
	}
	return ctx.Err()
}

// runLoop polls the channel until ctx is canceled. Dequeue errors back off
// exponentially with jitter so a flapping database is not hammered.
func (w *Worker) runLoop(ctx context.Context) {
	baseBackoff := w.opts.PollInterval
	maxBackoff := 30 * time.Second
	backoff := baseBackoff

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := w.queue.Dequeue(ctx, w.opts.Channel, dequeueBatch)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("dequeue failed")
			// #nosec:G404 jitter does not need cryptographic randomness
			sleep := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			backoff = min(backoff*2, maxBackoff)
			if !sleepCtx(ctx, sleep) {
				return
			}
			continue
		}
		backoff = baseBackoff

		if len(msgs) == 0 {
			if !sleepCtx(ctx, w.opts.PollInterval) {
				return
			}
			continue
		}
		for _, msg := range msgs {
			w.processMessage(ctx, msg)
		}
	}
}

// processMessage handles exactly one unit of work. A permanently
// malformed payload is acknowledged as handled-but-discarded so it is not
// retried forever; only store write failures are reported back to the
// queue for redelivery.
func (w *Worker) processMessage(ctx context.Context, msg model.Message) {
	if w.opts.NewRelic != nil {
		txn := w.opts.NewRelic.StartTransaction("worker/process-message")
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	rec, ok := w.buildRecord(msg)
	if !ok {
		w.log.Warn().
			Stringer("message_id", msg.ID).
			Str("payload", payloadPreview(msg.Payload)).
			Msg("discarding unparseable message")
		w.ack(ctx, msg.ID)
		return
	}

	if w.opts.Sources != nil {
		known, err := w.opts.Sources.Exists(ctx, rec.SourceApp)
		if err != nil {
			w.log.Error().Err(err).Stringer("message_id", msg.ID).Msg("source check failed")
			w.fail(ctx, msg.ID)
			return
		}
		if !known {
			w.log.Warn().
				Stringer("message_id", msg.ID).
				Str("source_app", rec.SourceApp).
				Msg("discarding log for unknown source application")
			w.ack(ctx, msg.ID)
			return
		}
	}

	if err := w.store.Insert(ctx, rec); err != nil {
		w.log.Error().Err(err).
			Stringer("message_id", msg.ID).
			Int("attempt", msg.Attempts).
			Msg("store write failed")
		w.fail(ctx, msg.ID)
		return
	}

	w.log.Info().
		Stringer("message_id", msg.ID).
		Str("log_level", string(rec.LogLevel)).
		Str("source_app", rec.SourceApp).
		Msg("log record persisted")
	w.ack(ctx, msg.ID)
}

// buildRecord classifies the payload and normalizes it into a log record.
// ok is false when no usable shape was recognized or the message text is
// missing.
func (w *Worker) buildRecord(msg model.Message) (*model.LogRecord, bool) {
	c := Classify(msg.Payload)
	switch c.Kind {
	case KindObject:
		return recordFromObject(c.Object)
	case KindRawLine:
		return recordFromLine(c.Line)
	}
	return nil, false
}

func recordFromObject(obj map[string]any) (*model.LogRecord, bool) {
	message, ok := resolveField(obj, messageKeys)
	if !ok {
		return nil, false
	}
	rec := &model.LogRecord{
		Message:   message,
		TraceID:   "",
		SourceApp: "unknown",
		LogLevel:  model.LevelInfo,
		Date:      time.Now(),
	}
	if lvl, ok := resolveField(obj, levelKeys); ok {
		rec.LogLevel = model.NormalizeLevel(lvl)
	}
	if trace, ok := resolveField(obj, traceKeys); ok {
		rec.TraceID = trace
	}
	if src, ok := resolveField(obj, sourceKeys); ok {
		rec.SourceApp = src
	}
	if date, ok := resolveDate(obj); ok {
		rec.Date = date
	}
	return rec, true
}

func recordFromLine(line *parser.ParsedLine) (*model.LogRecord, bool) {
	if line.Message == "" {
		return nil, false
	}
	rec := &model.LogRecord{
		Message:   line.Message,
		LogLevel:  model.NormalizeLevel(line.Level),
		TraceID:   line.TraceID,
		SourceApp: "unknown",
		Date:      line.Date,
	}
	if rec.Date.IsZero() {
		rec.Date = time.Now()
	}
	return rec, true
}

func (w *Worker) ack(ctx context.Context, id uuid.UUID) {
	if err := w.queue.Ack(ctx, id); err != nil {
		w.log.Error().Err(err).Stringer("message_id", id).Msg("ack failed")
	}
}

func (w *Worker) fail(ctx context.Context, id uuid.UUID) {
	if err := w.queue.Fail(ctx, id); err != nil {
		w.log.Error().Err(err).Stringer("message_id", id).Msg("fail report failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

const maxPayloadPreview = 256

func payloadPreview(p []byte) string {
	if len(p) > maxPayloadPreview {
		return string(p[:maxPayloadPreview]) + "..."
	}
	return string(p)
}
