package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/slackbridge/common/logger"
	"basegraph.app/slackbridge/internal/queue"
)

type Config struct {
	// ErrorBackoff is how long to pause after a failed stream read.
	ErrorBackoff time.Duration
}

// Worker drains the event stream one message at a time. A failed event is
// dead-lettered and never retried.
type Worker struct {
	consumer  Consumer
	processor MessageProcessor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, processor MessageProcessor, cfg Config) *Worker {
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called. The message in
// flight is always finished before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "slackbridge.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				w.sleep(ctx, w.cfg.ErrorBackoff)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-w.stopCh:
	case <-t.C:
	}
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		w.handle(ctx, msg)
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, msg queue.Message) {
	event := msg.Event
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(event.EventID),
		IngestID:  logger.Ptr(event.IngestID),
		MessageID: logger.Ptr(msg.ID),
		Channel:   logger.Ptr(event.Channel),
	})

	sc := logger.StartSpanFromTraceID(ctx, event.TraceID, "worker.process_event",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.String("slack.channel", event.Channel),
		attribute.Int64("slackbridge.ingest_id", event.IngestID),
		attribute.Int("queue.attempt", msg.Attempt),
	)

	slog.InfoContext(ctx, "processing event", "attempt", msg.Attempt)

	if err := w.processSafe(ctx, msg); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "event processing failed", "error", err)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Left pending; the reply has already been posted.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}
}

func (w *Worker) processSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in event processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processor.Process(ctx, msg.Event)
}
