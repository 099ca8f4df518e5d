package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/slackbridge/common/logger"
	"basegraph.app/slackbridge/internal/model"
)

// SocketClient is the part of *socketmode.Client the listener drives.
type SocketClient interface {
	Ack(req socketmode.Request, payload ...interface{})
	RunContext(ctx context.Context) error
}

// SocketListener receives Events API envelopes over Socket Mode and feeds
// message events into ingest. It never runs the conversation handler.
type SocketListener struct {
	client SocketClient
	events <-chan socketmode.Event
	ingest EventIngestService
	logger *slog.Logger
}

func NewSocketListener(client SocketClient, events <-chan socketmode.Event, ingest EventIngestService, logger *slog.Logger) *SocketListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &SocketListener{
		client: client,
		events: events,
		ingest: ingest,
		logger: logger,
	}
}

// Run holds the websocket open until ctx is cancelled.
func (l *SocketListener) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "slackbridge.service.socket_listener"})

	go l.consume(ctx)

	if err := l.client.RunContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (l *SocketListener) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-l.events:
			if !ok {
				return
			}
			l.HandleEvent(ctx, evt)
		}
	}
}

// HandleEvent acks one Socket Mode envelope and ingests it when it is a
// message event.
func (l *SocketListener) HandleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		l.logger.InfoContext(ctx, "connecting to slack socket mode")
	case socketmode.EventTypeConnected:
		l.logger.InfoContext(ctx, "connected to slack socket mode")
	case socketmode.EventTypeConnectionError:
		l.logger.WarnContext(ctx, "slack socket mode connection error")
	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			l.client.Ack(*evt.Request)
		}
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			l.logger.WarnContext(ctx, "unexpected events api payload")
			return
		}
		l.ingestEvent(ctx, apiEvent)
	}
}

func (l *SocketListener) ingestEvent(ctx context.Context, apiEvent slackevents.EventsAPIEvent) {
	params, ok := MessageParamsFromEventsAPI(apiEvent)
	if !ok {
		l.logger.DebugContext(ctx, "ignoring non-message event", "inner_type", apiEvent.InnerEvent.Type)
		return
	}

	sc := logger.StartSpan(ctx, "socket.ingest_event", trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	if traceID := logger.TraceID(ctx); traceID != "" {
		params.TraceID = &traceID
	}

	result, err := l.ingest.Ingest(ctx, params)
	if err != nil {
		sc.RecordError(err)
		if errors.Is(err, model.ErrMalformedEvent) {
			l.logger.WarnContext(ctx, "dropping malformed slack event", "error", err)
			return
		}
		l.logger.ErrorContext(ctx, "failed to ingest slack event", "error", err)
		return
	}

	if result.Enqueued && result.Event != nil {
		l.logger.InfoContext(ctx, "slack event enqueued", "ingest_id", result.Event.IngestID)
	}
}
