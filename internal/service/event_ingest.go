package service

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/slackbridge/common/id"
	"basegraph.app/slackbridge/common/logger"
	"basegraph.app/slackbridge/internal/model"
	"basegraph.app/slackbridge/internal/queue"
	"basegraph.app/slackbridge/internal/service/chat_platform"
)

// EventIngestParams is a message event as delivered by either Slack transport.
type EventIngestParams struct {
	EventID  string
	Channel  string
	User     string
	BotID    string
	SubType  string
	TS       string
	Text     string
	ThreadTS string
	TraceID  *string
}

type IgnoreReason string

const (
	IgnoreSelf    IgnoreReason = "self"
	IgnoreSubType IgnoreReason = "subtype"
)

type EventIngestResult struct {
	Event        *model.InboundEvent
	Enqueued     bool
	Duplicated   bool
	Ignored      bool
	IgnoreReason IgnoreReason
}

type EventIngestService interface {
	Ingest(ctx context.Context, params EventIngestParams) (*EventIngestResult, error)
}

// Subtypes that still carry a user-authored message worth answering.
var answerableSubTypes = map[string]bool{
	"":                 true,
	"file_share":       true,
	"thread_broadcast": true,
}

type eventIngestService struct {
	identity chat_platform.Identity
	deduper  queue.Deduper
	queue    queue.Producer
	logger   *slog.Logger
}

// NewEventIngestService builds the ingest step shared by the webhook and
// the socket listener. identity is the bot's own Slack identity.
func NewEventIngestService(identity chat_platform.Identity, deduper queue.Deduper, queue queue.Producer, logger *slog.Logger) EventIngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventIngestService{
		identity: identity,
		deduper:  deduper,
		queue:    queue,
		logger:   logger,
	}
}

func (s *eventIngestService) Ingest(ctx context.Context, params EventIngestParams) (*EventIngestResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(params.EventID),
		Channel:   logger.Ptr(params.Channel),
		Component: "slackbridge.service.event_ingest",
	})

	if reason, ignored := s.ignoreReason(params); ignored {
		s.logger.DebugContext(ctx, "ignoring slack event", "reason", reason, "subtype", params.SubType)
		return &EventIngestResult{Ignored: true, IgnoreReason: reason}, nil
	}

	event := model.InboundEvent{
		EventID: params.EventID,
		Channel: params.Channel,
		User:    params.User,
		TS:      model.Timestamp(params.TS),
		Text:    params.Text,
	}
	if params.ThreadTS != "" {
		threadTS := model.Timestamp(params.ThreadTS)
		event.ThreadTS = &threadTS
	}
	if params.TraceID != nil {
		event.TraceID = *params.TraceID
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	first, err := s.deduper.FirstDelivery(ctx, params.EventID)
	if err != nil {
		return nil, fmt.Errorf("checking event delivery: %w", err)
	}
	if !first {
		s.logger.InfoContext(ctx, "duplicate slack delivery deduped")
		return &EventIngestResult{Event: &event, Duplicated: true}, nil
	}

	event.IngestID = id.New()
	if err := s.queue.Enqueue(ctx, queue.FromInboundEvent(event)); err != nil {
		// Let Slack's redelivery of this event through.
		if forgetErr := s.deduper.Forget(ctx, params.EventID); forgetErr != nil {
			s.logger.WarnContext(ctx, "failed to release dedupe key", "error", forgetErr)
		}
		return nil, fmt.Errorf("enqueueing event: %w", err)
	}

	return &EventIngestResult{Event: &event, Enqueued: true}, nil
}

func (s *eventIngestService) ignoreReason(params EventIngestParams) (IgnoreReason, bool) {
	if params.BotID != "" && params.BotID == s.identity.BotID {
		return IgnoreSelf, true
	}
	if params.User != "" && params.User == s.identity.UserID {
		return IgnoreSelf, true
	}
	if !answerableSubTypes[params.SubType] {
		return IgnoreSubType, true
	}
	return "", false
}
