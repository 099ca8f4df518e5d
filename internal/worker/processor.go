package worker

import (
	"context"
	"log/slog"

	"basegraph.app/slackbridge/internal/brain"
	"basegraph.app/slackbridge/internal/model"
)

// ConversationHandler is satisfied by *brain.Orchestrator.
type ConversationHandler interface {
	HandleMessage(ctx context.Context, event model.InboundEvent) (brain.Outcome, error)
}

// Processor adapts the conversation handler to the worker loop.
type Processor struct {
	handler ConversationHandler
}

func NewProcessor(handler ConversationHandler) *Processor {
	return &Processor{handler: handler}
}

func (p *Processor) Process(ctx context.Context, event model.InboundEvent) error {
	outcome, err := p.handler.HandleMessage(ctx, event)
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "event handled", "outcome", string(outcome))
	return nil
}
