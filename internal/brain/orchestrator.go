package brain

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/slackbridge/common/llm"
	"basegraph.app/slackbridge/common/logger"
	"basegraph.app/slackbridge/internal/model"
	"basegraph.app/slackbridge/internal/service/chat_platform"
)

// Outcome describes how an event was handled when no error occurred.
type Outcome string

const (
	OutcomeReplied Outcome = "replied"
	OutcomeStopped Outcome = "stopped" // a third party joined the thread
)

type OrchestratorConfig struct {
	SystemPrompt string
}

// Orchestrator answers one inbound chat message: fetch thread, guard,
// assemble turns, complete, annotate, reply. It holds no per-event state.
type Orchestrator struct {
	cfg       OrchestratorConfig
	platform  chat_platform.ChatPlatform
	completer llm.Completer
}

func NewOrchestrator(cfg OrchestratorConfig, platform chat_platform.ChatPlatform, completer llm.Completer) *Orchestrator {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Orchestrator{
		cfg:       cfg,
		platform:  platform,
		completer: completer,
	}
}

func (o *Orchestrator) HandleMessage(ctx context.Context, event model.InboundEvent) (Outcome, error) {
	if err := event.Validate(); err != nil {
		return "", err
	}

	threadTS := event.ThreadRoot()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(event.EventID),
		Channel:   logger.Ptr(event.Channel),
		ThreadTS:  logger.Ptr(threadTS.String()),
		UserID:    logger.Ptr(event.User),
		Component: "slackbridge.brain.orchestrator",
	})

	sc := logger.StartSpan(ctx, "brain.handle_message")
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "handling message", "ongoing_thread", event.IsOngoingThread())

	turns, decision, err := o.buildTurns(ctx, event, threadTS)
	if err != nil {
		sc.RecordError(err)
		return "", err
	}
	if decision == DecisionStop {
		slog.InfoContext(ctx, "another user joined the thread, not replying")
		return OutcomeStopped, nil
	}

	result, err := o.completer.Complete(ctx, turns)
	if err != nil {
		sc.RecordError(err)
		return "", fmt.Errorf("completing conversation: %w", err)
	}

	annotated, err := Annotate(result.Content, result.Citations)
	if err != nil {
		sc.RecordError(err)
		return "", fmt.Errorf("annotating completion: %w", err)
	}

	if err := o.platform.SendReply(ctx, chat_platform.SendReplyParams{
		Channel:  event.Channel,
		ThreadTS: threadTS,
		Text:     FormatReply(event.User, annotated),
	}); err != nil {
		sc.RecordError(err)
		return "", fmt.Errorf("sending reply: %w", err)
	}

	slog.InfoContext(ctx, "reply sent",
		"turns", len(turns),
		"citations", len(result.Citations),
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens)

	return OutcomeReplied, nil
}

// buildTurns gates ongoing threads on the thread guard before replaying their history.
func (o *Orchestrator) buildTurns(ctx context.Context, event model.InboundEvent, threadTS model.Timestamp) ([]model.ConversationTurn, Decision, error) {
	incoming := event.AsMessage()

	if !event.IsOngoingThread() {
		return BuildTurns(o.cfg.SystemPrompt, incoming, nil), DecisionContinue, nil
	}

	history, err := o.platform.FetchThreadReplies(ctx, chat_platform.FetchThreadParams{
		Channel:  event.Channel,
		ThreadTS: threadTS,
	})
	if err != nil {
		return nil, DecisionStop, fmt.Errorf("fetching thread history: %w", err)
	}

	slog.DebugContext(ctx, "thread history fetched", "messages", len(history))

	if decision := ShouldContinue(history); decision == DecisionStop {
		return nil, decision, nil
	}

	// an empty page still counts as an existing thread
	if history == nil {
		history = []model.Message{}
	}
	return BuildTurns(o.cfg.SystemPrompt, incoming, history), DecisionContinue, nil
}
