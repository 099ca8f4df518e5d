package worker

import (
	"context"

	"basegraph.app/slackbridge/internal/model"
	"basegraph.app/slackbridge/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// MessageProcessor handles one inbound chat event end to end.
type MessageProcessor interface {
	Process(ctx context.Context, event model.InboundEvent) error
}
