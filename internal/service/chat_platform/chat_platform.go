package chat_platform

import (
	"context"

	"basegraph.app/slackbridge/internal/model"
)

type FetchThreadParams struct {
	Channel  string
	ThreadTS model.Timestamp // root timestamp of the thread
}

type SendReplyParams struct {
	Channel  string
	ThreadTS model.Timestamp
	Text     string
}

// Identity is how the bot appears on the platform; used to ignore its own messages.
type Identity struct {
	UserID string
	BotID  string
}

type ChatPlatform interface {
	// FetchThreadReplies returns every message of the thread, root first, ordered by timestamp.
	FetchThreadReplies(ctx context.Context, params FetchThreadParams) ([]model.Message, error)
	SendReply(ctx context.Context, params SendReplyParams) error
}
