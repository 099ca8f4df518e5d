package chat_platform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/slack-go/slack"

	"basegraph.app/slackbridge/internal/model"
)

const repliesPageSize = 200

// slackAPI is the subset of *slack.Client used here.
type slackAPI interface {
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
}

type SlackChatPlatform struct {
	api slackAPI
}

func NewSlackChatPlatform(api slackAPI) *SlackChatPlatform {
	return &SlackChatPlatform{api: api}
}

func (s *SlackChatPlatform) FetchThreadReplies(ctx context.Context, params FetchThreadParams) ([]model.Message, error) {
	var messages []model.Message
	cursor := ""
	pages := 0

	for {
		replies, hasMore, nextCursor, err := s.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: params.Channel,
			Timestamp: params.ThreadTS.String(),
			Cursor:    cursor,
			Limit:     repliesPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching thread replies from slack: %w", err)
		}
		pages++

		for _, r := range replies {
			messages = append(messages, mapMessage(r))
		}

		if !hasMore || nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	slog.DebugContext(ctx, "fetched thread replies",
		"channel", params.Channel,
		"thread_ts", params.ThreadTS,
		"message_count", len(messages),
		"pages", pages)

	return messages, nil
}

func (s *SlackChatPlatform) SendReply(ctx context.Context, params SendReplyParams) error {
	_, ts, err := s.api.PostMessageContext(ctx, params.Channel,
		slack.MsgOptionText(params.Text, false),
		slack.MsgOptionTS(params.ThreadTS.String()),
	)
	if err != nil {
		return fmt.Errorf("posting reply to slack: %w", err)
	}

	slog.DebugContext(ctx, "reply posted",
		"channel", params.Channel,
		"thread_ts", params.ThreadTS,
		"reply_ts", ts)
	return nil
}

// Identity resolves the bot's own user and bot IDs via auth.test.
func (s *SlackChatPlatform) Identity(ctx context.Context) (Identity, error) {
	resp, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("slack auth test: %w", err)
	}
	return Identity{UserID: resp.UserID, BotID: resp.BotID}, nil
}

func mapMessage(m slack.Message) model.Message {
	author := m.User
	if author == "" {
		author = m.BotID
	}
	return model.Message{
		AuthorID:  author,
		Timestamp: model.Timestamp(m.Timestamp),
		Text:      m.Text,
		IsBot:     m.BotID != "",
	}
}
