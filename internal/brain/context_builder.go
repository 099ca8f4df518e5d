package brain

import "basegraph.app/slackbridge/internal/model"

// BuildTurns constructs the turn sequence for a stateless completion call.
// Returns turns in order: system prompt, replayed thread history, incoming message.
//
// threadMessages == nil means the incoming message starts a new thread.
// Bot messages replay as assistant turns. Human messages replay as user turns
// only when written by the original user and not the incoming message itself
// (matched by timestamp); the incoming text is always appended last, wherever
// it appears in the fetched history.
func BuildTurns(systemPrompt string, incoming model.Message, threadMessages []model.Message) []model.ConversationTurn {
	turns := make([]model.ConversationTurn, 0, 2+len(threadMessages))
	turns = append(turns, model.SystemTurn(systemPrompt))

	if threadMessages == nil {
		return append(turns, model.UserTurn(incoming.Text))
	}

	var originalUser string
	if len(threadMessages) > 0 {
		originalUser = threadMessages[0].AuthorID
	}

	for _, msg := range threadMessages {
		switch {
		case msg.IsBot:
			turns = append(turns, model.AssistantTurn(msg.Text))
		case msg.Timestamp != incoming.Timestamp && msg.AuthorID == originalUser:
			turns = append(turns, model.UserTurn(msg.Text))
		}
	}

	return append(turns, model.UserTurn(incoming.Text))
}
