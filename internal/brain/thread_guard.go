package brain

import "basegraph.app/slackbridge/internal/model"

// Decision is the outcome of the thread guard.
type Decision int

const (
	DecisionContinue Decision = iota
	DecisionStop
)

func (d Decision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ShouldContinue decides whether the bot may keep answering in a thread.
// The author of the first message is the original user. Any other human
// author stops the bot; bot messages never do.
func ShouldContinue(threadMessages []model.Message) Decision {
	if len(threadMessages) == 0 {
		return DecisionContinue
	}

	originalUser := threadMessages[0].AuthorID
	for _, msg := range threadMessages {
		if msg.AuthorID != originalUser && !msg.IsBot {
			return DecisionStop
		}
	}
	return DecisionContinue
}
