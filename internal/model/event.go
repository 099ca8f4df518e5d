package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedEvent = errors.New("malformed event")

// InboundEvent is a validated chat message event addressed to the bot.
// ThreadTS is nil when the message is not a reply inside an existing thread.
type InboundEvent struct {
	EventID  string
	IngestID int64
	Channel  string
	User     string
	TS       Timestamp
	Text     string
	ThreadTS *Timestamp
	TraceID  string
}

// ThreadRoot returns the timestamp replies must be addressed to: the
// parent thread when there is one, the message itself otherwise.
func (e InboundEvent) ThreadRoot() Timestamp {
	if e.ThreadTS != nil && !e.ThreadTS.IsZero() {
		return *e.ThreadTS
	}
	return e.TS
}

// IsOngoingThread reports whether the event is a reply within an existing thread.
func (e InboundEvent) IsOngoingThread() bool {
	return e.ThreadTS != nil && !e.ThreadTS.IsZero() && !e.TS.IsZero()
}

// AsMessage converts the event into the message shape used for history assembly.
func (e InboundEvent) AsMessage() Message {
	return Message{
		AuthorID:  e.User,
		Timestamp: e.TS,
		Text:      e.Text,
	}
}

// Validate rejects events missing the fields every handler relies on.
func (e InboundEvent) Validate() error {
	var missing []string
	if e.Channel == "" {
		missing = append(missing, "channel")
	}
	if e.User == "" {
		missing = append(missing, "user")
	}
	if e.TS.IsZero() {
		missing = append(missing, "ts")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedEvent, strings.Join(missing, ", "))
	}
	return nil
}
