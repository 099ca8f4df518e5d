package queue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"basegraph.app/slackbridge/internal/model"
)

// EventMessage is an accepted Slack message on its way to the worker.
type EventMessage struct {
	EventID  string
	IngestID int64
	Channel  string
	User     string
	TS       string
	Text     string
	ThreadTS string // empty for top-level messages
	TraceID  *string
	Attempt  int
}

// Message is an EventMessage read back from the stream.
type Message struct {
	ID      string
	Event   model.InboundEvent
	Attempt int
	Raw     redis.XMessage
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	channel, err := parseString(msg.Values, "channel")
	if err != nil {
		return Message{}, err
	}
	user, err := parseString(msg.Values, "user")
	if err != nil {
		return Message{}, err
	}
	ts, err := parseString(msg.Values, "ts")
	if err != nil {
		return Message{}, err
	}
	ingestID, err := parseInt64(msg.Values, "ingest_id")
	if err != nil {
		return Message{}, err
	}

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	event := model.InboundEvent{
		EventID:  parseOptionalString(msg.Values, "event_id"),
		IngestID: ingestID,
		Channel:  channel,
		User:     user,
		TS:       model.Timestamp(ts),
		Text:     parseOptionalString(msg.Values, "text"),
		TraceID:  parseOptionalString(msg.Values, "trace_id"),
	}
	if threadTS := parseOptionalString(msg.Values, "thread_ts"); threadTS != "" {
		t := model.Timestamp(threadTS)
		event.ThreadTS = &t
	}

	if err := event.Validate(); err != nil {
		return Message{}, err
	}

	return Message{
		ID:      msg.ID,
		Event:   event,
		Attempt: attempt,
		Raw:     msg,
	}, nil
}

func eventValues(msg EventMessage) map[string]any {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	values := map[string]any{
		"ingest_id": msg.IngestID,
		"channel":   msg.Channel,
		"user":      msg.User,
		"ts":        msg.TS,
		"text":      msg.Text,
		"attempt":   attempt,
	}
	if msg.EventID != "" {
		values["event_id"] = msg.EventID
	}
	if msg.ThreadTS != "" {
		values["thread_ts"] = msg.ThreadTS
	}
	if msg.TraceID != nil && *msg.TraceID != "" {
		values["trace_id"] = *msg.TraceID
	}
	return values
}

// FromInboundEvent converts a validated event into its queued form.
func FromInboundEvent(event model.InboundEvent) EventMessage {
	msg := EventMessage{
		EventID:  event.EventID,
		IngestID: event.IngestID,
		Channel:  event.Channel,
		User:     event.User,
		TS:       event.TS.String(),
		Text:     event.Text,
	}
	if event.ThreadTS != nil {
		msg.ThreadTS = event.ThreadTS.String()
	}
	if event.TraceID != "" {
		traceID := event.TraceID
		msg.TraceID = &traceID
	}
	return msg
}

func messageValues(msg Message) map[string]any {
	values := eventValues(FromInboundEvent(msg.Event))
	values["attempt"] = msg.Attempt
	return values
}

func parseInt64(values map[string]any, key string) (int64, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	num, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	str := fmt.Sprint(raw)
	if strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("empty %s", key)
	}
	return str, nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}
