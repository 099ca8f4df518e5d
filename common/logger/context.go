package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so every log line written while handling
// an event carries the event's identity without passing it around explicitly.
type LogFields struct {
	EventID   *string // Slack event ID (Ev...)
	IngestID  *int64  // Snowflake ID assigned at ingest
	MessageID *string // Redis stream message ID
	Channel   *string // Slack channel ID
	ThreadTS  *string // Root timestamp of the thread being answered
	UserID    *string // Slack user who triggered the event
	Component string  // Component name (OTel semantic convention style, e.g., "slackbridge.brain.orchestrator")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.EventID != nil {
		result.EventID = new.EventID
	}
	if new.IngestID != nil {
		result.IngestID = new.IngestID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Channel != nil {
		result.Channel = new.Channel
	}
	if new.ThreadTS != nil {
		result.ThreadTS = new.ThreadTS
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{Channel: logger.Ptr(ch)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
// Useful for logging message text without dumping whole answers.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
