package service

import (
	"log/slog"

	"basegraph.app/slackbridge/internal/queue"
	"basegraph.app/slackbridge/internal/service/chat_platform"
)

// Services wires the server-side services around shared clients.
type Services struct {
	identity chat_platform.Identity
	deduper  queue.Deduper
	producer queue.Producer
	logger   *slog.Logger
}

func NewServices(identity chat_platform.Identity, deduper queue.Deduper, producer queue.Producer, logger *slog.Logger) *Services {
	return &Services{
		identity: identity,
		deduper:  deduper,
		producer: producer,
		logger:   logger,
	}
}

func (s *Services) EventIngest() EventIngestService {
	return NewEventIngestService(s.identity, s.deduper, s.producer, s.logger)
}
