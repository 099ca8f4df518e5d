package service_test

import (
	"context"
	"sync"

	"github.com/slack-go/slack/socketmode"

	"basegraph.app/slackbridge/internal/queue"
	"basegraph.app/slackbridge/internal/service"
)

type mockProducer struct {
	enqueueFn func(ctx context.Context, msg queue.EventMessage) error
	enqueued  []queue.EventMessage
}

func (m *mockProducer) Enqueue(ctx context.Context, msg queue.EventMessage) error {
	m.enqueued = append(m.enqueued, msg)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, msg)
	}
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

// mockDeduper behaves like SET NX: the first call per event ID wins.
type mockDeduper struct {
	err  error
	seen map[string]bool
}

func (m *mockDeduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *mockDeduper) Forget(ctx context.Context, eventID string) error {
	delete(m.seen, eventID)
	return nil
}

type mockIngest struct {
	mu       sync.Mutex
	ingestFn func(ctx context.Context, params service.EventIngestParams) (*service.EventIngestResult, error)
	calls    []service.EventIngestParams
}

func (m *mockIngest) Ingest(ctx context.Context, params service.EventIngestParams) (*service.EventIngestResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	if m.ingestFn != nil {
		return m.ingestFn(ctx, params)
	}
	return &service.EventIngestResult{Enqueued: true}, nil
}

func (m *mockIngest) received() []service.EventIngestParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.EventIngestParams(nil), m.calls...)
}

type mockSocketClient struct {
	mu    sync.Mutex
	acked []string
	runFn func(ctx context.Context) error
}

func (m *mockSocketClient) Ack(req socketmode.Request, payload ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, req.EnvelopeID)
}

func (m *mockSocketClient) RunContext(ctx context.Context) error {
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockSocketClient) ackedEnvelopes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}
