package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/slackbridge/internal/brain"
	"basegraph.app/slackbridge/internal/model"
	"basegraph.app/slackbridge/internal/queue"
	"basegraph.app/slackbridge/internal/worker"
)

func message(id, text string) queue.Message {
	return queue.Message{
		ID:      id,
		Attempt: 1,
		Event: model.InboundEvent{
			IngestID: 1,
			Channel:  "C1",
			User:     "U1",
			TS:       "1700000000.000100",
			Text:     text,
		},
	}
}

var _ = Describe("Worker", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		consumer  *mockConsumer
		processor *mockProcessor
		w         *worker.Worker
		done      chan error
	)

	start := func() {
		w = worker.New(consumer, processor, worker.Config{ErrorBackoff: 10 * time.Millisecond})
		done = make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
	}

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		processor = &mockProcessor{}
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(Receive())
	})

	It("acks successfully handled events", func() {
		consumer = newMockConsumer([]queue.Message{message("1-0", "hi")})
		start()

		Eventually(consumer.ackedIDs).Should(Equal([]string{"1-0"}))
		Expect(consumer.dlqEntries()).To(BeEmpty())
	})

	It("dead-letters a failed event without requeueing it", func() {
		processor.processFn = func(ctx context.Context, event model.InboundEvent) error {
			return errors.New("completion unavailable")
		}
		consumer = newMockConsumer([]queue.Message{message("1-0", "hi")})
		start()

		Eventually(consumer.dlqEntries).Should(HaveKeyWithValue("1-0", "completion unavailable"))
		Consistently(processor.seenTexts, 50*time.Millisecond).Should(Equal([]string{"hi"}))
		Expect(consumer.ackedIDs()).To(BeEmpty())
	})

	It("confines a panic to the event that caused it", func() {
		processor.processFn = func(ctx context.Context, event model.InboundEvent) error {
			if event.Text == "boom" {
				panic("nil map")
			}
			return nil
		}
		consumer = newMockConsumer(
			[]queue.Message{message("1-0", "boom")},
			[]queue.Message{message("2-0", "fine")},
		)
		start()

		Eventually(consumer.ackedIDs).Should(Equal([]string{"2-0"}))
		Expect(consumer.dlqEntries()).To(HaveKeyWithValue("1-0", ContainSubstring("panic: nil map")))
		Expect(processor.seenTexts()).To(Equal([]string{"boom", "fine"}))
	})

	It("keeps running after a read error", func() {
		consumer = newMockConsumer()
		consumer.readErr = errors.New("connection refused")
		start()

		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())
	})

	It("returns nil when stopped", func() {
		consumer = newMockConsumer()
		start()

		w.Stop()
		Expect(<-done).To(Succeed())
		done <- nil
	})
})

var _ = Describe("Processor", func() {
	It("passes handler errors through", func() {
		p := worker.NewProcessor(&mockHandler{
			handleFn: func(ctx context.Context, event model.InboundEvent) (brain.Outcome, error) {
				return "", errors.New("sending reply: 500")
			},
		})

		err := p.Process(context.Background(), message("1-0", "hi").Event)
		Expect(err).To(MatchError("sending reply: 500"))
	})

	It("treats a stopped thread as success", func() {
		p := worker.NewProcessor(&mockHandler{
			handleFn: func(ctx context.Context, event model.InboundEvent) (brain.Outcome, error) {
				return brain.OutcomeStopped, nil
			},
		})

		Expect(p.Process(context.Background(), message("1-0", "hi").Event)).To(Succeed())
	})
})
