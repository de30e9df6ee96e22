package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/grooming-platform/pkg/logging"
)

const (
	defaultWaitSeconds = 2
	defaultBatchSize   = 10
	deleteTimeout      = 5 * time.Second
)

// Worker drains the audit queue into the store.
type Worker struct {
	queue  Queue
	store  *Store
	logger *logging.Logger

	waitSeconds int
	batchSize   int
	wg          sync.WaitGroup
}

// NewWorker creates a queue drain worker.
func NewWorker(queue Queue, store *Store, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:       queue,
		store:       store,
		logger:      logger,
		waitSeconds: defaultWaitSeconds,
		batchSize:   defaultBatchSize,
	}
}

// Start launches the drain loop. Cancel ctx to stop, then Wait.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Wait blocks until the drain loop exits.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	w.logger.Debug("audit worker started")

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("audit worker stopping")
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSeconds)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive audit events", "error", err)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg Message) {
	var event Event
	if err := json.Unmarshal([]byte(msg.Body), &event); err != nil {
		// Undecodable messages are dropped so they cannot poison the queue.
		w.logger.Error("failed to decode audit event", "error", err)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	if err := w.store.Insert(ctx, event); err != nil {
		// Leave the message for redelivery.
		w.logger.Error("failed to store audit event", "event_id", event.ID, "error", err)
		return
	}
	w.deleteMessage(msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete audit message", "error", err)
	}
}
