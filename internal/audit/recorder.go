package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// Recorder publishes audit events without propagating failures. Provenance
// is best effort: a full queue or an unreachable broker is logged and the
// caller proceeds.
type Recorder struct {
	queue  Queue
	logger *logging.Logger
}

// NewRecorder creates a Recorder. A nil queue disables recording.
func NewRecorder(queue Queue, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{queue: queue, logger: logger}
}

// Record enqueues one event. Missing ID and timestamp are filled in.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.queue == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("audit: failed to encode event", "type", event.Type, "error", err)
		return
	}
	if err := r.queue.Send(ctx, string(body)); err != nil {
		r.logger.Error("audit: failed to enqueue event", "type", event.Type, "error", err)
	}
}
