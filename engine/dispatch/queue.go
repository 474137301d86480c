package dispatch

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/aibroker/support-assistant/pkg/natsutil"
)

// ProcessSubject is the NATS subject accepted jobs are queued on.
const ProcessSubject = "assist.process"

// Queue hands accepted jobs off for background processing.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// NATSQueue publishes jobs to NATS. The webhook returns as soon as the
// publish succeeds; the consumer does the actual retrieval.
type NATSQueue struct {
	nc *nats.Conn
}

// NewNATSQueue creates a queue on the given connection.
func NewNATSQueue(nc *nats.Conn) *NATSQueue {
	return &NATSQueue{nc: nc}
}

// Enqueue publishes the job to ProcessSubject.
func (q *NATSQueue) Enqueue(ctx context.Context, job Job) error {
	return natsutil.Publish(ctx, q.nc, ProcessSubject, job)
}

// Processor consumes queued jobs. Implemented by assist.Service.
type Processor interface {
	Process(ctx context.Context, conversationID int64, messageText string) bool
}

// StartConsumer subscribes to ProcessSubject and runs each job through
// the processor. Per-job failures are logged by the processor itself;
// the consumer only records the outcome.
func StartConsumer(nc *nats.Conn, proc Processor, logger *slog.Logger) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return natsutil.Subscribe(nc, ProcessSubject, func(ctx context.Context, job Job) {
		ok := proc.Process(ctx, job.ConversationID, job.Content)
		if !ok {
			logger.Warn("job processing failed", "conversation_id", job.ConversationID)
		}
	})
}
