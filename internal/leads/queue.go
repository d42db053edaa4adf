package leads

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/showcase-api/internal/obs"
)

// TaskDeliver is the asynq task type for background lead delivery.
const TaskDeliver = "lead:deliver"

// QueueName is the asynq queue lead tasks run on.
const QueueName = "leads"

// NewDeliverTask wraps a lead in an asynq task. Delivery is attempted once;
// a failed chain already tried every fallback.
func NewDeliverTask(lead Lead) (*asynq.Task, error) {
	payload, err := json.Marshal(lead)
	if err != nil {
		return nil, fmt.Errorf("leads: encode task: %w", err)
	}
	return asynq.NewTask(TaskDeliver, payload, asynq.MaxRetry(0), asynq.Queue(QueueName), asynq.TaskID(lead.ID)), nil
}

// Enqueuer is the subset of *asynq.Client used to queue leads.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueue queues the lead for the worker.
func Enqueue(ctx context.Context, q Enqueuer, lead Lead) error {
	task, err := NewDeliverTask(lead)
	if err != nil {
		return err
	}
	if _, err := q.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("leads: enqueue: %w", err)
	}
	obs.RecordLeadEnqueued()
	return nil
}

// TaskHandler runs queued leads through the chain.
type TaskHandler struct {
	Chain  Chain
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var lead Lead
	if err := json.Unmarshal(t.Payload(), &lead); err != nil {
		return fmt.Errorf("leads: decode task: %w: %w", err, asynq.SkipRetry)
	}
	receipt, err := h.Chain.Submit(ctx, lead)
	if err != nil {
		return err
	}
	if receipt.Mailto != "" {
		// nobody is left to open the link in the background
		h.Logger.Error().Str("lead_id", lead.ID).Msg("lead only reached the mailto fallback")
	}
	return nil
}
