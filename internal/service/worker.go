package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/coldemail-backend/internal/queue"
)

// EmailDeliverer is the part of EmailService the worker needs.
type EmailDeliverer interface {
	DeliverQueued(ctx context.Context, emailLogID int) error
}

// Worker processes send jobs from either queue implementation.
type Worker struct {
	Deliverer EmailDeliverer
	Timeout   time.Duration
}

func NewWorker(d EmailDeliverer, timeout time.Duration) *Worker {
	return &Worker{Deliverer: d, Timeout: timeout}
}

// Handle is a queue handler. Undecodable payloads are dropped; delivery
// errors are returned so the queue retries them.
func (w *Worker) Handle(payload any) error {
	id, err := DecodeSendJob(payload)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Invalid send job, dropping")
		return nil
	}

	ctx := context.Background()
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	log.Info().Int("email_log_id", id).Msg("📩 Processing queued email")
	if err := w.Deliverer.DeliverQueued(ctx, id); err != nil {
		log.Warn().Err(err).Int("email_log_id", id).Msg("⚠️ Failed to deliver queued email")
		return err
	}
	return nil
}

// DecodeSendJob accepts a SendJob, a bare id, or a JSON body.
func DecodeSendJob(payload any) (int, error) {
	var id int
	switch p := payload.(type) {
	case queue.SendJob:
		id = p.EmailLogID
	case *queue.SendJob:
		if p != nil {
			id = p.EmailLogID
		}
	case int:
		id = p
	case []byte:
		var job queue.SendJob
		if err := json.Unmarshal(p, &job); err != nil {
			return 0, fmt.Errorf("decode send job: %w", err)
		}
		id = job.EmailLogID
	default:
		return 0, fmt.Errorf("unexpected payload type %T", payload)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid email log id %d", id)
	}
	return id, nil
}
