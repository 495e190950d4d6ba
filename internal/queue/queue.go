package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// EmailSendsTopic carries SendJob payloads.
	EmailSendsTopic = "email_sends"

	DefaultMaxRetries = 3
)

// SendJob asks a worker to deliver one email log.
type SendJob struct {
	EmailLogID int `json:"email_log_id"`
}

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue runs handlers on goroutines with retry and linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup

	MaxRetries int
	Backoff    time.Duration
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: DefaultMaxRetries,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{
			Topic:      topic,
			Payload:    payload,
			MaxRetries: q.MaxRetries,
		}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()

	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			log.Debug().Str("topic", job.Topic).Interface("payload", job.Payload).Msg("✅ Job processed")
			return // ACK
		}

		job.RetryCount++
		log.Warn().Err(err).
			Str("topic", job.Topic).
			Interface("payload", job.Payload).
			Msgf("⚠️ Job failed (attempt %d/%d)", job.RetryCount, job.MaxRetries)

		if job.RetryCount > job.MaxRetries {
			log.Error().Str("topic", job.Topic).Interface("payload", job.Payload).
				Msgf("❌ Job permanently failed after %d retries", job.MaxRetries)
			return // No requeue
		}

		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished, including retries.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// StartEmailSendSubscriber registers handler for EmailSendsTopic.
func StartEmailSendSubscriber(q Queue, handler func(payload any) error) error {
	if err := q.Subscribe(EmailSendsTopic, handler); err != nil {
		return fmt.Errorf("subscribe %s: %w", EmailSendsTopic, err)
	}
	log.Info().Str("topic", EmailSendsTopic).Msg("📬 Email send subscriber started")
	return nil
}
