// Package mock provides an in-memory document publisher for local
// development and tests. Payloads are logged and kept in memory.
package mock

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"voice-notes-service/internal/models"
)

// Publisher implements publish.Publisher without a remote store.
type Publisher struct {
	mu       sync.Mutex
	err      error
	payloads []models.DocumentPayload
}

// New creates a new mock publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every following Publish call return err. Nil restores success.
func (p *Publisher) FailWith(err error) *Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// Name returns the destination name.
func (p *Publisher) Name() string {
	return "mock"
}

// Publish records the payload, or returns the configured failure.
func (p *Publisher) Publish(ctx context.Context, payload models.DocumentPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)

	zerolog.Ctx(ctx).Info().
		Str("title", payload.Title).
		Int("blocks", len(payload.Blocks)).
		Msg("Document published (mock)")
	return nil
}

// Payloads returns every accepted payload in publish order.
func (p *Publisher) Payloads() []models.DocumentPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.DocumentPayload(nil), p.payloads...)
}
