package publisher

import (
	"context"
	"sync"

	"github.com/fjod/cart-engine/internal/domain"
	"go.uber.org/zap"
)

// Recorder keeps confirmations in memory. It is the sink used when no broker is configured.
type Recorder struct {
	mu    sync.Mutex
	items []domain.Confirmation
	log   *zap.Logger
}

func NewRecorder(log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{log: log}
}

func (r *Recorder) Publish(_ context.Context, c domain.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, c)
	r.log.Info("confirmation recorded", zap.String("confirmation_id", c.ID), zap.String("owner", c.OwnerKey.String()))
	return nil
}

// Confirmations returns a copy of everything recorded so far, oldest first.
func (r *Recorder) Confirmations() []domain.Confirmation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Confirmation(nil), r.items...)
}

func (r *Recorder) Close() error {
	return nil
}
