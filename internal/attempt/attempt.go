// Package attempt persists suspended authentication attempts between the
// two turns of the collection handshake. The decision core never imports
// this package; it belongs to the host assembly.
package attempt

import (
	"context"
	"time"

	"github.com/google/uuid"

	"riskgate/internal/pipeline"
)

// Attempt is one suspended run of the pipeline: its per-attempt state plus
// the stage it resumes at.
type Attempt struct {
	ID        string                `json:"id"`
	State     *pipeline.AuthContext `json:"state"`
	NextStage int                   `json:"next_stage"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// New creates an attempt with a fresh id and the given lifetime.
func New(state *pipeline.AuthContext, ttl time.Duration) *Attempt {
	now := time.Now()
	return &Attempt{
		ID:        uuid.NewString(),
		State:     state,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the attempt outlived its TTL at the given time.
func (a *Attempt) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// Store persists suspended attempts. Implementations return
// sentinel.ErrNotFound (optionally wrapped) when the attempt does not
// exist or has expired.
type Store interface {
	Save(ctx context.Context, attempt *Attempt) error
	Find(ctx context.Context, id string) (*Attempt, error)
	Delete(ctx context.Context, id string) error
}
