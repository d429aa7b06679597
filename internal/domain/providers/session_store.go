package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
)

// ErrSessionNotFound is returned when a session is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps per-session submission state between display steps.
type SessionStore interface {
	// Save stores the submission under its ID
	Save(ctx context.Context, sub *entities.Submission) error

	// Get loads a submission by ID
	Get(ctx context.Context, id string) (*entities.Submission, error)

	// ClaimWrite reserves the record write for a session. Only one caller
	// gets true until the claim is released or expires.
	ClaimWrite(ctx context.Context, id string) (bool, error)

	// ReleaseWrite gives a claim back after a write that reached no store.
	ReleaseWrite(ctx context.Context, id string) error
}
