package state

import "context"

// Repository loads and saves checkpoints.
type Repository interface {
	// Load returns the saved state, or an empty State when none exists.
	Load(ctx context.Context) (State, error)

	// Save persists state atomically.
	Save(ctx context.Context, state State) error
}
