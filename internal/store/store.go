package store

import (
	"context"

	"github.com/nhle/atlassify/internal/model"
)

// Namespace is the key under which the application state blob is stored.
const Namespace = "atlassify-storage"

// State is the persisted application state: logged-in accounts and
// user settings.
type State struct {
	Auth     model.AuthState `json:"auth"`
	Settings model.Settings  `json:"settings"`
}

// Store defines the persistence interface for the application state.
// The state is an opaque blob; the only schema rule is that a partially
// stored settings object is merged over model.DefaultSettings on load.
type Store interface {
	LoadState(ctx context.Context) (State, error)
	SaveState(ctx context.Context, state State) error
	ClearState(ctx context.Context) error
}

// Update loads the state, applies fn and saves the result. Nothing is
// saved when fn fails.
func Update(ctx context.Context, s Store, fn func(*State) error) (State, error) {
	state, err := s.LoadState(ctx)
	if err != nil {
		return state, err
	}
	if err := fn(&state); err != nil {
		return state, err
	}
	if err := s.SaveState(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}
