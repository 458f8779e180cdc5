package storage

import (
	"context"

	"github.com/mcoot/mindgym/internal/model"
)

// Storage is session-scoped key/value persistence for player state.
// Everything stored for a token is dropped by DeleteSession.
type Storage interface {
	// Profile operations. The profile is stored as an opaque serialized document
	// so callers can detect and discard corrupt state.
	SaveProfile(ctx context.Context, token model.SessionToken, data []byte) error
	GetProfile(ctx context.Context, token model.SessionToken) ([]byte, error)
	DeleteProfile(ctx context.Context, token model.SessionToken) error

	// Authentication marker operations
	SetAuthenticated(ctx context.Context, token model.SessionToken) error
	IsAuthenticated(ctx context.Context, token model.SessionToken) (bool, error)
	ClearAuthenticated(ctx context.Context, token model.SessionToken) error

	// Touch extends the lifetime of everything held for the token on
	// backends that expire keys themselves
	Touch(ctx context.Context, token model.SessionToken) error

	// DeleteSession removes every key held for the token
	DeleteSession(ctx context.Context, token model.SessionToken) error
}

// Key names of the persisted session layout
const (
	KeyProfile       = "profile"
	KeyAuthenticated = "authenticated"
)
