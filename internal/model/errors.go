package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotAuthenticated = errors.New("session is not authenticated")

	// Storage errors
	ErrProfileNotFound = errors.New("profile not found")

	// Result errors
	ErrInvalidResult = errors.New("invalid game result")
)
