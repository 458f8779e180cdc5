package model

import "time"

// SessionToken identifies one player session and its persisted state
type SessionToken string

// SessionInfo describes a live session without exposing its store
type SessionInfo struct {
	Token     SessionToken
	UserID    UserID
	CreatedAt time.Time
	ExpiresAt time.Time
}
