package redis

import (
	"fmt"

	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/storage"
)

// Key prefix for all session data
const keyPrefix = "mindgym"

// sessionKey returns the Redis key for one named value of a session
func sessionKey(token model.SessionToken, name string) string {
	return fmt.Sprintf("%s:session:%s:%s", keyPrefix, token, name)
}

// profileKey returns the Redis key for a session's serialized profile
func profileKey(token model.SessionToken) string {
	return sessionKey(token, storage.KeyProfile)
}

// authenticatedKey returns the Redis key for a session's authentication marker
func authenticatedKey(token model.SessionToken) string {
	return sessionKey(token, storage.KeyAuthenticated)
}
