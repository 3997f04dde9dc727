package utils

import (
	"sync"
	"time"
)

var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
)

// BlacklistToken revokes a token until its natural expiry.
func BlacklistToken(token string) {
	expiry := time.Now().Add(jwtExpiration)
	if claims, err := ParseToken(token); err == nil && claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[token] = expiry
}

func IsTokenBlacklisted(token string) bool {
	blacklistMutex.RLock()
	expiry, exists := blacklistedTokens[token]
	blacklistMutex.RUnlock()

	if !exists {
		return false
	}
	if time.Now().Before(expiry) {
		return true
	}

	blacklistMutex.Lock()
	delete(blacklistedTokens, token)
	blacklistMutex.Unlock()
	return false
}

// CleanupBlacklist drops expired entries; scheduled by the services package.
func CleanupBlacklist() int {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()

	removed := 0
	now := time.Now()
	for token, expiry := range blacklistedTokens {
		if now.After(expiry) {
			delete(blacklistedTokens, token)
			removed++
		}
	}
	return removed
}
