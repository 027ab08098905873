package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RefreshSessionKey returns the cache key holding a live refresh token id.
func (r *CacheKeyStruct) RefreshSessionKey(jti string) string {
	return fmt.Sprintf("auth:refresh:%s", jti)
}

// RevokedAccessKey marks an access token id as logged out.
func (r *CacheKeyStruct) RevokedAccessKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// SessionGenerationKey holds the counter bumped whenever all of a user's
// tokens are revoked. It carries no TTL so the counter never goes back.
func (r *CacheKeyStruct) SessionGenerationKey(tokenType string, userID int64) string {
	return fmt.Sprintf("auth:generation:%s:%d", tokenType, userID)
}

// MulticardTokenKey returns the cache key for the gateway bearer token.
func (r *CacheKeyStruct) MulticardTokenKey(applicationID string) string {
	return fmt.Sprintf("multicard:%s:token", applicationID)
}

// RateLimitKey returns the counter key for a rate-limited scope and client.
func (r *CacheKeyStruct) RateLimitKey(scope, client string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, client, window)
}

// InvoiceEventsChannel returns the Redis PubSub channel for invoice status events.
func (r *CacheKeyStruct) InvoiceEventsChannel() string {
	return "invoices:events"
}

var CacheKey = NewCacheKeyStruct()
