package cache

import (
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache: miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache; a missing key yields ErrMiss
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

const keyPrefix = "bilisentiment:"

// ContentKey is where a video's info response is cached
func ContentKey(bvid string) string {
	return keyPrefix + "view:" + bvid
}

// BlockKey marks an endpoint family as rate limited
func BlockKey(endpoint string) string {
	return keyPrefix + "block:" + endpoint
}
