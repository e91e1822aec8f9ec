package config

import (
	"strings"
	"time"
)

// CacheConfig drives the Redis response cache placed in front of the
// public villa listing reads.  Only GET requests whose path starts with
// one of Paths are cached; TTL stays short because hosts edit listings.
type CacheConfig struct {
	Enabled      bool
	Paths        []string
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Paths:        envList("CACHE_PATHS", "/api/villas/"),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "villa-cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// Cacheable reports whether path falls under a cached prefix.
func (c CacheConfig) Cacheable(path string) bool {
	for _, p := range c.Paths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
