// Defines rate limit tiers and routing rules.

package ratelimit

import (
	"net/http"
	"time"

	"github.com/maruel/mdtree/internal/storage"
)

// Tier is a named limiter. Every tier is keyed by client IP.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config holds the limiter of each tier. A nil Limiter disables the tier.
type Config struct {
	Write Tier
	Read  Tier
}

// NewConfig creates the write and read tiers from requests per minute. Burst
// is a sixth of the per-minute quota; 0 per minute means unlimited.
func NewConfig(limits *storage.RateLimits) *Config {
	c := &Config{
		Write: Tier{Name: "write"},
		Read:  Tier{Name: "read"},
	}
	if n := limits.WritePerMin; n > 0 {
		c.Write.Limiter = NewLimiter(n, time.Minute, n/6)
	}
	if n := limits.ReadPerMin; n > 0 {
		c.Read.Limiter = NewLimiter(n, time.Minute, n/6)
	}
	return c
}

// Match returns the tier for a request, or nil when it is not rate limited.
func (c *Config) Match(method, path string) *Tier {
	if path == "/api/health" || path == "/metrics" {
		return nil
	}
	var t *Tier
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		t = &c.Write
	case http.MethodGet, http.MethodHead:
		t = &c.Read
	default:
		return nil
	}
	if t.Limiter == nil {
		return nil
	}
	return t
}

// Close stops all limiter cleanup goroutines.
func (c *Config) Close() {
	for _, t := range []*Tier{&c.Write, &c.Read} {
		if t.Limiter != nil {
			t.Limiter.Close()
		}
	}
}
