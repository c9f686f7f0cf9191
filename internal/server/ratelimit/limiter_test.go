package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	// 5 requests per minute, burst of 5
	l := NewLimiter(5, time.Minute, 5)
	defer l.Close()

	for i := range 5 {
		result := l.Allow("test:key")
		if !result.Allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
		if result.Limit != 5 {
			t.Errorf("expected Limit=5, got %d", result.Limit)
		}
		if result.RetryAfter != 0 {
			t.Errorf("RetryAfter should be 0 for allowed requests, got %v", result.RetryAfter)
		}
	}
	result := l.Allow("test:key")
	if result.Allowed {
		t.Error("6th request should be rate limited")
	}
	if result.Remaining != 0 {
		t.Errorf("expected Remaining=0, got %d", result.Remaining)
	}
	if result.RetryAfter < time.Second {
		t.Errorf("expected RetryAfter >= 1s, got %v", result.RetryAfter)
	}
	if !result.ResetAt.After(time.Now()) {
		t.Errorf("ResetAt %v not in the future", result.ResetAt)
	}
}

func TestLimiter_DifferentKeys(t *testing.T) {
	l := NewLimiter(5, time.Minute, 5)
	defer l.Close()

	for range 6 {
		l.Allow("key1")
	}
	if l.Allow("key1").Allowed {
		t.Error("key1 should be rate limited")
	}
	for range 5 {
		if !l.Allow("key2").Allowed {
			t.Error("key2 should not be rate limited")
		}
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	l := NewLimiter(60, time.Minute, 10)
	defer l.Close()
	l.Allow("idle")
	l.Allow("busy")
	for range 10 {
		l.Allow("busy")
	}
	// Far enough in the future for "idle" to refill; "busy" refills too, so
	// both are dropped.
	l.cleanup(time.Now().Add(time.Hour))
	l.mu.Lock()
	n := len(l.buckets)
	l.mu.Unlock()
	if n != 0 {
		t.Errorf("%d buckets left after cleanup", n)
	}
	l.Allow("fresh")
	l.cleanup(time.Now())
	l.mu.Lock()
	n = len(l.buckets)
	l.mu.Unlock()
	if n != 1 {
		t.Errorf("recent bucket dropped")
	}
}

func TestLimiter_CloseTwice(t *testing.T) {
	l := NewLimiter(1, time.Minute, 1)
	l.Close()
	l.Close()
}
