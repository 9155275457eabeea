// Package ratelimit provides per-client request limiting using token buckets.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Class groups routes by how aggressively they are limited. Run creation
// is the most constrained surface; auth endpoints are next so credential
// stuffing stays expensive.
type Class string

const (
	ClassAuth      Class = "auth"
	ClassRunCreate Class = "run_create"
	ClassGeneral   Class = "general"
	ClassUnlimited Class = "unlimited"
)

// ClassFor maps a request to its rate limit class.
func ClassFor(method, path string) Class {
	switch {
	case path == "/health":
		return ClassUnlimited
	case strings.HasPrefix(path, "/auth/"):
		return ClassAuth
	case method == "POST" && path == "/runs":
		return ClassRunCreate
	default:
		return ClassGeneral
	}
}

// classLimit defines a bucket shape: limit requests per window with a
// burst capacity.
type classLimit struct {
	limit  int
	window time.Duration
	burst  int
}

var classLimits = map[Class]classLimit{
	ClassAuth:      {limit: 10, window: time.Minute, burst: 5},
	ClassRunCreate: {limit: 5, window: time.Minute, burst: 2},
	ClassGeneral:   {limit: 120, window: time.Minute, burst: 30},
}

// Info describes the limit decision for response headers.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// bucket is one client's token bucket for one class.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func (b *bucket) take(now time.Time) (bool, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, b.tokens
	}
	return false, b.tokens
}

// Limiter manages buckets for all clients.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	lastAccess map[string]time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup loop.
func NewLimiter() *Limiter {
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		lastAccess: make(map[string]time.Time),
		stop:       make(chan struct{}),
	}
	go l.cleanupLoop(5 * time.Minute)
	return l
}

// Allow decides whether the client may make this request.
func (l *Limiter) Allow(clientID, method, path string) (bool, Info) {
	class := ClassFor(method, path)
	if class == ClassUnlimited {
		return true, Info{Allowed: true}
	}
	shape := classLimits[class]

	now := time.Now()
	key := clientID + ":" + string(class)

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			capacity:   float64(shape.burst + shape.limit),
			refillRate: float64(shape.limit) / shape.window.Seconds(),
			tokens:     float64(shape.burst + shape.limit),
			lastRefill: now,
		}
		l.buckets[key] = b
	}
	l.lastAccess[key] = now
	l.mu.Unlock()

	allowed, remaining := b.take(now)

	info := Info{
		Allowed:   allowed,
		Limit:     shape.limit,
		Remaining: int(remaining),
	}
	if !allowed {
		secondsUntilToken := (1.0 - remaining) / b.refillRate
		info.RetryAfter = time.Duration(secondsUntilToken * float64(time.Second))
		info.ResetTime = now.Add(info.RetryAfter)
	} else {
		info.ResetTime = now
	}
	return allowed, info
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.dropIdle(time.Now().Add(-time.Hour))
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) dropIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
