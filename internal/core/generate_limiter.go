package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTooManyGenerations is returned when no generation slot frees up within
// the limiter's wait time.
var ErrTooManyGenerations = errors.New("too many concurrent generations, please try again later")

const (
	// DefaultMaxConcurrent applies when the configured slot count is not positive.
	DefaultMaxConcurrent = 4
	// DefaultMaxWaitTime applies when the configured wait is not positive.
	DefaultMaxWaitTime = 10 * time.Second
)

// GenerateLimiter caps how many list loads and workbook builds run at once.
// Free slots are tokens in a buffered channel; a caller takes one to start
// and hands it back through Release.
type GenerateLimiter struct {
	tokens  chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed whenever active is zero

	served   atomic.Uint64
	rejected atomic.Uint64
}

// NewGenerateLimiter returns a limiter with maxConcurrent slots. Zero or
// negative arguments fall back to the package defaults.
func NewGenerateLimiter(maxConcurrent int, maxWait time.Duration) *GenerateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	l := &GenerateLimiter{
		tokens:  make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    make(chan struct{}),
	}
	for range maxConcurrent {
		l.tokens <- struct{}{}
	}
	close(l.idle)
	return l
}

// Acquire takes a slot, waiting at most the limiter's wait time. It returns
// ctx.Err() if the caller gives up first and ErrTooManyGenerations if the
// wait runs out. Every nil return must be paired with Release.
func (l *GenerateLimiter) Acquire(ctx context.Context) error {
	if l.TryAcquire() {
		return nil
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case <-l.tokens:
		l.begin()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		l.rejected.Add(1)
		return ErrTooManyGenerations
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *GenerateLimiter) TryAcquire() bool {
	select {
	case <-l.tokens:
		l.begin()
		return true
	default:
		return false
	}
}

func (l *GenerateLimiter) begin() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *GenerateLimiter) Release() {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		panic("core: GenerateLimiter.Release without a matching Acquire")
	}
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	l.served.Add(1)
	l.tokens <- struct{}{}
}

// ActiveCount reports how many slots are held.
func (l *GenerateLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Available reports how many slots are free.
func (l *GenerateLimiter) Available() int {
	return len(l.tokens)
}

// WaitForDrain returns once no slot is held, or with ctx.Err() if ctx ends
// first. Used on shutdown so in-flight downloads can finish.
func (l *GenerateLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is the limiter snapshot served by the health endpoint.
type LimiterStatus struct {
	Active        int    `json:"active"`
	Available     int    `json:"available"`
	MaxConcurrent int    `json:"max_concurrent"`
	Served        uint64 `json:"served"`
	Rejected      uint64 `json:"rejected"`
}

// Status takes a snapshot of slot usage and lifetime counters.
func (l *GenerateLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.tokens),
		Served:        l.served.Load(),
		Rejected:      l.rejected.Load(),
	}
}
