package web

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// errRateLimited is reported to clients that exhaust their request budget.
var errRateLimited = errors.New("rate limit exceeded")

// rateLimiter counts requests per client address in fixed windows. A
// client's window opens with its first request and admits limit requests.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*usage

	done chan struct{}
	once sync.Once
}

type usage struct {
	opened time.Time
	count  int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*usage),
		done:    make(chan struct{}),
	}
}

// newRateLimiter registers a limiter with s so Shutdown stops its sweeper.
func (s *Server) newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := newRateLimiter(limit, window)
	s.limiters = append(s.limiters, rl)
	go rl.sweep()
	return rl
}

// allow admits one request from addr. When refused it also returns how long
// until addr's window closes.
func (rl *rateLimiter) allow(addr string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u := rl.clients[addr]
	if u == nil || now.Sub(u.opened) >= rl.window {
		rl.clients[addr] = &usage{opened: now, count: 1}
		return true, 0
	}
	if u.count >= rl.limit {
		return false, u.opened.Add(rl.window).Sub(now)
	}
	u.count++
	return true, 0
}

// sweep drops closed windows once per window until stop is called.
func (rl *rateLimiter) sweep() {
	t := time.NewTicker(rl.window)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-t.C:
			rl.evict()
		}
	}
}

func (rl *rateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.window)
	for addr, u := range rl.clients {
		if u.opened.Before(cutoff) {
			delete(rl.clients, addr)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// middleware keys on RemoteAddr without its port; TrustedRealIP has already
// replaced it with the forwarded client address where that is trusted.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}

		ok, wait := rl.allow(addr)
		if !ok {
			secs := int((wait + time.Second - 1) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
