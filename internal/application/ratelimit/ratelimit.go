// Package ratelimit throttles inbound requests per client address.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"storefront-bff/internal/application/translate"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const MessageTooManyRequests = "Too many requests"

type peerKey struct{}

// Peer records the connection's own address before any middleware rewrites
// RemoteAddr from forwarding headers. Clients are keyed on it.
func Peer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*entry
	rate    rate.Limit
	burst   int
	logger  *slog.Logger
	now     func() time.Time
}

func New(logger *slog.Logger, rps float64, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*entry),
		rate:    rate.Limit(rps),
		burst:   burst,
		logger:  logger,
		now:     time.Now,
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = l.now()
	return e.limiter.AllowN(e.lastSeen, 1)
}

// Handler rejects requests over the per-client budget with 429. A nil
// limiter lets everything through.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !l.allow(key) {
			l.logger.WarnContext(r.Context(), "rate limit exceeded",
				"client", key,
				"method", r.Method,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", "1")
			translate.Write(w, translate.Error(http.StatusTooManyRequests, MessageTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Sweep drops clients idle for longer than idle.
func (l *Limiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for key, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle clients until done is closed.
func (l *Limiter) Run(done <-chan struct{}, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			l.Sweep(idle)
		}
	}
}

func clientKey(r *http.Request) string {
	addr, ok := r.Context().Value(peerKey{}).(string)
	if !ok {
		addr = r.RemoteAddr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
