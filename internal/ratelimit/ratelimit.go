// Package ratelimit bounds how often the sidecar may write to the cluster.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultWindow is the tumbling window used when Config.Window is unset.
const DefaultWindow = time.Minute

// Config holds rate limiting parameters.
type Config struct {
	MaxGlobal       int           // max writes per window across all namespaces (0 = unlimited)
	MaxPerNamespace int           // max writes per namespace per window (0 = unlimited)
	Window          time.Duration // tumbling window duration
}

// Enabled reports whether any limit is set.
func (c Config) Enabled() bool {
	return c.MaxGlobal > 0 || c.MaxPerNamespace > 0
}

// Result holds the outcome of a rate limit check.
type Result struct {
	Allowed      bool   `json:"allowed"`
	DenialReason string `json:"denial_reason,omitempty"`
}

type counter struct {
	windowStart time.Time
	count       int
}

// reset starts a new window when the current one has expired.
func (c *counter) reset(now time.Time, window time.Duration) {
	if c.windowStart.IsZero() || now.After(c.windowStart.Add(window)) {
		c.windowStart = now
		c.count = 0
	}
}

// Limiter is an in-memory tumbling-window limiter. It is safe for concurrent
// use.
type Limiter struct {
	cfg   Config
	clock clock.PassiveClock

	mu          sync.Mutex
	global      counter
	perNS       map[string]*counter
	lastPrune   time.Time
	deniedTotal int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source (for tests).
func WithClock(c clock.PassiveClock) Option {
	return func(l *Limiter) { l.clock = c }
}

// New creates a Limiter.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	l := &Limiter{
		cfg:   cfg,
		clock: clock.RealClock{},
		perNS: make(map[string]*counter),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndIncrement checks both the global and the per-namespace limit. Only
// when both pass are the counters incremented.
func (l *Limiter) CheckAndIncrement(namespace string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.prune(now)

	l.global.reset(now, l.cfg.Window)
	if l.cfg.MaxGlobal > 0 && l.global.count >= l.cfg.MaxGlobal {
		l.deniedTotal++
		return Result{
			DenialReason: fmt.Sprintf("global rate limit exceeded (%d writes in %s window)", l.cfg.MaxGlobal, l.cfg.Window),
		}
	}

	ns, ok := l.perNS[namespace]
	if !ok {
		ns = &counter{}
		l.perNS[namespace] = ns
	}
	ns.reset(now, l.cfg.Window)
	if l.cfg.MaxPerNamespace > 0 && ns.count >= l.cfg.MaxPerNamespace {
		l.deniedTotal++
		return Result{
			DenialReason: fmt.Sprintf("namespace %s rate limit exceeded (%d writes in %s window)", namespace, l.cfg.MaxPerNamespace, l.cfg.Window),
		}
	}

	l.global.count++
	ns.count++
	return Result{Allowed: true}
}

// prune drops namespace counters whose window has expired, at most once per
// window.
func (l *Limiter) prune(now time.Time) {
	if !l.lastPrune.IsZero() && !now.After(l.lastPrune.Add(l.cfg.Window)) {
		return
	}
	l.lastPrune = now
	for ns, c := range l.perNS {
		if now.After(c.windowStart.Add(l.cfg.Window)) {
			delete(l.perNS, ns)
		}
	}
}

// Denied returns how many writes have been refused since start.
func (l *Limiter) Denied() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deniedTotal
}
