// Package monitor periodically checks that the control plane is reachable.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/utils/clock"
)

// VersionChecker is the slice of cluster.Client the poller depends on.
type VersionChecker interface {
	ServerVersion(ctx context.Context) (string, error)
}

// Poller re-checks the control-plane version on a fixed interval
type Poller struct {
	client VersionChecker
	config Config
	log    *zap.Logger
	clock  clock.WithTicker

	mu          sync.RWMutex
	state       State
	connStatus  ConnectionStatus
	version     string
	lastErr     string
	lastCheck   time.Time
	checkCount  int
	failedCount int
}

// Option customizes a Poller.
type Option func(*Poller)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.WithTicker) Option {
	return func(p *Poller) { p.clock = c }
}

// NewPoller creates a new control-plane poller
func NewPoller(client VersionChecker, config Config, log *zap.Logger, opts ...Option) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	p := &Poller{
		client: client,
		config: config,
		log:    log,
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs a startup check, then one check per interval until ctx is
// cancelled. Check failures are logged and never stop the loop. A check
// already in flight when ctx is cancelled runs to completion.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// In-flight checks are not cancelled by shutdown.
	checkCtx := context.WithoutCancel(ctx)

	p.check(checkCtx, zapcore.InfoLevel)

	p.log.Info("scheduled control plane checks", zap.Duration("interval", p.config.Interval))
	for {
		select {
		case <-ctx.Done():
			p.log.Info("control plane checks stopped")
			return nil
		case <-ticker.C():
			p.setState(StateDue)
			p.check(checkCtx, p.config.CheckLevel)
		}
	}
}

// GetState returns the current poller state
func (p *Poller) GetState() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return Snapshot{
		State:       p.state,
		Connection:  p.connStatus,
		Version:     p.version,
		LastError:   p.lastErr,
		LastCheck:   p.lastCheck,
		CheckCount:  p.checkCount,
		FailedCount: p.failedCount,
	}
}

// check runs one version query and records the outcome.
func (p *Poller) check(ctx context.Context, level zapcore.Level) {
	p.setState(StateRunning)
	defer p.setState(StateIdle)

	version, err := p.client.ServerVersion(ctx)
	if err != nil {
		p.setConnectionError(err)
		p.log.Warn("failed to get Kubernetes version", zap.Error(err))
		return
	}

	p.setConnectionOK(version)
	if ce := p.log.Check(level, "Kubernetes API server version"); ce != nil {
		ce.Write(zap.String("version", version))
	}
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// setConnectionError records a failed check and logs the transition to
// unreachable once.
func (p *Poller) setConnectionError(err error) {
	p.mu.Lock()
	changed := p.connStatus == ConnectionOK
	p.connStatus = ConnectionUnreachable
	p.lastErr = err.Error()
	p.lastCheck = p.clock.Now()
	p.checkCount++
	p.failedCount++
	p.mu.Unlock()

	if changed {
		p.log.Warn("control plane became unreachable")
	}
}

// setConnectionOK records a successful check and logs recovery once.
func (p *Poller) setConnectionOK(version string) {
	p.mu.Lock()
	recovered := p.connStatus == ConnectionUnreachable
	p.connStatus = ConnectionOK
	p.version = version
	p.lastErr = ""
	p.lastCheck = p.clock.Now()
	p.checkCount++
	p.mu.Unlock()

	if recovered {
		p.log.Info("control plane connection restored", zap.String("version", version))
	}
}
