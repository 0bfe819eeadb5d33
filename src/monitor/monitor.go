// Package monitor polls the session status endpoint and ends the local
// session as soon as the server reports it invalid or replaced.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/khabaroff/portfolio-site/src/logging"
)

// Defaults for the polling loop
const (
	DefaultInterval      = 15 * time.Second
	DefaultRedirectDelay = 3 * time.Second
	logoutTimeout        = 5 * time.Second
)

// Reason explains why the monitor terminated the session
type Reason string

const (
	// ReasonInvalid means the server no longer accepts the token
	ReasonInvalid Reason = "invalid"
	// ReasonSuperseded means a newer login took over the account
	ReasonSuperseded Reason = "superseded"
)

// ServerReasonSuperseded is the reason the server gives when a newer login
// replaced the session
const ServerReasonSuperseded = "Session replaced by newer login"

// Status is the server's answer to a session check
type Status struct {
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// StatusChecker talks to the server on behalf of the monitor.
// CheckSession returns an error only for transient failures; an explicit
// "not valid" answer is a Status with Valid=false.
type StatusChecker interface {
	CheckSession(ctx context.Context) (Status, error)
	Logout(ctx context.Context) error
}

// Config configures a Monitor
type Config struct {
	Checker       StatusChecker
	Interval      time.Duration
	RedirectDelay time.Duration
	Clock         Clock

	// OnTerminated runs once when the session is found dead
	OnTerminated func(reason Reason, serverReason string)
	// OnRedirect runs RedirectDelay after termination unless Stop was called
	OnRedirect func()
}

// Monitor is a single polling loop for one client session
type Monitor struct {
	cfg    Config
	logger zerolog.Logger

	cancel   context.CancelFunc
	inFlight atomic.Bool
	ended    atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	known    string
	reason   Reason
	redirect Timer
	stopped  bool
}

// New creates a monitor; call Start to begin polling
func New(cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultRedirectDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	return &Monitor{
		cfg:    cfg,
		logger: logging.NewLogger("session_monitor"),
		done:   make(chan struct{}),
	}
}

// Start runs an immediate check and then one per interval until the
// session ends, Stop is called, or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	ticker := m.cfg.Clock.NewTicker(m.cfg.Interval)

	m.tick(ctx)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				m.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends polling and cancels a pending redirect
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.ended.Store(true)
		if m.cancel != nil {
			m.cancel()
		}
		m.mu.Lock()
		m.stopped = true
		if m.redirect != nil {
			m.redirect.Stop()
		}
		m.mu.Unlock()
		m.finish()
	})
}

// Done is closed once the monitor has redirected or been stopped
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Terminated reports whether and why the session was ended
func (m *Monitor) Terminated() (Reason, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason, m.reason != ""
}

// SessionID returns the session id remembered from the first valid check
func (m *Monitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.known
}

// tick starts a check unless one is still outstanding
func (m *Monitor) tick(ctx context.Context) {
	if m.ended.Load() {
		return
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		m.logger.Debug().Msg("previous session check still running, skipping tick")
		return
	}
	go func() {
		defer m.inFlight.Store(false)
		m.check(ctx)
	}()
}

func (m *Monitor) check(ctx context.Context) {
	status, err := m.cfg.Checker.CheckSession(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn().Err(err).Msg("session check failed, retrying next tick")
		}
		return
	}

	if !status.Valid {
		m.terminate(m.classify(status), status.Reason)
		return
	}

	m.mu.Lock()
	if m.known == "" {
		m.known = status.SessionID
		m.mu.Unlock()
		m.logger.Debug().Str("session", logging.Redact(status.SessionID)).Msg("session id remembered")
		return
	}
	superseded := status.SessionID != m.known
	m.mu.Unlock()

	if superseded {
		m.terminate(ReasonSuperseded, status.Reason)
	}
}

// classify tells a replaced session apart from a dead one
func (m *Monitor) classify(status Status) Reason {
	if status.Reason == ServerReasonSuperseded {
		return ReasonSuperseded
	}
	m.mu.Lock()
	known := m.known
	m.mu.Unlock()
	if known != "" && status.SessionID != "" && status.SessionID != known {
		return ReasonSuperseded
	}
	return ReasonInvalid
}

// terminate ends the session exactly once
func (m *Monitor) terminate(reason Reason, serverReason string) {
	if !m.ended.CompareAndSwap(false, true) {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}

	m.mu.Lock()
	m.reason = reason
	m.mu.Unlock()

	m.logger.Info().Str("reason", string(reason)).Str("server_reason", serverReason).Msg("session terminated")

	logoutCtx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	if err := m.cfg.Checker.Logout(logoutCtx); err != nil {
		m.logger.Debug().Err(err).Msg("best-effort logout failed")
	}
	cancel()

	if m.cfg.OnTerminated != nil {
		m.cfg.OnTerminated(reason, serverReason)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.redirect = m.cfg.Clock.AfterFunc(m.cfg.RedirectDelay, func() {
		if m.cfg.OnRedirect != nil {
			m.cfg.OnRedirect()
		}
		m.finish()
	})
}

func (m *Monitor) finish() {
	m.doneOnce.Do(func() { close(m.done) })
}
