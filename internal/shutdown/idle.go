// Package shutdown stops an idle server so the platform can scale it to zero.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// BusyFunc reports whether background work is in progress.
type BusyFunc func() bool

// IdleMonitorConfig holds configuration for the idle monitor.
type IdleMonitorConfig struct {
	// Timeout is the quiet period before shutdown. 0 disables the monitor.
	Timeout time.Duration
	Logger  *slog.Logger
	// ExcludePaths are path prefixes that do not count as activity (probes).
	ExcludePaths []string
	// Busy keeps the server up while it returns true, e.g. while a
	// synthesis call is still running.
	Busy BusyFunc
	// CheckInterval overrides the polling interval. Zero derives it from Timeout.
	CheckInterval time.Duration
}

// IdleMonitor tracks request activity and closes Done once the server has
// been idle for the configured timeout.
type IdleMonitor struct {
	cfg    IdleMonitorConfig
	active atomic.Int64

	mu           sync.Mutex
	lastActivity time.Time

	done     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIdleMonitor creates a new idle monitor.
func NewIdleMonitor(cfg IdleMonitorConfig) *IdleMonitor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = min(max(cfg.Timeout/6, 5*time.Second), 30*time.Second)
	}
	return &IdleMonitor{
		cfg:          cfg,
		lastActivity: time.Now(),
		done:         make(chan struct{}),
		stop:         make(chan struct{}),
	}
}

// Enabled reports whether the monitor will ever signal.
func (m *IdleMonitor) Enabled() bool {
	return m.cfg.Timeout > 0
}

// Start begins monitoring.
func (m *IdleMonitor) Start() {
	if !m.Enabled() {
		return
	}
	m.cfg.Logger.Info("idle monitoring started", "timeout", m.cfg.Timeout, "exclude_paths", m.cfg.ExcludePaths)
	go m.run()
}

// Stop stops the monitor without signalling.
func (m *IdleMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Done is closed when the idle timeout is reached.
func (m *IdleMonitor) Done() <-chan struct{} {
	return m.done
}

// Middleware counts in-flight requests, skipping excluded paths.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range m.cfg.ExcludePaths {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		m.active.Add(1)
		m.touch()
		defer func() {
			m.active.Add(-1)
			m.touch()
		}()
		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) touch() {
	m.mu.Lock()
	m.lastActivity = time.Now()
	m.mu.Unlock()
}

func (m *IdleMonitor) idleFor() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

func (m *IdleMonitor) run() {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			busy := m.cfg.Busy != nil && m.cfg.Busy()
			if m.active.Load() > 0 || busy {
				// A full quiet period is required after work finishes.
				m.touch()
				continue
			}

			if idle := m.idleFor(); idle >= m.cfg.Timeout {
				m.cfg.Logger.Info("idle timeout reached, signaling graceful shutdown",
					"idle_time", idle,
					"timeout", m.cfg.Timeout,
				)
				close(m.done)
				return
			}
		}
	}
}
