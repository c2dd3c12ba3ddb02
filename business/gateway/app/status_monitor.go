package app

import (
	"context"
	"sync"
	"time"

	"github.com/helix-trading/gateway-core/internal/logger"
)

// GatewayStatus is the monitor's view of the sidecar.
type GatewayStatus int

const (
	StatusOffline GatewayStatus = iota
	StatusOnline
)

// String returns the uppercase status name.
func (s GatewayStatus) String() string {
	if s == StatusOnline {
		return "ONLINE"
	}
	return "OFFLINE"
}

// Maximum exponent applied to the backoff base.
const maxBackoffShift = 5

// StatusMonitor probes the sidecar's liveness, classifies it ONLINE or
// OFFLINE, backs off exponentially while offline, and re-primes the
// sidecar's caches on every OFFLINE to ONLINE transition.
type StatusMonitor struct {
	sidecar SidecarAPI
	logger  logger.LoggerInterface

	baseInterval time.Duration
	maxInterval  time.Duration

	mu                  sync.Mutex
	status              GatewayStatus
	consecutiveFailures int
	currentInterval     time.Duration
	wasEverOnline       bool
	ready               chan struct{}
	readyClosed         bool

	onOnline  func()
	onOffline func()

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStatusMonitor creates a monitor in the OFFLINE state.
func NewStatusMonitor(api SidecarAPI, log logger.LoggerInterface, baseInterval, maxInterval time.Duration) *StatusMonitor {
	if baseInterval <= 0 {
		baseInterval = 2 * time.Second
	}
	if maxInterval <= 0 {
		maxInterval = 60 * time.Second
	}
	if maxInterval < baseInterval {
		maxInterval = baseInterval
	}
	return &StatusMonitor{
		sidecar:         api,
		logger:          log,
		baseInterval:    baseInterval,
		maxInterval:     maxInterval,
		status:          StatusOffline,
		currentInterval: baseInterval,
		ready:           make(chan struct{}),
	}
}

// SetCallbacks registers the transition hooks. Must be called before Start.
func (m *StatusMonitor) SetCallbacks(onOnline, onOffline func()) {
	m.mu.Lock()
	m.onOnline = onOnline
	m.onOffline = onOffline
	m.mu.Unlock()
}

// Status returns the current gateway status.
func (m *StatusMonitor) Status() GatewayStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Ready returns a channel that is closed while the gateway is online and
// replaced with an open one when it goes offline.
func (m *StatusMonitor) Ready() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// CheckOnce performs a single probe with no effect on monitor state.
func (m *StatusMonitor) CheckOnce(ctx context.Context) bool {
	return m.sidecar.Ping(ctx) == nil
}

// Start performs one immediate probe. If it fails the periodic loop is not
// started at all: a sidecar that has never been observed reachable is not
// polled indefinitely. On success the loop runs until Stop or context
// cancellation.
func (m *StatusMonitor) Start(ctx context.Context) {
	if !m.probe(ctx) {
		m.logger.Warn(ctx, "gateway unreachable on startup, monitor loop not started")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(loopCtx)
}

// Stop cancels the loop and waits for it to unwind. An HTTP probe already
// in flight is not aborted; only the next cycle is suppressed.
func (m *StatusMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *StatusMonitor) loop(ctx context.Context) {
	defer close(m.done)

	for {
		m.mu.Lock()
		interval := m.currentInterval
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		if !m.probe(ctx) {
			m.mu.Lock()
			ever := m.wasEverOnline
			m.mu.Unlock()
			if !ever {
				m.logger.Warn(ctx, "gateway never online, terminating monitor loop")
				return
			}
		}
	}
}

// probe runs one liveness check and applies the state transition rules.
// Returns whether the gateway answered.
func (m *StatusMonitor) probe(ctx context.Context) bool {
	err := m.sidecar.Ping(ctx)

	m.mu.Lock()
	if err != nil {
		m.consecutiveFailures++
		shift := m.consecutiveFailures - 1
		if shift > maxBackoffShift {
			shift = maxBackoffShift
		}
		interval := m.baseInterval * (1 << shift)
		if interval > m.maxInterval {
			interval = m.maxInterval
		}
		m.currentInterval = interval

		wentOffline := m.status == StatusOnline
		m.status = StatusOffline
		if wentOffline && m.readyClosed {
			m.ready = make(chan struct{})
			m.readyClosed = false
		}
		onOffline := m.onOffline
		m.mu.Unlock()

		if wentOffline {
			m.logger.Warn(ctx, "gateway went offline", "error", err)
			if onOffline != nil {
				onOffline()
			}
		}
		return false
	}

	m.consecutiveFailures = 0
	m.currentInterval = m.baseInterval

	cameOnline := m.status == StatusOffline
	m.status = StatusOnline
	m.wasEverOnline = true
	if cameOnline && !m.readyClosed {
		close(m.ready)
		m.readyClosed = true
	}
	onOnline := m.onOnline
	m.mu.Unlock()

	if cameOnline {
		m.logger.Info(ctx, "gateway online")

		// Best-effort warm-up: a failure only logs, status stays online.
		if err := m.sidecar.InitializeGateway(ctx); err != nil {
			m.logger.Warn(ctx, "gateway cache warm-up failed", "error", err)
		}

		if onOnline != nil {
			onOnline()
		}
	}
	return true
}

// BackoffInterval exposes the current probe interval.
func (m *StatusMonitor) BackoffInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentInterval
}
