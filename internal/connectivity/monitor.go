// Package connectivity tracks the reachability of the TexEdit backend.
// A Monitor owns the process-wide connection state and is its only mutation
// path: it probes the backend's health endpoint on a fixed interval, counts
// consecutive failures, and escalates to the error state once the retry
// ceiling is reached. Consumers read snapshots and subscribe to transitions.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"texedit/internal/config"
	"texedit/internal/logger"
	"texedit/pkg/textypes"
)

// Prober performs one health exchange with its own timeout. The request
// client satisfies this interface.
type Prober interface {
	Health(ctx context.Context) error
}

// SubscriptionID identifies one observer registration.
type SubscriptionID string

// StatusFunc receives connection state transitions.
type StatusFunc func(textypes.ConnectionState)

// ReadyFunc is invoked when the monitor transitions into the connected state.
type ReadyFunc func()

// Monitor polls the backend health endpoint and maintains the connectivity
// state machine. All state writes are serialized through one mutex; probes
// run off the timer goroutine so a slow probe never blocks tick bookkeeping.
type Monitor struct {
	mu sync.Mutex

	prober       Prober
	pollInterval time.Duration
	maxRetries   int

	state               textypes.ConnectionState
	consecutiveFailures int
	probeInFlight       bool
	running             bool

	cancel  context.CancelFunc
	done    chan struct{}
	probeWG sync.WaitGroup

	statusSubs map[SubscriptionID]StatusFunc
	readySubs  map[SubscriptionID]ReadyFunc

	log *log.Logger
}

// NewMonitor creates a monitor in the disconnected state. Monitoring does
// not start until StartMonitoring is called.
func NewMonitor(prober Prober, cfg *config.Config) *Monitor {
	return &Monitor{
		prober:       prober,
		pollInterval: cfg.PollInterval,
		maxRetries:   cfg.MaxRetries,
		state:        textypes.StateDisconnected,
		statusSubs:   make(map[SubscriptionID]StatusFunc),
		readySubs:    make(map[SubscriptionID]ReadyFunc),
		log:          logger.NewStyledLogger("Monitor"),
	}
}

// Status returns a snapshot of the current connection state.
func (m *Monitor) Status() textypes.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsReady reports whether the backend is usable right now.
func (m *Monitor) IsReady() bool {
	return m.Status() == textypes.StateConnected
}

// ConsecutiveFailures returns the current failure streak length.
func (m *Monitor) ConsecutiveFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consecutiveFailures
}

// Subscribe registers a callback fired exactly once per actual state
// transition. It returns a handle for Unsubscribe.
func (m *Monitor) Subscribe(fn StatusFunc) SubscriptionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := SubscriptionID(uuid.NewString())
	m.statusSubs[id] = fn
	return id
}

// SubscribeReady registers a callback fired each time the monitor enters
// the connected state.
func (m *Monitor) SubscribeReady(fn ReadyFunc) SubscriptionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := SubscriptionID(uuid.NewString())
	m.readySubs[id] = fn
	return id
}

// Unsubscribe removes a registration. Unknown handles are ignored.
func (m *Monitor) Unsubscribe(id SubscriptionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statusSubs, id)
	delete(m.readySubs, id)
}

// StartMonitoring begins periodic health probing. Calling it while already
// running is a no-op.
func (m *Monitor) StartMonitoring() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.done = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	notify := m.setStateLocked(textypes.StateConnecting)
	m.mu.Unlock()

	m.log.Info("Starting health monitoring", "interval", m.pollInterval.String(), "max_retries", m.maxRetries)
	fire(notify)

	go m.run(ctx)
}

// StopMonitoring cancels the probe timer and aborts any in-flight probe.
// The connection state is left as-is; a stopped monitor reports its last
// observed state.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	m.log.Info("Stopping health monitoring")
	cancel()
	<-done
	// A probe launched just before cancellation may still be running.
	m.probeWG.Wait()
}

// Retry recovers from the error state: it resets the failure counter,
// transitions back to connecting, and probes immediately. Outside the error
// state it is a no-op.
func (m *Monitor) Retry() {
	m.mu.Lock()
	if m.state != textypes.StateError {
		m.mu.Unlock()
		return
	}
	m.consecutiveFailures = 0
	notify := m.setStateLocked(textypes.StateConnecting)
	running := m.running
	launch := false
	if running && !m.probeInFlight {
		m.probeInFlight = true
		m.probeWG.Add(1)
		launch = true
	}
	m.mu.Unlock()

	m.log.Info("Retrying backend connection")
	fire(notify)
	if launch {
		go m.probe(context.Background())
	}
}

// run is the timer loop. Ticks that arrive while a probe is outstanding are
// skipped, and no probes are launched while in the error state.
func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	m.launchProbe(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.launchProbe(ctx)
		}
	}
}

// launchProbe starts one probe unless a probe is already pending or the
// machine is in the error state.
func (m *Monitor) launchProbe(ctx context.Context) {
	m.mu.Lock()
	if m.probeInFlight {
		m.mu.Unlock()
		m.log.Debug("Health probe already in progress, skipping tick")
		return
	}
	if m.state == textypes.StateError {
		m.mu.Unlock()
		return
	}
	m.probeInFlight = true
	m.probeWG.Add(1)
	m.mu.Unlock()

	go m.probe(ctx)
}

// probe performs one health exchange and feeds the result into the state
// machine. The prober enforces its own timeout, shorter than the interval.
func (m *Monitor) probe(ctx context.Context) {
	defer m.probeWG.Done()
	err := m.prober.Health(ctx)
	m.applyProbeResult(err)
}

// applyProbeResult advances the state machine for one probe outcome.
func (m *Monitor) applyProbeResult(err error) {
	m.mu.Lock()
	m.probeInFlight = false

	if !m.running {
		// Stopped while the probe was in flight; the result no longer
		// matters.
		m.mu.Unlock()
		return
	}

	var notify []func()
	if err == nil {
		m.consecutiveFailures = 0
		notify = m.setStateLocked(textypes.StateConnected)
	} else {
		m.consecutiveFailures++
		failures := m.consecutiveFailures
		switch {
		case m.state == textypes.StateConnected:
			// A connected backend that stops answering drops back
			// to connecting; the counter has begun a fresh streak.
			notify = m.setStateLocked(textypes.StateConnecting)
		case failures >= m.maxRetries:
			notify = m.setStateLocked(textypes.StateError)
		default:
			notify = m.setStateLocked(textypes.StateConnecting)
		}
		m.mu.Unlock()
		m.log.Debug("Health probe failed", "error", err, "consecutive_failures", failures)
		fire(notify)
		return
	}
	m.mu.Unlock()
	fire(notify)
}

// setStateLocked transitions to the given state if it differs from the
// current one and returns the notifications to fire after the lock is
// released. Callbacks never run under the monitor's mutex.
func (m *Monitor) setStateLocked(next textypes.ConnectionState) []func() {
	if m.state == next {
		return nil
	}
	m.state = next
	m.log.Debug("Connection state changed", "state", next.String())

	var notify []func()
	for _, fn := range m.statusSubs {
		fn := fn
		notify = append(notify, func() { fn(next) })
	}
	if next == textypes.StateConnected {
		for _, fn := range m.readySubs {
			notify = append(notify, fn)
		}
	}
	return notify
}

func fire(notify []func()) {
	for _, fn := range notify {
		fn()
	}
}
