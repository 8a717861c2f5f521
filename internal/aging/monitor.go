package aging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"order-realtime/internal/models"
	"order-realtime/internal/observability"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 10 * time.Second

// ErrAlreadyRunning is returned by Start on a running monitor.
var ErrAlreadyRunning = errors.New("aging monitor already running")

// OrderProvider lists orders whose status is in the active set.
type OrderProvider interface {
	ActiveOrders(ctx context.Context) ([]models.Order, error)
}

// TimerEmitter receives one timer update per active order per tick.
type TimerEmitter interface {
	EmitOrderTimerUpdate(tenantID, orderID string, elapsedMinutes int, priority models.Priority) error
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithStateListener is called with true on start and false on stop.
func WithStateListener(fn func(running bool)) Option {
	return func(m *Monitor) { m.onState = fn }
}

// Monitor periodically turns active orders into timer updates. It is either
// stopped or running; ticks never overlap.
type Monitor struct {
	provider OrderProvider
	emitter  TimerEmitter
	interval time.Duration
	now      func() time.Time
	onState  func(bool)

	mu  sync.Mutex
	run *run
}

// run is one started-to-stopped cycle of the interval timer.
type run struct {
	cancel  context.CancelFunc
	done    chan struct{}
	stopped sync.Once
}

// NewMonitor builds a stopped monitor. A non-positive interval uses DefaultInterval.
func NewMonitor(provider OrderProvider, emitter TimerEmitter, interval time.Duration, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		provider: provider,
		emitter:  emitter,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Running reports whether the interval timer is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run != nil
}

// Start begins ticking until Stop is called or ctx is cancelled. Either way the
// monitor returns to stopped and can be started again.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	m.run = r
	go m.loop(ctx, r)

	log.Info().Dur("interval", m.interval).Msg("aging monitor started")
	if m.onState != nil {
		m.onState(true)
	}
	return nil
}

// Stop clears the timer and waits for an in-flight tick. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	r := m.run
	m.run = nil
	m.mu.Unlock()

	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

// finish moves the monitor to stopped if r is still the current run and
// reports the transition once per run.
func (m *Monitor) finish(r *run) {
	m.mu.Lock()
	if m.run == r {
		m.run = nil
	}
	m.mu.Unlock()

	r.stopped.Do(func() {
		log.Info().Msg("aging monitor stopped")
		if m.onState != nil {
			m.onState(false)
		}
	})
}

func (m *Monitor) loop(ctx context.Context, r *run) {
	defer close(r.done)
	defer m.finish(r)
	defer r.cancel()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runTick(ctx)
		}
	}
}

// runTick bounds one tick by the interval and keeps a failing tick from
// reaching the loop.
func (m *Monitor) runTick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, m.interval)
	defer cancel()

	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("aging tick panic: %v", r)
		}
		observability.ObserveAgingTick(time.Since(start), err)
		if err != nil {
			log.Error().Err(err).Msg("aging tick failed")
		}
	}()
	err = m.Tick(ctx)
}

// Tick fetches active orders once and emits a timer update for each, grouped by tenant.
// A failing tenant does not prevent the others; their errors are joined.
func (m *Monitor) Tick(ctx context.Context) error {
	ctx, span := otel.Tracer("order-realtime/aging").Start(ctx, "aging.tick")
	defer span.End()

	orders, err := m.provider.ActiveOrders(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch active orders")
		return fmt.Errorf("fetch active orders: %w", err)
	}

	now := m.now()
	byTenant := make(map[string][]models.OrderTimer)
	for _, order := range orders {
		timer := Snapshot(order, now)
		byTenant[timer.TenantID] = append(byTenant[timer.TenantID], timer)
	}

	tenants := make([]string, 0, len(byTenant))
	for tenantID := range byTenant {
		tenants = append(tenants, tenantID)
	}
	sort.Strings(tenants)

	var errs []error
	for _, tenantID := range tenants {
		if err := m.emitTenant(tenantID, byTenant[tenantID]); err != nil {
			errs = append(errs, err)
		}
	}
	span.SetAttributes(
		attribute.Int("aging.orders", len(orders)),
		attribute.Int("aging.tenants", len(tenants)),
	)

	log.Debug().Int("orders", len(orders)).Int("tenants", len(tenants)).Int("failed_tenants", len(errs)).Msg("aging tick")
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "emit timer updates")
		return err
	}
	return nil
}

func (m *Monitor) emitTenant(tenantID string, timers []models.OrderTimer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tenant %s: panic: %v", tenantID, r)
		}
	}()

	var errs []error
	for _, timer := range timers {
		observability.IncAgingOrder(string(timer.Priority))
		if emitErr := m.emitter.EmitOrderTimerUpdate(tenantID, timer.OrderID, timer.ElapsedMinutes, timer.Priority); emitErr != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", timer.OrderID, emitErr))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("tenant %s: %w", tenantID, errors.Join(errs...))
	}
	return nil
}
