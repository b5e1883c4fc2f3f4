package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/guttosm/tradebridge/internal/logger"
)

// State is the connection state owned by a Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "CONNECTED"
	}
	return "DISCONNECTED"
}

// Manager owns the single venue connection of the process.
//
// EnsureConnected is idempotent. Concurrent callers that find the connection
// down share one in-flight connect attempt. A failed attempt is not retried;
// the next caller triggers a fresh one.
type Manager struct {
	gw             Gateway
	endpoint       Endpoint
	connectTimeout time.Duration

	mu    sync.Mutex
	state State
	group singleflight.Group
	log   zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithConnectTimeout bounds a single connect attempt. Zero disables the bound.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) { m.connectTimeout = d }
}

// NewManager returns a disconnected manager for gw and ep.
func NewManager(gw Gateway, ep Endpoint, opts ...Option) *Manager {
	m := &Manager{
		gw:       gw,
		endpoint: ep,
		state:    StateDisconnected,
		log:      logger.Component("venue"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Endpoint returns the configured venue endpoint.
func (m *Manager) Endpoint() Endpoint { return m.endpoint }

// State returns the current state. A session the gateway reports as lost is
// observed here and moves the manager back to StateDisconnected.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked()
}

func (m *Manager) refreshLocked() State {
	if m.state == StateConnected && !m.gw.IsConnected() {
		m.state = StateDisconnected
		m.log.Warn().Str("endpoint", m.endpoint.Address()).Msg("venue session lost")
	}
	return m.state
}

// Healthy reports ErrNotConnected unless a session is live. It never dials.
func (m *Manager) Healthy() error {
	if m.State() != StateConnected {
		return ErrNotConnected
	}
	return nil
}

// EnsureConnected connects when the manager is disconnected and is a no-op
// otherwise.
func (m *Manager) EnsureConnected(ctx context.Context) error {
	if m.State() == StateConnected {
		return nil
	}
	return m.Connect(ctx)
}

// Connect dials the configured endpoint. Concurrent callers share a single
// attempt, and a caller whose ctx ends stops waiting without aborting it.
func (m *Manager) Connect(ctx context.Context) error {
	ch := m.group.DoChan("connect", func() (any, error) {
		return nil, m.connect(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) connect(ctx context.Context) error {
	// the singleflight group serializes dials; mu only guards state
	if m.State() == StateConnected {
		return nil
	}

	// clear any half-open session before dialing again
	_ = m.gw.Disconnect()

	if m.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.connectTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := m.gw.Connect(ctx, m.endpoint); err != nil {
		m.log.Error().Err(err).
			Str("endpoint", m.endpoint.Address()).
			Int("client_id", m.endpoint.ClientID).
			Msg("venue connect failed")
		return fmt.Errorf("connect %s: %w", m.endpoint.Address(), err)
	}

	m.mu.Lock()
	m.state = StateConnected
	m.mu.Unlock()

	m.log.Info().
		Str("endpoint", m.endpoint.Address()).
		Int("client_id", m.endpoint.ClientID).
		Dur("took", time.Since(start)).
		Msg("venue connected")
	return nil
}

// Close disconnects the gateway and moves the manager to StateDisconnected.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasConnected := m.state == StateConnected
	m.state = StateDisconnected
	err := m.gw.Disconnect()
	if wasConnected {
		m.log.Info().Str("endpoint", m.endpoint.Address()).Msg("venue disconnected")
	}
	return err
}
