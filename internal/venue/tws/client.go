package tws

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/tradebridge/internal/logger"
	"github.com/guttosm/tradebridge/internal/venue"
)

// DialFunc opens the TCP connection to the venue.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Client is a venue.Gateway speaking the TWS socket protocol.
//
// Each successful Connect starts a session with its own reader goroutine.
// Responses are routed to waiting callers by request id (contract details)
// or order id (order status). Writes are serialized per session.
type Client struct {
	dial           DialFunc
	requestTimeout time.Duration
	log            zerolog.Logger

	mu   sync.Mutex // serializes Connect and Disconnect
	sess atomic.Pointer[session]
}

var _ venue.Gateway = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the TCP dialer.
func WithDialer(d DialFunc) Option {
	return func(c *Client) { c.dial = d }
}

// WithRequestTimeout bounds contract qualification round trips.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// New returns a disconnected client.
func New(opts ...Option) *Client {
	var d net.Dialer
	c := &Client{
		dial: d.DialContext,
		log:  logger.Component("tws"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session is one live socket to the server.
type session struct {
	conn          net.Conn
	serverVersion int
	connTime      string

	writeMu sync.Mutex

	// nextID hands out both order ids and contract request ids, so an
	// ERR_MSG id always names exactly one pending call.
	nextID    atomic.Int64
	ready     chan struct{} // closed on the first NEXT_VALID_ID
	readyOnce sync.Once
	done      chan struct{} // closed when the reader exits
	alive     atomic.Bool
	closing   atomic.Bool

	errMu sync.Mutex
	err   error // why the session ended, or a fatal startup error

	pendingMu sync.Mutex
	contracts map[int64]*contractRequest
	trades    map[int64]*venue.Trade
}

type contractRequest struct {
	results []venue.ContractSpec
	err     error
	done    chan struct{}
}

func (s *session) allocID() int64 {
	return s.nextID.Add(1) - 1
}

func (s *session) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func (s *session) cause() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *session) send(ctx context.Context, m *message) error {
	frame := m.encode()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
		defer func() { _ = s.conn.SetWriteDeadline(time.Time{}) }()
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("tws: write: %w", err)
	}
	return nil
}

// Connect performs the handshake, starts the API session and waits until the
// server hands out the first valid order id.
func (c *Client) Connect(ctx context.Context, ep venue.Endpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.sess.Load(); s != nil && s.alive.Load() {
		return nil
	}

	conn, err := c.dial(ctx, "tcp", ep.Address())
	if err != nil {
		return fmt.Errorf("tws: dial: %w", err)
	}

	// unblock handshake reads and writes when ctx ends
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	r := bufio.NewReader(conn)
	s, err := c.handshake(conn, r)
	if err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	s.alive.Store(true)
	go c.readLoop(s, r)

	if err := s.send(ctx, startAPIMessage(ep.ClientID)); err != nil {
		c.abort(s)
		return err
	}

	select {
	case <-s.ready:
	case <-s.done:
		c.abort(s)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.cause(); err != nil {
			return err
		}
		return errors.New("tws: connection closed during startup")
	case <-ctx.Done():
		c.abort(s)
		return ctx.Err()
	}

	if !stop() {
		// ctx fired after ready; the deadline it set must not outlive Connect
		_ = conn.SetDeadline(time.Time{})
	}

	c.sess.Store(s)
	c.log.Info().
		Str("endpoint", ep.Address()).
		Int("client_id", ep.ClientID).
		Int("server_version", s.serverVersion).
		Str("conn_time", s.connTime).
		Int64("next_valid_id", s.nextID.Load()).
		Msg("tws session ready")
	return nil
}

func (c *Client) handshake(conn net.Conn, r *bufio.Reader) (*session, error) {
	if _, err := conn.Write(handshake()); err != nil {
		return nil, fmt.Errorf("tws: handshake write: %w", err)
	}
	fields, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("tws: handshake read: %w", err)
	}
	if len(fields) < 2 {
		return nil, fmt.Errorf("tws: malformed handshake reply %q", fields)
	}
	version, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("tws: bad server version %q", fields[0])
	}
	if version < serverVersion {
		return nil, fmt.Errorf("tws: server version %d not supported (need %d)", version, serverVersion)
	}

	return &session{
		conn:          conn,
		serverVersion: version,
		connTime:      fields[1],
		ready:         make(chan struct{}),
		done:          make(chan struct{}),
		contracts:     make(map[int64]*contractRequest),
		trades:        make(map[int64]*venue.Trade),
	}, nil
}

// abort tears down a session that never became current.
func (c *Client) abort(s *session) {
	s.closing.Store(true)
	_ = s.conn.Close()
	<-s.done
}

// Disconnect closes the current session, if any.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.sess.Swap(nil)
	if s == nil {
		return nil
	}
	s.closing.Store(true)
	err := s.conn.Close()
	<-s.done
	return err
}

// IsConnected reports whether a session is live.
func (c *Client) IsConnected() bool {
	s := c.sess.Load()
	return s != nil && s.alive.Load()
}

func (c *Client) live() (*session, error) {
	s := c.sess.Load()
	if s == nil || !s.alive.Load() {
		return nil, venue.ErrNotConnected
	}
	return s, nil
}

// QualifyContract asks the server for the contracts matching spec and
// returns the single match.
func (c *Client) QualifyContract(ctx context.Context, spec venue.ContractSpec) (venue.ContractSpec, error) {
	s, err := c.live()
	if err != nil {
		return venue.ContractSpec{}, err
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	reqID := s.allocID()
	req := &contractRequest{done: make(chan struct{})}
	s.pendingMu.Lock()
	s.contracts[reqID] = req
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.contracts, reqID)
		s.pendingMu.Unlock()
	}()

	if err := s.send(ctx, contractDataMessage(reqID, spec)); err != nil {
		return venue.ContractSpec{}, err
	}

	select {
	case <-req.done:
	case <-s.done:
		return venue.ContractSpec{}, fmt.Errorf("%w: %v", venue.ErrNotConnected, s.cause())
	case <-ctx.Done():
		return venue.ContractSpec{}, fmt.Errorf("tws: qualify %s: %w", describe(spec), ctx.Err())
	}

	if req.err != nil {
		return venue.ContractSpec{}, req.err
	}
	switch len(req.results) {
	case 0:
		return venue.ContractSpec{}, fmt.Errorf("%w: %s", venue.ErrContractNotFound, describe(spec))
	case 1:
	default:
		return venue.ContractSpec{}, fmt.Errorf("%w: %s matched %d contracts", venue.ErrAmbiguousContract, describe(spec), len(req.results))
	}

	got := req.results[0]
	if spec.Exchange == venue.ExchangeSMART {
		got.Exchange = venue.ExchangeSMART
	}
	return got, nil
}

// PlaceOrder sends the order and returns a Trade that receives its status
// updates.
func (c *Client) PlaceOrder(ctx context.Context, contract venue.ContractSpec, order venue.OrderSpec) (*venue.Trade, error) {
	s, err := c.live()
	if err != nil {
		return nil, err
	}

	orderID := s.allocID()
	trade := venue.NewTrade(orderID, contract, order)

	s.pendingMu.Lock()
	s.trades[orderID] = trade
	s.pendingMu.Unlock()

	if err := s.send(ctx, placeOrderMessage(orderID, contract, order)); err != nil {
		s.pendingMu.Lock()
		delete(s.trades, orderID)
		s.pendingMu.Unlock()
		return nil, err
	}

	c.log.Info().
		Int64("order_id", orderID).
		Int64("con_id", contract.ConID).
		Str("symbol", contract.Symbol).
		Str("action", order.Action).
		Str("quantity", order.TotalQuantity.String()).
		Str("order_ref", order.OrderRef).
		Msg("order placed")
	return trade, nil
}

func describe(c venue.ContractSpec) string {
	return fmt.Sprintf("%s %s conid=%d %s/%s", c.SecType, c.Symbol, c.ConID, c.Exchange, c.Currency)
}
