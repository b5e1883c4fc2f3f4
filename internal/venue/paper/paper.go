// Package paper provides an in-process venue.Gateway that acknowledges and
// fills market orders without contacting a broker.
package paper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/guttosm/tradebridge/internal/domain/models"
	"github.com/guttosm/tradebridge/internal/logger"
	"github.com/guttosm/tradebridge/internal/venue"
)

const (
	defaultSubmitDelay = 5 * time.Millisecond
	defaultFillDelay   = 50 * time.Millisecond
	firstOrderID       = 1
)

// Gateway simulates a venue that knows the contracts it was built with.
type Gateway struct {
	contracts   []venue.ContractSpec
	submitDelay time.Duration
	fillDelay   time.Duration
	log         zerolog.Logger

	connected   atomic.Bool
	nextOrderID atomic.Int64

	mu         sync.Mutex
	connectErr error
}

var _ venue.Gateway = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLatency sets the delay before the Submitted and Filled status updates.
// A negative fill delay disables fills.
func WithLatency(submit, fill time.Duration) Option {
	return func(g *Gateway) {
		g.submitDelay = submit
		g.fillDelay = fill
	}
}

// New builds a paper venue whose contract universe is the given mappings,
// each exposed as a CFD.
func New(mappings []models.InstrumentMapping, opts ...Option) *Gateway {
	g := &Gateway{
		submitDelay: defaultSubmitDelay,
		fillDelay:   defaultFillDelay,
		log:         logger.Component("paper"),
	}
	for _, m := range mappings {
		g.contracts = append(g.contracts, venue.ContractSpec{
			ConID:        m.ContractID,
			Symbol:       m.VenueSymbol,
			SecType:      venue.SecTypeCFD,
			Exchange:     venue.ExchangeSMART,
			Currency:     m.Currency,
			LocalSymbol:  m.VenueSymbol,
			TradingClass: m.VenueSymbol,
		})
	}
	g.nextOrderID.Store(firstOrderID)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FailConnect makes subsequent Connect calls return err. A nil err restores
// normal behavior.
func (g *Gateway) FailConnect(err error) {
	g.mu.Lock()
	g.connectErr = err
	g.mu.Unlock()
}

// Drop simulates the venue closing the session.
func (g *Gateway) Drop() {
	g.connected.Store(false)
}

// Connect implements venue.Gateway.
func (g *Gateway) Connect(ctx context.Context, ep venue.Endpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	err := g.connectErr
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.connected.Store(true)
	g.log.Debug().Int("client_id", ep.ClientID).Msg("paper session opened")
	return nil
}

// Disconnect implements venue.Gateway.
func (g *Gateway) Disconnect() error {
	g.connected.Store(false)
	return nil
}

// IsConnected implements venue.Gateway.
func (g *Gateway) IsConnected() bool { return g.connected.Load() }

// QualifyContract matches by contract id, or by symbol and currency when the
// id is zero.
func (g *Gateway) QualifyContract(ctx context.Context, spec venue.ContractSpec) (venue.ContractSpec, error) {
	if !g.IsConnected() {
		return venue.ContractSpec{}, venue.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return venue.ContractSpec{}, err
	}

	var matches []venue.ContractSpec
	for _, c := range g.contracts {
		switch {
		case spec.ConID != 0:
			if c.ConID == spec.ConID {
				matches = append(matches, c)
			}
		case spec.Symbol != "":
			if c.Symbol == spec.Symbol && (spec.Currency == "" || c.Currency == spec.Currency) {
				matches = append(matches, c)
			}
		}
	}

	switch len(matches) {
	case 0:
		return venue.ContractSpec{}, fmt.Errorf("%w: %s conid=%d %s", venue.ErrContractNotFound, spec.Symbol, spec.ConID, spec.Currency)
	case 1:
		return matches[0], nil
	default:
		return venue.ContractSpec{}, fmt.Errorf("%w: %s matched %d contracts", venue.ErrAmbiguousContract, spec.Symbol, len(matches))
	}
}

// PlaceOrder implements venue.Gateway. The returned trade moves to Submitted
// and then Filled on timers.
func (g *Gateway) PlaceOrder(ctx context.Context, c venue.ContractSpec, o venue.OrderSpec) (*venue.Trade, error) {
	if !g.IsConnected() {
		return nil, venue.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := g.nextOrderID.Add(1) - 1
	trade := venue.NewTrade(id, c, o)

	time.AfterFunc(g.submitDelay, func() {
		trade.Update(venue.OrderStatus{Status: venue.StatusSubmitted, Remaining: o.TotalQuantity})
		if g.fillDelay < 0 {
			return
		}
		time.AfterFunc(g.fillDelay, func() {
			trade.Update(venue.OrderStatus{Status: venue.StatusFilled, Filled: o.TotalQuantity, Remaining: decimal.Zero})
		})
	})

	g.log.Info().
		Int64("order_id", id).
		Int64("con_id", c.ConID).
		Str("action", o.Action).
		Str("quantity", o.TotalQuantity.String()).
		Msg("paper order accepted")
	return trade, nil
}
