// Package venue defines the execution venue contract and owns the single
// process-wide venue connection.
package venue

import (
	"context"
	"net"
	"strconv"

	"github.com/shopspring/decimal"
)

// Security types, routing destinations and order types used by the bridge.
const (
	SecTypeCFD    = "CFD"
	ExchangeSMART = "SMART"
	OrderTypeMKT  = "MKT"
)

// ContractSpec is an immutable venue instrument descriptor.
type ContractSpec struct {
	ConID           int64
	Symbol          string
	SecType         string
	Exchange        string
	PrimaryExchange string
	Currency        string
	LocalSymbol     string
	TradingClass    string
}

// OrderSpec is an immutable venue order description.
type OrderSpec struct {
	Action        string // BUY or SELL
	OrderType     string // MKT
	TotalQuantity decimal.Decimal
	TIF           string
	OrderRef      string
}

// OrderStatus is one status report for a placed order.
type OrderStatus struct {
	OrderID      int64
	Status       string
	Filled       decimal.Decimal
	Remaining    decimal.Decimal
	AvgFillPrice decimal.Decimal
}

// Endpoint is the static venue address and API client id.
type Endpoint struct {
	Host     string
	Port     int
	ClientID int
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Gateway is a session with an execution venue.
//
// Implementations must be safe for concurrent use. IsConnected must be cheap
// and must turn false once the underlying session is lost.
type Gateway interface {
	Connect(ctx context.Context, ep Endpoint) error
	Disconnect() error
	IsConnected() bool
	QualifyContract(ctx context.Context, c ContractSpec) (ContractSpec, error)
	PlaceOrder(ctx context.Context, c ContractSpec, o OrderSpec) (*Trade, error)
}
