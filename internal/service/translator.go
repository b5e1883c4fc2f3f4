package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradebridge/internal/domain/models"
	"github.com/guttosm/tradebridge/internal/venue"
)

// ActionNewOrder is the only action the bridge accepts.
const ActionNewOrder = "NEW_ORDER"

// Order directions, forwarded as the venue action.
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// lotSize is the number of base-currency units in one terminal lot.
var lotSize = decimal.NewFromInt(100_000)

// LotsToUnits converts a terminal volume in lots to venue units.
func LotsToUnits(lots decimal.Decimal) decimal.Decimal {
	return lots.Mul(lotSize)
}

// Resolver looks up terminal codes. *registry.Registry satisfies it.
type Resolver interface {
	Lookup(code string) models.InstrumentMapping
}

// Translator turns order intents into venue contract and order specs.
type Translator struct {
	symbols Resolver
	strict  bool
}

// NewTranslator returns a translator. In strict mode an unmapped terminal
// code fails with UnresolvedInstrumentError; otherwise the zero identity is
// passed on and the venue rejects it during qualification.
func NewTranslator(symbols Resolver, strict bool) *Translator {
	return &Translator{symbols: symbols, strict: strict}
}

// Translate validates intent and builds the venue descriptors for it.
func (t *Translator) Translate(intent models.OrderIntent) (venue.ContractSpec, venue.OrderSpec, error) {
	if !strings.EqualFold(strings.TrimSpace(intent.Action), ActionNewOrder) {
		return venue.ContractSpec{}, venue.OrderSpec{}, &ValidationError{Field: "action", Message: "Invalid action"}
	}

	direction := strings.ToUpper(strings.TrimSpace(intent.Direction))
	if direction != DirectionBuy && direction != DirectionSell {
		return venue.ContractSpec{}, venue.OrderSpec{}, &ValidationError{Field: "direction", Message: "Invalid direction: must be BUY or SELL"}
	}
	if !intent.Volume.IsPositive() {
		return venue.ContractSpec{}, venue.OrderSpec{}, &ValidationError{Field: "volume", Message: "Invalid volume: must be greater than zero"}
	}

	m := t.symbols.Lookup(intent.TerminalCode)
	if !m.Resolvable() && t.strict {
		return venue.ContractSpec{}, venue.OrderSpec{}, &UnresolvedInstrumentError{Symbol: intent.TerminalCode}
	}

	contract := venue.ContractSpec{
		ConID:    m.ContractID,
		Symbol:   m.VenueSymbol,
		SecType:  venue.SecTypeCFD,
		Exchange: venue.ExchangeSMART,
		Currency: m.Currency,
	}
	order := venue.OrderSpec{
		Action:        direction,
		OrderType:     venue.OrderTypeMKT,
		TotalQuantity: LotsToUnits(intent.Volume),
		OrderRef:      intent.RequestID,
	}
	return contract, order, nil
}
