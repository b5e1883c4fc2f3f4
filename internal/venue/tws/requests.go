package tws

import (
	"github.com/guttosm/tradebridge/internal/venue"
)

func startAPIMessage(clientID int) *message {
	return newMessage(outStartAPI).
		num(2).
		num(clientID).
		str("") // optional capabilities
}

func contractDataMessage(reqID int64, c venue.ContractSpec) *message {
	return newMessage(outReqContractData).
		num(8).
		num64(reqID).
		num64(c.ConID).
		str(c.Symbol).
		str(c.SecType).
		str("").  // last trade date or contract month
		str("0"). // strike
		str("").  // right
		str("").  // multiplier
		str(c.Exchange).
		str(c.PrimaryExchange).
		str(c.Currency).
		str(c.LocalSymbol).
		str(c.TradingClass).
		flag(false). // include expired
		empty(2)     // sec id type, sec id
}

// placeOrderMessage encodes a plain single-leg order. Fields the bridge never
// sets are sent unset so the server applies its defaults.
func placeOrderMessage(orderID int64, c venue.ContractSpec, o venue.OrderSpec) *message {
	m := newMessage(outPlaceOrder).num64(orderID)

	// contract
	m.num64(c.ConID).
		str(c.Symbol).
		str(c.SecType).
		str("").  // last trade date or contract month
		str("0"). // strike
		str("").  // right
		str("").  // multiplier
		str(c.Exchange).
		str(c.PrimaryExchange).
		str(c.Currency).
		str(c.LocalSymbol).
		str(c.TradingClass).
		empty(2) // sec id type, sec id

	// main order fields
	m.str(o.Action).
		dec(o.TotalQuantity).
		str(o.OrderType).
		empty(2) // limit price, aux price

	// extended order fields
	m.str(o.TIF).
		str(""). // oca group
		str(""). // account
		str(""). // open/close
		num(0).  // origin: customer
		str(o.OrderRef).
		flag(true).  // transmit
		num64(0).    // parent id
		flag(false). // block order
		flag(false). // sweep to fill
		num(0).      // display size
		num(0).      // trigger method
		flag(false). // outside regular trading hours
		flag(false)  // hidden

	// shares allocation (deprecated), discretionary amount, good after,
	// good till, FA group/method/percentage/profile, model code
	m.str("").num(0).empty(2).empty(4).str("")
	// short sale slot, designated location, exempt code
	m.num(0).str("").num(-1)
	// oca type, rule 80A, settling firm, all or none, min qty, percent offset,
	// eTrade only, firm quote only, NBBO price cap, auction strategy
	m.num(0).empty(2).flag(false).empty(2).flag(false).flag(false).str("").num(0)
	// starting price, stock ref price, delta, stock range lower/upper
	m.empty(5)
	// override percentage constraints, volatility, volatility type,
	// delta neutral order type, delta neutral aux price
	m.flag(false).empty(4)
	// continuous update, reference price type, trail stop price, trailing percent
	m.flag(false).empty(3)
	// scale init/subs level size, scale price increment, scale table,
	// active start/stop time
	m.empty(6)
	// hedge type, opt out smart routing, clearing account, clearing intent,
	// not held, delta neutral contract, algo strategy, algo id, what if,
	// misc options, solicited, randomize size, randomize price
	m.str("").flag(false).empty(2).flag(false).flag(false).empty(2).flag(false).str("").flag(false).flag(false).flag(false)
	// conditions count, adjusted order type, trigger price, limit price
	// offset, adjusted stop/stop limit price, adjusted trailing amount,
	// adjustable trailing unit, ext operator
	m.num(0).empty(6).num(0).str("")
	// soft dollar tier name/value, cash qty, MiFID II decision maker/algo,
	// execution trader/algo
	m.empty(2).str("").empty(4)
	// don't use auto price for hedge, OMS container, discretionary up to
	// limit price, use price management algo
	m.flag(true).flag(false).flag(false).str("")

	return m
}

func decodeNextValidID(fields []string) (int64, error) {
	r := newFieldReader(fields[1:])
	r.skip(1) // version
	id := r.num64()
	return id, r.err
}

func decodeError(fields []string) (*venue.APIError, error) {
	r := newFieldReader(fields[1:])
	r.skip(1) // version
	e := &venue.APIError{
		ReqID:   r.num64(),
		Code:    r.num(),
		Message: r.str(),
	}
	return e, r.err
}

func decodeOrderStatus(fields []string) (venue.OrderStatus, error) {
	r := newFieldReader(fields[1:])
	st := venue.OrderStatus{
		OrderID:      r.num64(),
		Status:       r.str(),
		Filled:       r.dec(),
		Remaining:    r.dec(),
		AvgFillPrice: r.dec(),
	}
	return st, r.err
}

// decodeContractData returns the request id and the contract it describes.
func decodeContractData(fields []string) (int64, venue.ContractSpec, error) {
	r := newFieldReader(fields[1:])
	version := r.num()
	reqID := int64(-1)
	if version >= 3 {
		reqID = r.num64()
	}

	var c venue.ContractSpec
	c.Symbol = r.str()
	c.SecType = r.str()
	r.skip(3) // last trade date, strike, right
	c.Exchange = r.str()
	c.Currency = r.str()
	c.LocalSymbol = r.str()
	r.skip(1) // market name
	c.TradingClass = r.str()
	c.ConID = r.num64()
	// min tick, md size multiplier, multiplier, order types, valid exchanges,
	// price magnifier
	r.skip(6)
	if version >= 4 {
		r.skip(1) // under con id
	}
	if version >= 5 {
		r.skip(1) // long name
		c.PrimaryExchange = r.str()
	}
	return reqID, c, r.err
}

func decodeContractDataEnd(fields []string) (int64, error) {
	r := newFieldReader(fields[1:])
	r.skip(1) // version
	id := r.num64()
	return id, r.err
}
