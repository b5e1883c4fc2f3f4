package models

// InstrumentMapping links a terminal-side instrument code to the venue's
// identity for the same instrument.
//
// Fields:
//   - TerminalCode: symbol as named by the trading terminal (e.g., "GBPUSD").
//   - ContractID: venue contract id (IBKR conid). Zero means unresolvable.
//   - VenueSymbol: venue symbol string (e.g., "GBP.USD").
//   - Currency: settlement currency (e.g., "USD").
type InstrumentMapping struct {
	TerminalCode string `json:"terminal_code" example:"GBPUSD"`
	ContractID   int64  `json:"contract_id" example:"230949810"`
	VenueSymbol  string `json:"venue_symbol" example:"GBP.USD"`
	Currency     string `json:"currency" example:"USD"`
}

// Resolvable reports whether the mapping carries a usable venue identity.
// The zero mapping returned for unknown codes is not resolvable.
func (m InstrumentMapping) Resolvable() bool {
	return m.ContractID != 0
}
