package models

import "github.com/shopspring/decimal"

// OrderIntent is a normalized order request received from the terminal.
// It is created per inbound request and never persisted.
type OrderIntent struct {
	Action       string          // must be NEW_ORDER (case-insensitive)
	TerminalCode string          // terminal symbol, resolved through the registry
	Direction    string          // BUY or SELL, forwarded as the venue action
	Volume       decimal.Decimal // size in lots
	RequestID    string          // propagated to the venue as the order reference
}

// ExecutionResult is the normalized outcome of a submission.
type ExecutionResult struct {
	OrderID int64
	Status  string
}
