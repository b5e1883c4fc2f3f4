package dto

import "github.com/shopspring/decimal"

// OrderRequest is the body of POST /order as sent by the terminal.
//
// All fields are required. Volume is expressed in lots and accepts either a
// JSON number or a numeric string.
type OrderRequest struct {
	Action    string           `json:"action" binding:"required" example:"NEW_ORDER"`
	Symbol    string           `json:"symbol" binding:"required" example:"GBPUSD"`
	Direction string           `json:"direction" binding:"required" example:"BUY"`
	Volume    *decimal.Decimal `json:"volume" binding:"required" swaggertype:"number" example:"0.1"`
}

// OrderResponse is returned when the venue accepted the order.
type OrderResponse struct {
	BackendStatus string `json:"Backend status" example:"OK"`
	OrderStatus   string `json:"orderStatus" example:"Submitted"`
	OrderID       int64  `json:"orderId" example:"42"`
}

// OrderErrorResponse is the error envelope of the order contract.
// ErrorType is omitted when the action itself is rejected.
type OrderErrorResponse struct {
	Status    string `json:"status" example:"ERROR"`
	Message   string `json:"message" example:"Invalid action"`
	ErrorType string `json:"error_type,omitempty" example:"SubmissionError"`
}

// PingResponse is returned by GET /ping when the venue connection is live.
type PingResponse struct {
	Status string `json:"status" example:"OK"`
}

// PingErrorResponse is returned by GET /ping when the venue cannot be reached.
type PingErrorResponse struct {
	Detail string `json:"detail" example:"Backend ping failed: failed to connect to venue: connection refused"`
}
