package venue

import (
	"context"
	"sync"
	"time"
)

// Order statuses reported by the venue.
const (
	StatusPendingSubmit = "PendingSubmit"
	StatusPreSubmitted  = "PreSubmitted"
	StatusSubmitted     = "Submitted"
	StatusFilled        = "Filled"
	StatusCancelled     = "Cancelled"
	StatusApiCancelled  = "ApiCancelled"
	StatusInactive      = "Inactive"
)

// IsDone reports whether status is terminal.
func IsDone(status string) bool {
	switch status {
	case StatusFilled, StatusCancelled, StatusApiCancelled, StatusInactive:
		return true
	}
	return false
}

// Trade tracks a placed order and the status updates the venue sends for it.
type Trade struct {
	OrderID  int64
	Contract ContractSpec
	Order    OrderSpec

	mu        sync.Mutex
	status    OrderStatus
	first     chan struct{}
	firstOnce sync.Once
}

// NewTrade returns a trade in PendingSubmit state.
func NewTrade(orderID int64, c ContractSpec, o OrderSpec) *Trade {
	return &Trade{
		OrderID:  orderID,
		Contract: c,
		Order:    o,
		status:   OrderStatus{OrderID: orderID, Status: StatusPendingSubmit, Remaining: o.TotalQuantity},
		first:    make(chan struct{}),
	}
}

// Status returns the last known status.
func (t *Trade) Status() OrderStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Update records a status report. The first call releases WaitStatus.
func (t *Trade) Update(s OrderStatus) {
	t.mu.Lock()
	s.OrderID = t.OrderID
	t.status = s
	t.mu.Unlock()
	t.firstOnce.Do(func() { close(t.first) })
}

// WaitStatus blocks until the first status update arrives, timeout elapses or
// ctx is done, then returns the last known status. A timeout is not an error;
// ctx cancellation is.
func (t *Trade) WaitStatus(ctx context.Context, timeout time.Duration) (OrderStatus, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.first:
	case <-timer.C:
	case <-ctx.Done():
		return t.Status(), ctx.Err()
	}
	return t.Status(), nil
}
