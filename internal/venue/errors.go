package venue

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by gateway calls made without a live session.
	ErrNotConnected = errors.New("not connected to venue")
	// ErrContractNotFound is returned when qualification matches no contract.
	ErrContractNotFound = errors.New("contract not found")
	// ErrAmbiguousContract is returned when qualification matches more than one contract.
	ErrAmbiguousContract = errors.New("ambiguous contract")
)

// APIError is an error reported by the venue itself.
type APIError struct {
	ReqID   int64
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("venue error %d (req %d): %s", e.Code, e.ReqID, e.Message)
}
