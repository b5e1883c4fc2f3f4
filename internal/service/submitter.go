package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/tradebridge/internal/domain/models"
	"github.com/guttosm/tradebridge/internal/logger"
	"github.com/guttosm/tradebridge/internal/venue"
)

// Connector ensures the venue session is live. *venue.Manager satisfies it.
type Connector interface {
	EnsureConnected(ctx context.Context) error
}

// Submitter qualifies and places orders on the venue.
type Submitter struct {
	conn       Connector
	gw         venue.Gateway
	ackTimeout time.Duration
	log        zerolog.Logger
}

// NewSubmitter returns a submitter that waits up to ackTimeout for the first
// order status.
func NewSubmitter(conn Connector, gw venue.Gateway, ackTimeout time.Duration) *Submitter {
	return &Submitter{
		conn:       conn,
		gw:         gw,
		ackTimeout: ackTimeout,
		log:        logger.Component("submitter"),
	}
}

// Submit ensures the session is connected, qualifies the contract, places the
// order and waits for its first status.
func (s *Submitter) Submit(ctx context.Context, contract venue.ContractSpec, order venue.OrderSpec) (models.ExecutionResult, error) {
	if err := s.conn.EnsureConnected(ctx); err != nil {
		return models.ExecutionResult{}, &ConnectionError{Err: err}
	}

	qualified, err := s.gw.QualifyContract(ctx, contract)
	if err != nil {
		return models.ExecutionResult{}, &SubmissionError{Stage: "qualify contract", Err: err}
	}

	trade, err := s.gw.PlaceOrder(ctx, qualified, order)
	if err != nil {
		return models.ExecutionResult{}, &SubmissionError{Stage: "place order", Err: err}
	}

	st, err := trade.WaitStatus(ctx, s.ackTimeout)
	if err != nil {
		return models.ExecutionResult{}, &SubmissionError{Stage: "read order status", Err: err}
	}

	s.log.Info().
		Int64("order_id", trade.OrderID).
		Str("status", st.Status).
		Int64("con_id", qualified.ConID).
		Str("order_ref", order.OrderRef).
		Msg("order acknowledged")

	return models.ExecutionResult{OrderID: trade.OrderID, Status: st.Status}, nil
}
