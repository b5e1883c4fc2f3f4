package service

import (
	"context"

	"github.com/guttosm/tradebridge/internal/domain/models"
)

// OrderService defines the bridge operations exposed over HTTP.
type OrderService interface {
	PlaceOrder(ctx context.Context, intent models.OrderIntent) (models.ExecutionResult, error)
	Ping(ctx context.Context) error
}

type orderService struct {
	translator *Translator
	submitter  *Submitter
	conn       Connector
}

func NewOrderService(translator *Translator, submitter *Submitter, conn Connector) OrderService {
	return &orderService{translator: translator, submitter: submitter, conn: conn}
}

// PlaceOrder translates the intent and submits it to the venue.
func (s *orderService) PlaceOrder(ctx context.Context, intent models.OrderIntent) (models.ExecutionResult, error) {
	contract, order, err := s.translator.Translate(intent)
	if err != nil {
		return models.ExecutionResult{}, err
	}
	return s.submitter.Submit(ctx, contract, order)
}

// Ping ensures the venue connection is live, reconnecting if needed.
func (s *orderService) Ping(ctx context.Context) error {
	if err := s.conn.EnsureConnected(ctx); err != nil {
		return &ConnectionError{Err: err}
	}
	return nil
}
