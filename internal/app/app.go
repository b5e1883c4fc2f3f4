package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/tradebridge/config"
	"github.com/guttosm/tradebridge/internal/api"
	"github.com/guttosm/tradebridge/internal/logger"
	"github.com/guttosm/tradebridge/internal/registry"
	"github.com/guttosm/tradebridge/internal/service"
	"github.com/guttosm/tradebridge/internal/venue"
	"github.com/guttosm/tradebridge/internal/venue/paper"
	"github.com/guttosm/tradebridge/internal/venue/tws"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Loads the symbol registry from the configured source.
//   - Builds the venue gateway (TWS socket client or paper simulator).
//   - Creates the connection manager and, if configured, connects eagerly.
//     A failed startup connect is logged; the next request retries.
//   - Wires translator, submitter and order service behind the HTTP handler.
//   - Registers health and readiness checks.
//   - Provides a cleanup function that disconnects from the venue.
func InitializeApp(ctx context.Context) (*gin.Engine, func(), error) {
	cfg := config.AppConfig
	log := logger.Component("app")

	symbols, err := LoadRegistry(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load symbols: %w", err)
	}
	log.Info().Str("source", cfg.Symbols.Source).Strs("codes", symbols.Codes()).Bool("strict", cfg.Symbols.Strict).Msg("symbol registry loaded")

	gw := gatewayFactory(cfg, symbols)
	endpoint := venue.Endpoint{Host: cfg.Venue.Host, Port: cfg.Venue.Port, ClientID: cfg.Venue.ClientID}
	mgr := venue.NewManager(gw, endpoint, venue.WithConnectTimeout(cfg.Venue.ConnectTimeout))

	if cfg.Venue.ConnectOnStart {
		if err := mgr.Connect(ctx); err != nil {
			log.Warn().Err(err).Str("mode", cfg.Venue.Mode).Msg("venue unavailable at startup, will retry on demand")
		}
	}

	svc := service.NewOrderService(
		service.NewTranslator(symbols, cfg.Symbols.Strict),
		service.NewSubmitter(mgr, gw, cfg.Venue.AckTimeout),
		mgr,
	)

	router := api.NewRouter(api.NewHandler(svc), cfg.Server.RateLimit)

	// readiness reflects the session without triggering a reconnect
	api.NewHealthHandler(mgr.Healthy).Register(router)

	cleanup := func() {
		if err := mgr.Close(); err != nil {
			log.Warn().Err(err).Msg("venue disconnect failed")
		}
	}

	return router, cleanup, nil
}

// gatewayFactory is an indirection for unit testing; picks the venue implementation from config.
var gatewayFactory = func(cfg config.Config, symbols *registry.Registry) venue.Gateway {
	if cfg.Venue.Mode == config.VenueModePaper {
		return paper.New(symbols.All())
	}
	return tws.New(tws.WithRequestTimeout(cfg.Venue.RequestTimeout))
}
