// Package strategy implements the strategy bounded context: quote
// pricing, order lifecycle tracking, and hedge dispatch atop the feed and
// gateway contexts.
package strategy

import (
	"context"

	feedDI "github.com/fd1az/xvenue-mm/business/feed/di"
	gatewayDI "github.com/fd1az/xvenue-mm/business/gateway/di"
	"github.com/fd1az/xvenue-mm/business/strategy/app"
	strategyDI "github.com/fd1az/xvenue-mm/business/strategy/di"
	"github.com/fd1az/xvenue-mm/business/strategy/domain"
	"github.com/fd1az/xvenue-mm/internal/config"
	"github.com/fd1az/xvenue-mm/internal/di"
	"github.com/fd1az/xvenue-mm/internal/logger"
	"github.com/fd1az/xvenue-mm/internal/monolith"
)

// Module implements the strategy bounded context.
type Module struct{}

// RegisterServices registers the Strategy with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, strategyDI.Strategy, func(sr di.ServiceRegistry) *app.Strategy {
		cfg := di.MustGet[*config.Config](sr, "config")
		log := di.MustGet[logger.LoggerInterface](sr, "logger")
		feed := feedDI.GetFeed(sr)
		gateway := gatewayDI.GetGateway(sr)

		appCfg := app.Config{
			Tick: cfg.VenueA.TickDecimal(),
			Margins: domain.QuoteMargins{
				Fee:    cfg.Strategy.FeeDecimal(),
				Profit: cfg.Strategy.ProfitDecimal(),
				Risk:   cfg.Strategy.RiskDecimal(),
			},
			QuoteSize:      cfg.Strategy.QuoteSize,
			InventoryLimit: cfg.Strategy.InventoryLimit,
			HedgeRatio:     cfg.Strategy.HedgeRatio,
			UpdateInterval: cfg.Strategy.UpdateInterval,
		}

		return app.NewStrategy(cfg.VenueA.Symbol, feed, gateway, appCfg, log)
	})

	return nil
}

// Startup starts the strategy's single goroutine. Both feed and gateway
// modules must have started first so their event channels are already
// live.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	s := strategyDI.GetStrategy(mono.Services())
	if err := s.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "strategy module started")
	return nil
}
