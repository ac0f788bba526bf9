// Package gateway implements the gateway bounded context: signed REST
// order dispatch to both venues, with in-flight guards and rate-limit
// backoff reconciled back to the strategy context.
package gateway

import (
	"context"

	feedVenueB "github.com/fd1az/xvenue-mm/business/feed/infra/venueb"
	"github.com/fd1az/xvenue-mm/business/gateway/app"
	gatewayDI "github.com/fd1az/xvenue-mm/business/gateway/di"
	"github.com/fd1az/xvenue-mm/business/gateway/infra/venuea"
	"github.com/fd1az/xvenue-mm/business/gateway/infra/venueb"
	"github.com/fd1az/xvenue-mm/internal/config"
	"github.com/fd1az/xvenue-mm/internal/di"
	"github.com/fd1az/xvenue-mm/internal/logger"
	"github.com/fd1az/xvenue-mm/internal/monolith"
)

// Module implements the gateway bounded context.
type Module struct{}

// RegisterServices registers all gateway services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Venue-A order dispatch client - private dependency.
	di.RegisterToken(c, "gateway.venueAHTTP", func(sr di.ServiceRegistry) *venuea.HTTPClient {
		cfg := di.MustGet[*config.Config](sr, "config")
		log := di.MustGet[logger.LoggerInterface](sr, "logger")

		signer, err := venuea.LoadSigner(cfg.VenueA.CredentialsFile)
		if err != nil {
			panic("failed to load venue-a order-signing credentials: " + err.Error())
		}

		httpCfg := venuea.DefaultHTTPClientConfig(cfg.VenueA.Symbol)
		if cfg.VenueA.RESTBaseURL != "" {
			httpCfg.BaseURL = cfg.VenueA.RESTBaseURL
		}
		client, err := venuea.NewHTTPClient(httpCfg, signer, log)
		if err != nil {
			panic("failed to create venue-a gateway http client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, "gateway.venueARESTClient", func(sr di.ServiceRegistry) app.VenueARESTClient {
		return di.MustGet[*venuea.HTTPClient](sr, "gateway.venueAHTTP")
	})

	// Venue-B hedge dispatch client - private dependency; reuses the same
	// HMAC signer scheme as feed's venue-B REST client.
	di.RegisterToken(c, "gateway.venueBHTTP", func(sr di.ServiceRegistry) *venueb.HTTPClient {
		cfg := di.MustGet[*config.Config](sr, "config")
		log := di.MustGet[logger.LoggerInterface](sr, "logger")

		signer, err := feedVenueB.LoadSigner(cfg.VenueB.CredentialsFile)
		if err != nil {
			panic("failed to load venue-b order-signing credentials: " + err.Error())
		}

		httpCfg := venueb.DefaultHTTPClientConfig(cfg.VenueB.Symbol)
		if cfg.VenueB.RESTBaseURL != "" {
			httpCfg.BaseURL = cfg.VenueB.RESTBaseURL
		}
		client, err := venueb.NewHTTPClient(httpCfg, signer, log)
		if err != nil {
			panic("failed to create venue-b gateway http client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, "gateway.venueBRESTClient", func(sr di.ServiceRegistry) app.VenueBRESTClient {
		return di.MustGet[*venueb.HTTPClient](sr, "gateway.venueBHTTP")
	})

	// Gateway - public, exposed to the strategy module.
	di.RegisterToken(c, gatewayDI.Gateway, func(sr di.ServiceRegistry) *app.Gateway {
		log := di.MustGet[logger.LoggerInterface](sr, "logger")
		venueA := di.MustGet[app.VenueARESTClient](sr, "gateway.venueARESTClient")
		venueB := di.MustGet[app.VenueBRESTClient](sr, "gateway.venueBRESTClient")
		return app.NewGateway(venueA, venueB, log)
	})

	return nil
}

// Startup initializes the gateway's metrics.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	g := gatewayDI.GetGateway(mono.Services())
	if err := g.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "gateway module started")
	return nil
}
