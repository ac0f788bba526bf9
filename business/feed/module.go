// Package feed implements the feed bounded context: venue connectivity,
// order book reconstruction, and BBO/position/order event demultiplexing.
package feed

import (
	"context"

	"github.com/fd1az/xvenue-mm/business/feed/app"
	feedDI "github.com/fd1az/xvenue-mm/business/feed/di"
	"github.com/fd1az/xvenue-mm/business/feed/infra/venuea"
	"github.com/fd1az/xvenue-mm/business/feed/infra/venueb"
	"github.com/fd1az/xvenue-mm/internal/config"
	"github.com/fd1az/xvenue-mm/internal/di"
	"github.com/fd1az/xvenue-mm/internal/logger"
	"github.com/fd1az/xvenue-mm/internal/monolith"
)

// Module implements the feed bounded context.
type Module struct{}

// RegisterServices registers all feed services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Venue-B REST client (depth snapshots, listen key lifecycle) - private
	// dependency, also exposed as the public SnapshotFetcher.
	di.RegisterToken(c, "feed.venueBHTTP", func(sr di.ServiceRegistry) *venueb.HTTPClient {
		cfg := di.MustGet[*config.Config](sr, "config")
		log := di.MustGet[logger.LoggerInterface](sr, "logger")

		signer, err := venueb.LoadSigner(cfg.VenueB.CredentialsFile)
		if err != nil {
			panic("failed to load venue-b credentials: " + err.Error())
		}

		httpCfg := venueb.DefaultHTTPClientConfig()
		if cfg.VenueB.RESTBaseURL != "" {
			httpCfg.BaseURL = cfg.VenueB.RESTBaseURL
		}
		client, err := venueb.NewHTTPClient(httpCfg, signer, log)
		if err != nil {
			panic("failed to create venue-b http client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, feedDI.SnapshotFetcher, func(sr di.ServiceRegistry) app.SnapshotFetcher {
		return di.MustGet[*venueb.HTTPClient](sr, "feed.venueBHTTP")
	})

	// Venue-A WebSocket client - private dependency.
	di.RegisterToken(c, "feed.venueAClient", func(sr di.ServiceRegistry) *venuea.Client {
		cfg := di.MustGet[*config.Config](sr, "config")
		log := di.MustGet[logger.LoggerInterface](sr, "logger")

		creds, err := venuea.LoadCredentials(cfg.VenueA.CredentialsFile)
		if err != nil {
			panic("failed to load venue-a credentials: " + err.Error())
		}

		clientCfg := venuea.DefaultClientConfig(cfg.VenueA.Symbol, creds)
		if cfg.VenueA.WSHost != "" {
			clientCfg.BaseURL = cfg.VenueA.WSHost
		}
		client, err := venuea.NewClient(clientCfg, log)
		if err != nil {
			panic("failed to create venue-a client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, feedDI.VenueAClient, func(sr di.ServiceRegistry) app.VenueAClient {
		return di.MustGet[*venuea.Client](sr, "feed.venueAClient")
	})

	// Venue-B WebSocket client - private dependency; its ListenKeyIssuer is
	// the same venue-B HTTP client registered above.
	di.RegisterToken(c, "feed.venueBClient", func(sr di.ServiceRegistry) *venueb.Client {
		cfg := di.MustGet[*config.Config](sr, "config")
		log := di.MustGet[logger.LoggerInterface](sr, "logger")
		issuer := di.MustGet[*venueb.HTTPClient](sr, "feed.venueBHTTP")

		clientCfg := venueb.DefaultClientConfig(cfg.VenueB.Symbol)
		if cfg.VenueB.WSHost != "" {
			clientCfg.BaseURL = cfg.VenueB.WSHost
		}
		if cfg.VenueB.ListenKeyRefresh > 0 {
			clientCfg.ListenKeyRefresh = cfg.VenueB.ListenKeyRefresh
		}
		client, err := venueb.NewClient(clientCfg, issuer, log)
		if err != nil {
			panic("failed to create venue-b client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, feedDI.VenueBClient, func(sr di.ServiceRegistry) app.VenueBClient {
		return di.MustGet[*venueb.Client](sr, "feed.venueBClient")
	})

	// Feed - public, exposed to the strategy module.
	di.RegisterToken(c, feedDI.Feed, func(sr di.ServiceRegistry) *app.Feed {
		cfg := di.MustGet[*config.Config](sr, "config")
		log := di.MustGet[logger.LoggerInterface](sr, "logger")
		clientA := feedDI.GetVenueAClient(sr)
		clientB := feedDI.GetVenueBClient(sr)
		snapshot := feedDI.GetSnapshotFetcher(sr)
		return app.NewFeed(cfg.VenueA.Symbol, clientA, clientB, snapshot, log)
	})

	return nil
}

// Startup connects both venue clients.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	f := feedDI.GetFeed(mono.Services())
	if err := f.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "feed module started")
	return nil
}
