// Package di contains dependency injection tokens and typed accessors for
// the feed context.
package di

import (
	"github.com/fd1az/xvenue-mm/business/feed/app"
	"github.com/fd1az/xvenue-mm/internal/di"
)

// DI tokens for the feed module.
const (
	VenueAClient    = "feed.VenueAClient"
	VenueBClient    = "feed.VenueBClient"
	SnapshotFetcher = "feed.SnapshotFetcher"
	Feed            = "feed.Feed"
)

// GetVenueAClient resolves the registered venue-A feed client.
func GetVenueAClient(sr di.ServiceRegistry) app.VenueAClient {
	return di.MustGet[app.VenueAClient](sr, VenueAClient)
}

// GetVenueBClient resolves the registered venue-B feed client.
func GetVenueBClient(sr di.ServiceRegistry) app.VenueBClient {
	return di.MustGet[app.VenueBClient](sr, VenueBClient)
}

// GetSnapshotFetcher resolves the registered venue-B snapshot fetcher.
func GetSnapshotFetcher(sr di.ServiceRegistry) app.SnapshotFetcher {
	return di.MustGet[app.SnapshotFetcher](sr, SnapshotFetcher)
}

// GetFeed resolves the registered Feed.
func GetFeed(sr di.ServiceRegistry) *app.Feed {
	return di.MustGet[*app.Feed](sr, Feed)
}
