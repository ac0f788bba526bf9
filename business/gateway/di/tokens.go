// Package di contains dependency injection tokens and typed accessors for
// the gateway context.
package di

import (
	"github.com/fd1az/xvenue-mm/business/gateway/app"
	"github.com/fd1az/xvenue-mm/internal/di"
)

// DI tokens for the gateway module.
const (
	Gateway = "gateway.Gateway"
)

// GetGateway resolves the registered Gateway.
func GetGateway(sr di.ServiceRegistry) *app.Gateway {
	return di.MustGet[*app.Gateway](sr, Gateway)
}
