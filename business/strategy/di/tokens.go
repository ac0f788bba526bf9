// Package di contains dependency injection tokens and typed accessors for
// the strategy context.
package di

import (
	"github.com/fd1az/xvenue-mm/business/strategy/app"
	"github.com/fd1az/xvenue-mm/internal/di"
)

// DI tokens for the strategy module.
const (
	Strategy = "strategy.Strategy"
)

// GetStrategy resolves the registered Strategy.
func GetStrategy(sr di.ServiceRegistry) *app.Strategy {
	return di.MustGet[*app.Strategy](sr, Strategy)
}
