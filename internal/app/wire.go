//go:build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/cultivation/internal/config"
)

// InitializeApp builds an App from cfg.
func InitializeApp(ctx context.Context, cfg config.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
