//go:build wireinject
// +build wireinject

package di

import (
	"WhaleWatch/pkg/config"
	"WhaleWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideCache,

		// Repositories
		ProvideStore,
		ProvideCooldowns,
		ProvideMarketFeed,
		ProvideNotifier,

		// Use cases
		ProvideAlertEngine,
		ProvideIngestor,
		ProvideResolutionSyncer,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
