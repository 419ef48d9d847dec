//go:build wireinject
// +build wireinject

package di

import (
	"BreadthLab/pkg/config"
	"BreadthLab/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePublisher,
		ProvideCache,

		// Repositories
		ProvidePanelStore,
		ProvideSnapshotStore,

		// Use cases
		ProvidePipeline,
		ProvideRefresher,
		ProvideQueries,

		// Delivery
		ProvideHandler,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
