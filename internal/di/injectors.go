//go:build wireinject
// +build wireinject

package di

import (
	"annolist/internal"
	"annolist/internal/backends"
	"annolist/internal/controllers"
	"annolist/internal/persistence"
	"annolist/internal/providers"
	"annolist/internal/services"
	"annolist/internal/structures"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewHTTPClientProvider,

		backends.NewGrafanaClient,
		backends.NewInfluxClient,
		backends.NewRegistry,
		backends.NewCachedSearcher,

		services.NewAnnotationService,
		persistence.NewZstdCompressor,
		persistence.NewFileManager,
		persistence.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil
}
