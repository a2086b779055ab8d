//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"leadsync/internal"
	"leadsync/internal/controllers"
	"leadsync/internal/journal"
	"leadsync/internal/oauth"
	"leadsync/internal/providers"
	"leadsync/internal/services"
	"leadsync/internal/structures"
	"leadsync/internal/verifier"
	"leadsync/internal/workflow"
)

var coreSet = wire.NewSet(
	providers.NewConfigProvider,
	providers.NewLogProvider,
	providers.NewMetricsProvider,
	providers.NewInstrumentedCacheProvider,
	providers.NewLockProvider,

	oauth.NewFactory,
	verifier.NewClientFromConfig,
	wire.Bind(new(services.EmailVerifier), new(*verifier.Client)),
	workflow.NewTrigger,
	wire.Bind(new(services.StatsRefresher), new(*workflow.Trigger)),

	services.NewStoreFactory,
	services.NewReportService,
	services.NewValidationService,
	services.NewStatsService,

	journal.NewZstdCompressor,
	journal.NewFileManager,
	journal.NewScheduler,
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		coreSet,
		services.NewRecordService,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}

func InitRunner(cfg *structures.CliFlags) (*internal.Runner, func(), error) {

	wire.Build(
		coreSet,
		internal.NewRunner,
	)

	return nil, nil, nil
}
