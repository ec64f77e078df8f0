//go:build wireinject
// +build wireinject

package di

import (
	"EquityLens/internal/usecase"
	"EquityLens/pkg/config"
	"EquityLens/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideTracer,
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideRedisCache,
	ProvideRemoteCache,
)

var analysisSet = wire.NewSet(
	infraSet,
	ProvideMarketDataProvider,
	ProvideAnalysisCache,
	ProvideResultArchive,
	ProvideResultSinks,
	ProvideOrchestrator,
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		analysisSet,
		ProvideJobQueue,
		ProvideRefreshPublisher,
		ProvideHistoryUseCase,
		ProvideSymbolSearch,
		ProvideHTTPHandler,
		ProvideKafkaConsumer,
		ProvideRefreshHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeAnalyzer wires the analysis pipeline without any server, for
// one-shot command line use.
func InitializeAnalyzer(cfg *config.Config) (*usecase.AnalysisOrchestrator, func(), error) {
	wire.Build(analysisSet)
	return nil, nil, nil
}

// InitializeSymbolSearch builds the symbol lookup used by the search command.
func InitializeSymbolSearch(cfg *config.Config) (*usecase.SymbolSearchUseCase, error) {
	wire.Build(ProvideLogger, ProvideSymbolSearch)
	return nil, nil
}
