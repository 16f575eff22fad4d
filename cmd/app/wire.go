//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/pdf-summarizer/internal/bootstrap"
	"github.com/yanqian/pdf-summarizer/internal/domain/auth"
	"github.com/yanqian/pdf-summarizer/internal/domain/history"
	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
	"github.com/yanqian/pdf-summarizer/internal/infra/config"
	httpiface "github.com/yanqian/pdf-summarizer/internal/interface/http"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		provideLogger,
		provideMetrics,
		provideSummaryConfig,
		provideAuthConfig,
		provideHistoryConfig,
		providePostgresPool,
		provideMongoClient,
		provideValkeyClient,
		provideUserRepository,
		provideHistoryRepository,
		provideKeywordStore,
		provideHistoryQueue,
		provideHistoryObserver,
		provideSummaryObserver,
		provideExtractor,
		provideGenerator,
		provideArchive,
		history.NewService,
		provideHistoryRecorder,
		provideActivity,
		provideDrainer,
		summarizer.NewService,
		auth.NewService,
		provideHandler,
		provideAuthHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
