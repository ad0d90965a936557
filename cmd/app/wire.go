//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/nearbite/nearbite/internal/bootstrap"
	"github.com/nearbite/nearbite/internal/infra/config"
	httpiface "github.com/nearbite/nearbite/internal/interface/http"
	"github.com/nearbite/nearbite/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideChatGPTClient,
		provideIntentService,
		provideRecommendService,
		providePlacesClient,
		provideCaches,
		provideSourcer,
		provideDurationResolver,
		provideHistory,
		provideOrchestrator,
		provideHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
