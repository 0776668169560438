//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"classpulse/internal/app"
	"classpulse/internal/cache"
	"classpulse/internal/config"
	"classpulse/internal/email"
	"classpulse/internal/http"
	"classpulse/internal/http/controller"
	"classpulse/internal/jobs"
	"classpulse/internal/logging"
	"classpulse/internal/queue/rabbitmq"
	"classpulse/internal/service/audit"
	"classpulse/internal/service/notify"
	"classpulse/internal/service/presence"
	"classpulse/internal/store"
	"classpulse/internal/ws"
)

func InitializeApp() (*app.App, error) {
	wire.Build(
		config.New,
		logging.New,
		store.NewStore,
		provideNotificationRepo,
		provideUserRepo,
		provideAuditRepo,
		provideClassRepo,
		cache.NewClient,
		email.NewMailer,
		ws.NewHub,
		provideNotifyBus,
		providePresenceBus,
		provideAuditBus,
		provideQueueBus,
		audit.NewRecorder,
		presence.NewTracker,
		notify.NewService,
		ws.NewGateway,
		controller.NewHandler,
		http.NewRouter,
		rabbitmq.NewConsumer,
		rabbitmq.NewPublisher,
		jobs.NewSweeper,
		app.NewApp,
	)
	return &app.App{}, nil
}
