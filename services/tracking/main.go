package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/go-chi/cors"

	"github.com/hotelpos/hotelpos/pkg"
	"github.com/hotelpos/hotelpos/services/tracking/internal/track"
)

const (
	appNamespace = "TRACKING"
	appName      = "tracking"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	posURL := config.GetStringOrDef("pos.url", "http://localhost:8081")
	posToken := config.GetStringOrDef("pos.token", "")
	posClient := track.NewPOSClient(posURL, posToken)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	subscriber, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS: %v", appName, appVersion, err)
	}

	registry := track.NewRegistry(logger)
	eventSubscriber := track.NewSubscriber(subscriber, registry, posClient, logger)

	hd := track.HandlerDeps{
		Source:   posClient,
		Registry: registry,
	}
	handler := track.NewHandler(hd, config, logger)

	// Customer browsers hit this service directly from any origin.
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})
	stack = append(stack, corsHandler)

	registryLifecycle := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			return eventSubscriber.Start(ctx)
		},
		OnStop: func(context.Context) error {
			registry.Close()
			return subscriber.Close()
		},
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(registryLifecycle),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
