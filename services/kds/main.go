package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"

	"github.com/hotelpos/hotelpos/pkg"
	kdsevents "github.com/hotelpos/hotelpos/services/kds/internal/events"
	"github.com/hotelpos/hotelpos/services/kds/internal/kds"
	"github.com/hotelpos/hotelpos/services/kds/internal/queue"
	"github.com/hotelpos/hotelpos/services/kds/internal/stream"
)

const (
	appNamespace = "KDS"
	appName      = "kds"
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
	posClient := queue.NewPOSClient(posURL, posToken)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	// The stream is replay-only here; live delivery uses a core NATS
	// subscription so the durable consumer position stays with warm-up.
	var orderStream *pkg.NATSStream
	var streamConsumer aptevents.StreamConsumer

	streamEnabled := config.GetStringOrDef("nats.stream.enabled", "")
	if streamEnabled == "true" {
		js, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			ConsumerName: appName + "-consumer",
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot initialize NATS stream: %v", appName, appVersion, err)
		}
		logger.Info("NATS stream initialized, queue will warm from event replay")
		orderStream = js
		streamConsumer = js
	}

	subscriber, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS: %v", appName, appVersion, err)
	}

	alerts := queue.LogAlertSink{Logger: logger}
	cache := queue.NewStateCache(streamConsumer, posClient, alerts, logger)

	hub := stream.NewHub(logger)
	cache.SetBroadcaster(hub)

	transitioner := queue.NewTransitioner(cache, posClient, posClient, logger)

	eventSubscriber := kdsevents.NewSubscriber(subscriber, cache, logger)

	sseHandler := stream.NewSSEHandler(hub, cache, logger)

	hd := kds.HandlerDeps{
		Cache:    cache,
		Advancer: transitioner,
		Stream:   sseHandler,
	}
	handler := kds.NewHandler(hd, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})

	lifecycles := []interface{}{}

	queueLifecycle := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := cache.Warm(ctx); err != nil {
				logger.Info("queue warm-up failed, starting empty", "error", err)
			}
			return eventSubscriber.Start(ctx)
		},
		OnStop: func(context.Context) error {
			hub.Close()
			return subscriber.Close()
		},
	}
	lifecycles = append(lifecycles, queueLifecycle)

	if orderStream != nil {
		streamLifecycle := apt.LifecycleHooks{
			OnStop: func(context.Context) error { return orderStream.Close() },
		}
		lifecycles = append(lifecycles, streamLifecycle)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
