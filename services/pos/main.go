package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/hotelpos/hotelpos/pkg"
	"github.com/hotelpos/hotelpos/services/pos/internal/mongo"
	"github.com/hotelpos/hotelpos/services/pos/internal/pos"
)

const (
	appNamespace = "POS"
	appName      = "pos"
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

	orderRepo := mongo.NewOrderRepo(config, logger)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	var publisher interface {
		Publish(ctx context.Context, topic string, msg []byte) error
		Close() error
	}

	streamEnabled := config.GetStringOrDef("nats.stream.enabled", "")
	if streamEnabled == "true" {
		stream, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			ConsumerName: appName + "-publisher",
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot initialize NATS stream: %v", appName, appVersion, err)
		}
		logger.Info("NATS stream initialized for persistent order events")
		publisher = stream
	} else {
		pub, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
		}
		publisher = pub
	}

	tokens := splitTokens(config.GetStringOrDef("auth.tokens", ""))
	if len(tokens) == 0 {
		logger.Info("no auth tokens configured, staff endpoints will reject all requests")
	}

	hd := pos.HandlerDeps{
		Repo:      orderRepo,
		Publisher: publisher,
		Tokens:    tokens,
	}
	handler := pos.NewHandler(hd, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(orderRepo, publisherLifecycle),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

func splitTokens(raw string) []string {
	var tokens []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
