package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"design-gallery-backend/internal/app"
	"design-gallery-backend/internal/config"
	"design-gallery-backend/internal/lambdaproxy"
	"design-gallery-backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	// Detached notifications are best effort here: the runtime may freeze
	// them between invocations.
	lambda.Start(lambdaproxy.Handler(a.Router))
}
