package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/orgmanager/internal/app"
	"github.com/jacentio/orgmanager/internal/config"
	"github.com/jacentio/orgmanager/internal/events"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Logging)

	application, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	handler := events.NewHandler(application.Accounts, application.Components, application.Manifests, logger)
	lambda.Start(handler.Handle)
}
