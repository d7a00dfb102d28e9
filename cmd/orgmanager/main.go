package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/jacentio/orgmanager/internal/app"
	"github.com/jacentio/orgmanager/internal/config"
	"github.com/jacentio/orgmanager/internal/httpapi"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Logging)

	application, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	handler := httpapi.NewHandler(application.Units, application.Accounts, application.Components, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info().Str("addr", addr).Msg("server starting")
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
