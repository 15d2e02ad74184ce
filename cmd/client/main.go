package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-protocol-sync/internal/adapter"
	"github.com/MKhiriev/go-protocol-sync/internal/auth"
	"github.com/MKhiriev/go-protocol-sync/internal/client"
	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/device"
	"github.com/MKhiriev/go-protocol-sync/internal/handler/http"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/server"
	"github.com/MKhiriev/go-protocol-sync/internal/service"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetClientConfig()
	if err != nil {
		logger.NewLogger("protocol-sync").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewFileLogger("protocol-sync", cfg.App.DataDir)
	log.Debug().Str("backend", cfg.Adapter.Backend).Str("data_dir", cfg.App.DataDir).Msg("received configs")

	ctx := context.Background()

	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	identity, err := device.NewIdentity(cfg.Storage.IdentityPath, cfg.App, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create device identity")
	}

	tokens := auth.NewProvider(*cfg)
	remote, err := adapter.NewRemoteStore(cfg.Adapter, tokens, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create remote store")
	}

	services := service.NewClientServices(storages, remote, tokens, identity, cfg.Workers, log)

	app := client.NewApp(services, log, identity, storages)
	if cfg.App.ControlAddress != "" {
		control, err := server.NewControlServer(http.NewHandler(services, log).Init(), cfg.App, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create control server")
		}
		app.AddWorker(control)
	}

	if err = app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("client run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
