package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/sitewatch/internal/api"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/datastore"
	"github.com/aleister1102/sitewatch/internal/differ"
	"github.com/aleister1102/sitewatch/internal/extractor"
	"github.com/aleister1102/sitewatch/internal/logger"
	"github.com/aleister1102/sitewatch/internal/monitor"
	"github.com/aleister1102/sitewatch/internal/notifier"
	"github.com/aleister1102/sitewatch/internal/rslimiter"
)

func main() {
	fmt.Println("Sitewatch starting...")

	// Flags
	configFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for -config")

	logLevelFlag := flag.String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config file if set)")
	portFlag := flag.Int("port", 0, "Port for the HTTP API server (overrides config file if set)")
	flag.Parse()

	// Consolidate alias flags
	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}

	// Load configuration (path determined by the config flag)
	log.Println("[INFO] Main: Attempting to load configuration...")
	cfg, err := config.LoadSitewatchConfig(*configFile)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not load config using path '%s': %v", *configFile, err)
	}
	log.Println("[INFO] Main: Configuration loaded successfully.")

	// Flag overrides take precedence over the config file. The log level
	// override must land before the logger is built.
	if *logLevelFlag != "" {
		cfg.LogConfig.LogLevel = *logLevelFlag
	}
	if *portFlag != 0 {
		cfg.APIConfig.Port = *portFlag
	}

	// Initialize zerolog logger
	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Main: Could not initialize logger: %v", err)
	}
	zLogger.Info().Msg("Logger initialized successfully.")

	if err := config.ValidateConfig(cfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}
	zLogger.Info().Msg("Configuration validated successfully.")

	// Storage layer
	db, err := datastore.NewDB(cfg.StorageConfig.DatabasePath, zLogger)
	if err != nil {
		zLogger.Error().Err(err).Str("db_path", cfg.StorageConfig.DatabasePath).Msg("Could not initialize datastore")
		os.Exit(2)
	}

	var archive datastore.ArchiveSink
	if cfg.StorageConfig.ArchiveDir != "" {
		parquetArchive, archiveErr := datastore.NewParquetArchive(cfg.StorageConfig.ArchiveDir, zLogger)
		if archiveErr != nil {
			zLogger.Error().Err(archiveErr).Str("archive_dir", cfg.StorageConfig.ArchiveDir).Msg("Could not initialize parquet archive")
			db.Close()
			os.Exit(2)
		}
		archive = parquetArchive
		zLogger.Info().Str("archive_dir", cfg.StorageConfig.ArchiveDir).Msg("Parquet archive enabled for evicted updates.")
	}

	siteStore := datastore.NewSiteStore(db, zLogger)
	updateStore := datastore.NewUpdateStore(db, cfg.StorageConfig.UpdateCacheSize, archive, zLogger)

	// Monitoring pipeline
	broadcaster := notifier.NewBroadcaster(cfg.APIConfig.SubscriberBufferSize, zLogger)
	contentDiffer := differ.NewContentDiffer(zLogger)
	previewExtractor := extractor.NewPreviewExtractor(zLogger)
	fetcher := monitor.NewFetcher(&cfg.MonitorConfig, zLogger)
	processor := monitor.NewContentProcessor(zLogger)
	checker := monitor.NewSiteChecker(fetcher, processor, contentDiffer, previewExtractor, siteStore, updateStore, broadcaster, zLogger)
	service := monitor.NewService(&cfg.MonitorConfig, db, siteStore, updateStore, checker, zLogger)

	resourceMonitor := rslimiter.NewResourceMonitor(cfg.ResourceConfig, zLogger)
	apiServer := api.NewServer(cfg.APIConfig, service, siteStore, updateStore, broadcaster, resourceMonitor, zLogger)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(ctx); err != nil {
		zLogger.Error().Err(err).Msg("Could not start monitoring service")
		db.Close()
		os.Exit(2)
	}
	resourceMonitor.Start()

	if err := apiServer.Start(ctx); err != nil {
		zLogger.Error().Err(err).Int("port", cfg.APIConfig.Port).Msg("Could not start API server")
		service.Stop()
		resourceMonitor.Stop()
		db.Close()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zLogger.Info().Str("signal", sig.String()).Msg("Received interrupt signal, initiating graceful shutdown...")

	// Cancelling the root context shuts the API server down; runners are
	// stopped and awaited by the service before the store closes.
	cancel()
	service.Stop()
	broadcaster.Close()
	resourceMonitor.Stop()
	if err := db.Close(); err != nil {
		zLogger.Error().Err(err).Msg("Error closing datastore")
	}
	zLogger.Info().Msg("Sitewatch stopped.")
}
