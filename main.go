package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"update-fetcher/config"
	"update-fetcher/downloader"
	"update-fetcher/fetcher"
	"update-fetcher/inventory"
	"update-fetcher/logging"
	"update-fetcher/updater"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("Configuration validation failed: %v", err)
		return 1
	}

	logger, closeLog, err := logging.New(logging.Options{
		FilePath: cfg.LogFile,
		Level:    cfg.LogLevel,
		Console:  os.Stderr,
	})
	if err != nil {
		log.Printf("Logger setup failed: %v", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := newOrchestrator(cfg, afero.NewOsFs(), logger)
	outcome, err := orchestrator.Run(ctx)
	if err != nil {
		logger.Errorw("update check aborted", "outcome", outcome.String(), "error", err)
		return 1
	}
	return 0
}

// newOrchestrator wires the components described by cfg
func newOrchestrator(cfg *config.UpdaterConfig, fs afero.Fs, logger logging.Logger) *updater.Orchestrator {
	source := fetcher.New(fetcher.Options{
		URL:         cfg.DescriptorURL,
		Timeout:     cfg.FetchTimeout,
		MaxAttempts: cfg.FetchAttempts,
		RetryDelay:  cfg.FetchRetryDelay,
	}, logger)

	inv := inventory.NewDirInventory(fs, cfg.WorkDir, cfg.FolderPrefix)

	dl := downloader.NewHTTPDownloader(fs, downloader.Options{
		Timeout:        cfg.DownloadTimeout,
		RewriteLinks:   cfg.RewriteLinks,
		ProgressOutput: os.Stdout,
	}, logger)

	return updater.New(source, inv, dl, artifacts(cfg), logger,
		updater.WithParallelDownloads(cfg.ParallelDownloads))
}

// artifacts lists what every version directory receives
func artifacts(cfg *config.UpdaterConfig) []downloader.Artifact {
	return []downloader.Artifact{
		{Name: "installer", URL: cfg.InstallerURL, FileName: cfg.InstallerName},
		{Name: "package", URL: cfg.PackageURL, FileName: cfg.PackageName},
		{Name: "changelog", URL: cfg.ChangelogURL, FileName: cfg.ChangelogName, BaseURL: cfg.BaseURL},
	}
}
