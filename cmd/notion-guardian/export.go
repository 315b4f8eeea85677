package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/unkonwuser01/notion-guardian/internal/api"
	"github.com/unkonwuser01/notion-guardian/internal/archive"
	"github.com/unkonwuser01/notion-guardian/internal/config"
	"github.com/unkonwuser01/notion-guardian/internal/downloader"
	"github.com/unkonwuser01/notion-guardian/internal/export"
	"github.com/unkonwuser01/notion-guardian/internal/logging"
	"github.com/unkonwuser01/notion-guardian/internal/mirror"
	"github.com/unkonwuser01/notion-guardian/internal/progress"
)

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env", "", "Path to .env file with credentials")
	dest := fs.String("dest", "", "Destination directory for the unpacked export")
	keepArchive := fs.Bool("keep-archive", false, "Keep the downloaded .zip next to the destination")
	showProgress := fs.Bool("progress", false, "Show download progress")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: notion-guardian export [options]

Submit a full-workspace export, poll it to completion, download the
archive, and unpack it into the destination directory. The destination
is replaced wholesale on every run.

Credentials come from the config file, a .env file, or the NOTION_TOKEN,
NOTION_SPACE_ID and NOTION_USER_ID environment variables.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, code := loadConfig(*configPath, *envFile)
	if code != ExitSuccess {
		return code
	}
	if *dest != "" {
		cfg.Dest = *dest
	}
	if *showProgress {
		cfg.Progress = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[guardian] Received interrupt, shutting down...")
		cancel()
	}()

	return exportWorkspace(ctx, cfg, *keepArchive, log)
}

func exportWorkspace(ctx context.Context, cfg config.Config, keepArchive bool, log *slog.Logger) int {
	client := api.NewClient(api.Options{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		UserID:  cfg.UserID,
		Timeout: cfg.Poll.RequestTimeout,
	})

	viewMode := api.CollectionViewAll
	if cfg.Export.CurrentViewOnly {
		viewMode = api.CollectionViewCurrent
	}

	req := api.ExportRequest{
		SpaceID: cfg.SpaceID,
		ExportOptions: api.ExportOptions{
			ExportType:               cfg.Export.Type,
			Locale:                   cfg.Export.Locale,
			TimeZone:                 cfg.Export.TimeZone,
			CollectionViewExportType: viewMode,
		},
		ShouldExportComments: cfg.Export.IncludeComments,
	}

	driver := export.NewDriver(client, req, export.Options{
		Interval:    cfg.Poll.Interval,
		MaxAttempts: cfg.Poll.MaxAttempts,
		Logger:      log,
	})

	download, err := driver.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exportExitCode(err)
	}

	archivePath := cfg.Dest + ".zip"

	var reporter *progress.Reporter
	var dlOpts downloader.Options
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{Label: archivePath})
		reporter.Start()
		dlOpts.Progress = reporter
	}

	err = downloader.Download(ctx, download.URL, download.FileToken, archivePath, dlOpts)
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitDownloadError
	}

	if err := archive.Flatten(ctx, archivePath, cfg.Dest, archive.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitExtractionError
	}

	if !keepArchive {
		os.Remove(archivePath)
	}

	log.Info("export unpacked", "dest", cfg.Dest)

	if cfg.Mirror.Bucket != "" {
		manifest, err := mirror.Upload(ctx, cfg.Mirror.Bucket, cfg.Mirror.Prefix, cfg.Dest, mirror.Options{
			Workers: cfg.Mirror.Workers,
			Logger:  log,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitMirrorError
		}
		log.Info("export mirrored",
			"bucket", cfg.Mirror.Bucket,
			"files", len(manifest.Files),
			"bytes", manifest.TotalSize)
	}

	return ExitSuccess
}

// exportExitCode maps a driver error to the process exit code.
func exportExitCode(err error) int {
	var remote *export.RemoteFailureError
	var timeout *export.TimeoutError

	switch {
	case errors.As(err, &remote):
		return ExitRemoteFailure
	case errors.As(err, &timeout):
		return ExitTimeout
	default:
		return ExitGeneralError
	}
}

// loadConfig builds the effective config: defaults, then the config file,
// then the .env file and process environment.
func loadConfig(configPath, envFile string) (config.Config, int) {
	cfg := config.Default()

	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return config.Config{}, ExitConfigError
		}
		cfg = loaded
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading env file: %v\n", err)
			return config.Config{}, ExitConfigError
		}
	} else {
		// A .env in the working directory is picked up when present.
		godotenv.Load()
	}

	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return config.Config{}, ExitConfigError
	}

	return cfg, ExitSuccess
}
