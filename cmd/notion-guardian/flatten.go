package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/unkonwuser01/notion-guardian/internal/archive"
)

func runFlatten(args []string) int {
	fs := flag.NewFlagSet("flatten", flag.ExitOnError)

	archivePath := fs.String("archive", "", "Path to the export .zip (required)")
	dest := fs.String("dest", "", "Destination directory (required)")
	workers := fs.Int("workers", 0, "Number of parallel part extractions (default 4)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: notion-guardian flatten [options]

Unpack an export archive into a directory: inner Part-N.zip archives are
extracted in place and Export-* wrapper folders are collapsed away. The
destination directory is replaced wholesale.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *archivePath == "" || *dest == "" {
		fmt.Fprintln(os.Stderr, "Error: -archive and -dest are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[guardian] Received interrupt, shutting down...")
		cancel()
	}()

	if err := archive.Flatten(ctx, *archivePath, *dest, archive.Options{Workers: *workers}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitExtractionError
	}

	fmt.Fprintf(os.Stderr, "[guardian] Unpacked %s into %s\n", *archivePath, *dest)
	return ExitSuccess
}
