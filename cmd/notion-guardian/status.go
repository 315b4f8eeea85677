package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/unkonwuser01/notion-guardian/internal/api"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env", "", "Path to .env file with credentials")
	taskID := fs.String("task", "", "Task id to query (required)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: notion-guardian status [options]

Query the current state of an export task without waiting for it.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *taskID == "" {
		fmt.Fprintln(os.Stderr, "Error: -task is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, code := loadConfig(*configPath, *envFile)
	if code != ExitSuccess {
		return code
	}
	if cfg.Token == "" || cfg.UserID == "" {
		fmt.Fprintln(os.Stderr, "Error: credentials are required (token and user id)")
		return ExitConfigError
	}

	client := api.NewClient(api.Options{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		UserID:  cfg.UserID,
		Timeout: cfg.Poll.RequestTimeout,
	})

	page, err := client.GetTasks(context.Background(), []string{*taskID})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	task := page.Find(*taskID)
	if task == nil {
		fmt.Fprintf(os.Stderr, "Task %s not found\n", *taskID)
		return ExitGeneralError
	}

	fmt.Printf("task:           %s\n", task.ID)
	fmt.Printf("state:          %s\n", task.State)
	fmt.Printf("pages exported: %d\n", task.Status.PagesExported)
	if task.Error != "" {
		fmt.Printf("error:          %s\n", task.Error)
		return ExitRemoteFailure
	}
	if task.State == api.StateFailure {
		return ExitRemoteFailure
	}
	return ExitSuccess
}
