package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitInvalidArgs     = 2
	ExitConfigError     = 3
	ExitRemoteFailure   = 4
	ExitTimeout         = 5
	ExitDownloadError   = 6
	ExitExtractionError = 7
	ExitMirrorError     = 8
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "export":
		return runExport(cmdArgs)
	case "flatten":
		return runFlatten(cmdArgs)
	case "status":
		return runStatus(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: notion-guardian <command> [options]

Commands:
  export   Export the workspace, download the archive, and unpack it
  flatten  Unpack an already-downloaded export archive into a directory
  status   Query the state of an export task by id

Run 'notion-guardian <command> -h' for command-specific help.`)
}
