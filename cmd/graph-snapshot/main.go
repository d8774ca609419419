// Command graph-snapshot moves co-purchase graphs between environments
// without going through ArangoDB: export builds a snapshot file from a raw
// dataset, import pushes a snapshot into a store, inspect summarizes one.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(ctx, os.Args[2:], logger)
	case "import":
		err = runImport(ctx, os.Args[2:], logger)
	case "inspect":
		err = runInspect(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`graph-snapshot - co-purchase graph snapshot utility

Usage:
  graph-snapshot <command> [options]

Available Commands:
  export      Build a graph from an edge list and write a snapshot file
  import      Load a snapshot file and persist it to ArangoDB
  inspect     Print a snapshot's summary as JSON
  help        Show this help message

Use "graph-snapshot <command> --help" for command options.
`)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
