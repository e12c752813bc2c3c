package cmd

import (
	"context"
	"fmt"
	"strings"
)

const usage = `webpage-chatter relays questions about a web page to the Gemini API.

Usage:
  webpage-chatter serve [--config <path>] [--host <host>] [--port <port>]
  webpage-chatter help

Commands:
  serve    Start the HTTP server (GET /, /api/health, /metrics; POST /api/chat,
           /api/chat/stream, /api/suggest-questions)
  help     Show this help message

Serve flags:
  --config string   YAML configuration file; .env and the environment override it
  --host   string   Override listen host (HOST)
  --port   int      Override listen port (PORT)

Callers bring their own Gemini API key in each request; the server holds none.`

// Execute runs the CLI dispatcher with the provided arguments.
func Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return printUsage()
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:])
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}
}

func printUsage() error {
	fmt.Println(strings.TrimSpace(usage))
	return nil
}
