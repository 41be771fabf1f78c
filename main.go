package main

import (
	"context"
	"os"

	"song-search-api/infrastructure/logging"

	"github.com/urfave/cli/v3"
)

// main is the entry point of the song-search-api service.
// It wires the serve and hash-password commands and exits non-zero on any error.
func main() {
	logger := logging.New(nil, os.Getenv("LOG_LEVEL"))

	app := &cli.Command{
		Name:  "song-search-api",
		Usage: "Search songs by meaning through an embedding model and Qdrant",
		Commands: []*cli.Command{
			serveCommand(logger),
			hashPasswordCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("application error", "err", err)
	}
}
