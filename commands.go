package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"song-search-api/application"
	"song-search-api/infrastructure/auth"
	"song-search-api/infrastructure/config"
	"song-search-api/infrastructure/embedding"
	"song-search-api/infrastructure/httpapi"
	"song-search-api/infrastructure/logging"
	"song-search-api/infrastructure/metrics"
	"song-search-api/infrastructure/vectorstore"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

func serveCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides HTTP_ADDR",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serve(ctx, cmd, logger)
		},
	}
}

func serve(ctx context.Context, cmd *cli.Command, logger *log.Logger) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if addr := cmd.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	logger = logging.New(nil, cfg.LogLevel)

	users, err := auth.ParseUsers(cfg.Auth.Users)
	if err != nil {
		return err
	}
	credentials := auth.NewCredentialStore(users)
	tokens, err := auth.NewJWTTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	logger.Info("credential table loaded", "users", credentials.Len())

	embedder, err := embedding.NewOpenAIEmbeddingClient(embedding.Config{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	})
	if err != nil {
		return err
	}

	qdrant, err := vectorstore.NewQdrantClient(vectorstore.Config{
		Addr:       cfg.Qdrant.Addr,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	}, logger)
	if err != nil {
		return err
	}
	defer qdrant.Close()

	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = qdrant.EnsureCollection(ensureCtx, uint64(cfg.VectorSize()))
	cancel()
	if err != nil {
		return fmt.Errorf("failed to ensure collection exists: %w", err)
	}

	m := metrics.New()
	songs := application.NewSongService(
		metrics.InstrumentEmbedder(embedder, m),
		metrics.InstrumentStore(qdrant, m),
		application.SongServiceConfig{
			Dimension:          cfg.Embedding.Dimension,
			EmbeddingTimeout:   cfg.Embedding.Timeout,
			VectorStoreTimeout: cfg.Qdrant.Timeout,
		},
	)

	server := httpapi.New(songs, application.NewAuthService(credentials, tokens), httpapi.Options{
		Logger:       logger,
		Metrics:      m,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print a bcrypt hash to use as a password in the USERS table",
		ArgsUsage: "<password>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "cost",
				Usage: "bcrypt cost factor",
				Value: bcrypt.DefaultCost,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			password := cmd.Args().First()
			if password == "" {
				return errors.New("password argument is required")
			}
			hash, err := auth.HashPassword(password, int(cmd.Int("cost")))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, hash)
			return err
		},
	}
}
