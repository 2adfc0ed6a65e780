// Package servecmder provides the serve command that runs the cards API.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/cards/api"
	"github.com/papercomputeco/cards/api/mcp"
	"github.com/papercomputeco/cards/pkg/auth"
	"github.com/papercomputeco/cards/pkg/cliui"
	"github.com/papercomputeco/cards/pkg/config"
	"github.com/papercomputeco/cards/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/cards/pkg/embeddings/utils"
	"github.com/papercomputeco/cards/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/cards/pkg/eventstream/utils"
	"github.com/papercomputeco/cards/pkg/logger"
	"github.com/papercomputeco/cards/pkg/metrics"
	"github.com/papercomputeco/cards/pkg/repository"
	"github.com/papercomputeco/cards/pkg/vector"
	vectorutils "github.com/papercomputeco/cards/pkg/vector/utils"
	"github.com/papercomputeco/cards/pkg/worker"
)

type serveCommander struct {
	flags struct {
		listen           string
		disableMCP       bool
		vectorProvider   string
		vectorTarget     string
		vectorCollection string
		embedProvider    string
		embedTarget      string
		embedModel       string
		embedDims        uint
		eventsProvider   string
		eventsBrokers    string
		eventsTopic      string
		logFile          string
	}

	cfg    *config.Config
	debug  bool
	logger *slog.Logger
}

// serveFlags are bound to viper so they override env and config file values.
var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagDisableMCP,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventStreamProv,
	config.FlagEventStreamBrokers,
	config.FlagEventStreamTopic,
}

const serveLongDesc string = `Run the cards API server.

The server embeds submitted cards, stores them in the configured vector store
and answers similarity searches, lookups and votes over HTTP. An MCP endpoint
is served on /mcp and prometheus metrics on /metrics.

Settings come from flags, CARDS_* environment variables and config.toml, in
that order. Secrets such as auth.jwt_secret and embedding.api_key are best
supplied through the environment (CARDS_AUTH_JWT_SECRET, CARDS_EMBEDDING_API_KEY).

Examples:
  cards serve
  cards serve --vector-store-provider qdrant --vector-store-target localhost:6334
  cards serve --embedding-provider openai --embedding-dimensions 1536`

const serveShortDesc string = "Run the cards API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)
			cmder.cfg = config.Resolve(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.flags.listen)
	config.AddBoolFlag(cmd, config.Flags, config.FlagDisableMCP, &cmder.flags.disableMCP)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.flags.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.flags.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorCollection, &cmder.flags.vectorCollection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.flags.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.flags.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.flags.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.flags.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamProv, &cmder.flags.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamBrokers, &cmder.flags.eventsBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamTopic, &cmder.flags.eventsTopic)
	cmd.Flags().StringVar(&cmder.flags.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
	)
	if c.flags.logFile != "" {
		f, err := os.OpenFile(c.flags.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithDebug(c.debug),
			logger.WithJSON(true),
			logger.WithWriter(f),
			logger.WithAttrs("service", "cards"),
		))
	}
	cfg := c.cfg

	readTimeout, writeTimeout, requestTimeout, err := cfg.API.Timeouts()
	if err != nil {
		return err
	}

	var (
		embedder embeddings.Embedder
		driver   vector.Driver
	)

	err = cliui.Step(os.Stderr, "Connecting to embedding provider "+cfg.Embedding.Provider, func() error {
		var err error
		embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: cfg.Embedding.Provider,
			TargetURL:    cfg.Embedding.Target,
			Model:        cfg.Embedding.Model,
			APIKey:       cfg.Embedding.APIKey,
			Dimensions:   cfg.Embedding.Dimensions,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	err = cliui.Step(os.Stderr, "Connecting to vector store "+cfg.VectorStore.Provider, func() error {
		var err error
		driver, err = vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: cfg.VectorStore.Provider,
			TargetURL:    cfg.VectorStore.Target,
			Collection:   cfg.VectorStore.Collection,
			APIKey:       cfg.VectorStore.APIKey,
			Dimensions:   cfg.Embedding.Dimensions,
			Logger:       c.logger,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer driver.Close()

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.EventStream.Provider,
		Brokers:      splitBrokers(cfg.EventStream.Brokers),
		Topic:        cfg.EventStream.Topic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer closePublisher(publisher, c.logger)

	pool, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	// drain queued events before the publisher closes
	defer pool.Close()

	collector := metrics.NewCollector()

	repo, err := repository.New(repository.Config{
		Embedder:    embedder,
		Driver:      driver,
		Events:      pool,
		Metrics:     collector,
		Logger:      c.logger,
		CallTimeout: requestTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating repository: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Cards:  repo,
		Noop:   cfg.API.DisableMCP,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiConfig := api.Config{
		ListenAddr:   cfg.API.Listen,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Auth:         auth.NewValidator(cfg.Auth.JWTSecret),
		Metrics:      collector,
	}
	if !cfg.API.DisableMCP {
		apiConfig.MCP = mcpServer.Handler()
	}

	server, err := api.NewServer(apiConfig, repo, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func closePublisher(p eventstream.Publisher, logger *slog.Logger) {
	if err := p.Close(); err != nil && !errors.Is(err, eventstream.ErrPublisherClosed) {
		logger.Warn("closing event publisher", "error", err)
	}
}
