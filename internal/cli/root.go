package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"souschef/config"
	"souschef/internal/adapter/cache"
	"souschef/internal/adapter/gateway"
	"souschef/internal/adapter/source"
	"souschef/internal/domain"
	"souschef/internal/log"
	"souschef/internal/port"
	"souschef/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "souschef",
	Short: "Retrieval-augmented cooking QA service",
	Long: `souschef indexes a cooking knowledge base, retrieves the most relevant
entries per question by vector similarity, and answers through an
embed/chat gateway with citations back to the knowledge entries.

Example usage:
  souschef index                     # Build the embedding index
  souschef ask -q "how do I brine"   # Answer a single question
  souschef serve                     # Run the HTTP service`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./souschef.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

// gatewayClient is the full embed+chat surface of a gateway provider.
type gatewayClient interface {
	port.Embedder
	port.Generator
}

// app is the wired answering pipeline shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	manager  *usecase.Manager
	answerer *usecase.Answerer
}

// newApp wires the pipeline from the loaded config. progress, when not
// nil, receives batch-embedding progress for interactive display.
func newApp(progress usecase.ProgressFunc) (*app, error) {
	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.Logging.Level),
		JSON:  cfg.Logging.JSON,
	})

	var gw gatewayClient
	switch cfg.Gateway.Provider {
	case "mock":
		gw = gateway.NewMockGateway(cfg.Gateway.Dimension)
	default:
		client, err := gateway.NewCohereClient(
			cfg.Gateway.APIKeyEnv,
			cfg.Gateway.EmbedModel,
			cfg.Gateway.ChatModel,
			cfg.Gateway.BaseURL,
			time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create gateway client: %w", err)
		}
		gw = client
	}

	rules := make([]source.Rule, len(cfg.Knowledge.Sources))
	for i, r := range cfg.Knowledge.Sources {
		category, ok := domain.ParseCategory(r.Category)
		if !ok {
			return nil, fmt.Errorf("unknown category %q for source %q", r.Category, r.File)
		}
		rules[i] = source.Rule{File: r.File, Category: category}
	}

	loader := source.NewLoader(
		cfg.KnowledgeDir(rootDir),
		cfg.Knowledge.Includes,
		cfg.Knowledge.Excludes,
		rules,
		logger,
	)

	embCache := cache.NewDocumentCache(cfg.CachePath(rootDir), logger)

	embedder := usecase.NewBatchEmbedder(
		gw,
		cfg.Embed.BatchSize,
		time.Duration(cfg.Embed.BatchDelayMS)*time.Millisecond,
		progress,
		logger,
	)

	manager := usecase.NewManager(loader, embCache, embedder, logger)

	answerCache := cache.NewAnswerCache(
		cfg.Retrieve.CacheSize,
		time.Duration(cfg.Retrieve.CacheTTLSeconds)*time.Second,
	)

	answerer := usecase.NewAnswerer(
		manager,
		gw,
		gw,
		answerCache,
		cfg.Chat.Preamble,
		cfg.Chat.Temperature,
		cfg.Retrieve.TopK,
		logger,
	)

	return &app{cfg: cfg, logger: logger, manager: manager, answerer: answerer}, nil
}
