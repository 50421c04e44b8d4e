package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hearthware/tvpilot/cmd/tvpilot/internal/config"
	"github.com/hearthware/tvpilot/pkg/catalog"
	"github.com/hearthware/tvpilot/pkg/hub"
	"github.com/hearthware/tvpilot/pkg/intent"
	"github.com/hearthware/tvpilot/pkg/journal"
	"github.com/hearthware/tvpilot/pkg/transcribe"
)

var (
	flagConfig string
	flagAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hub server",
	Long: `Run the hub server.

Endpoints:
  /voice (or /)  remote WebSocket clients
  /tv            the display WebSocket client (one at a time)
  /health        liveness probe

Transcription and intent credentials come from the config file or from
OPENAI_API_KEY / GEMINI_API_KEY.

Examples:
  tvpilot serve --config /etc/tvpilot/config.yaml
  tvpilot serve --addr :9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "config file path (YAML)")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if IsVerbose() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	logger := slog.Default()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}

	opts, err := buildOptions(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	opts.Logger = hub.SlogLogger(logger)

	h, err := hub.New(opts)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		h.Close()
	}()

	logger.Info("Starting hub", "addr", cfg.Addr, "provider", cfg.Intent.Provider)
	if err := h.ListenAndServe(cfg.Addr); err != nil {
		return err
	}
	logger.Info("Hub stopped")
	return nil
}

// buildOptions assembles the hub collaborators from the configuration. The
// journal is owned by the hub and closed with it.
func buildOptions(ctx context.Context, cfg *config.Config) (hub.Options, error) {
	opts := hub.Options{
		Language:          cfg.Language,
		HistoryWindow:     cfg.HistoryWindow,
		TranscribeTimeout: cfg.Timeouts.Transcribe.Duration(),
		IntentTimeout:     cfg.Timeouts.Intent.Duration(),
		AudioWaitTimeout:  cfg.Timeouts.AudioWait.Duration(),
		PingInterval:      cfg.Timeouts.Ping.Duration(),
		ReadTimeout:       cfg.Timeouts.Read.Duration(),
		WriteTimeout:      cfg.Timeouts.Write.Duration(),
	}

	key, err := cfg.TranscriberKey()
	if err != nil {
		return opts, err
	}
	opts.Transcriber = transcribe.NewOpenAI(key, cfg.Transcriber.BaseURL, cfg.Transcriber.Model)

	key, err = cfg.IntentKey()
	if err != nil {
		return opts, err
	}
	switch cfg.Intent.Provider {
	case config.ProviderGemini:
		engine, err := intent.NewGeminiEngine(ctx, key, cfg.Intent.Model)
		if err != nil {
			return opts, err
		}
		engine.MaxTokens = cfg.Intent.MaxTokens
		opts.Engine = engine
	default:
		engine := intent.NewOpenAIEngine(key, cfg.Intent.BaseURL, cfg.Intent.Model)
		engine.MaxTokens = cfg.Intent.MaxTokens
		opts.Engine = engine
	}

	if cfg.Catalog.Config != "" {
		catalogCfg, err := catalog.LoadConfig(cfg.Catalog.Config)
		if err != nil {
			return opts, err
		}
		searcher, err := catalog.New(catalogCfg, nil)
		if err != nil {
			return opts, err
		}
		opts.Catalog = searcher
	}

	if cfg.Journal.Dir != "" {
		j, err := journal.NewBadger(journal.BadgerOptions{Dir: cfg.Journal.Dir})
		if err != nil {
			return opts, err
		}
		opts.Journal = j
	}

	return opts, nil
}
