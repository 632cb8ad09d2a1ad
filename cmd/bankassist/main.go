package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fingate/bankassist/assist"
	"github.com/fingate/bankassist/pkg/kb"
	"github.com/fingate/bankassist/pkg/logger"
)

const version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bankassist",
	Short: "Safety-gated banking assistant gateway",
	Long: `bankassist sits between customers and an LLM backend: it deflects
PII-bearing input, scopes account context per intent, grounds knowledge
answers in the bank's KB, and rewrites unproven lock/credential claims
out of model output before anything reaches the customer.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := assist.LoadConfig(configPath)
		if err != nil {
			return err
		}

		log := logger.New(cfg.LogLevel)
		defer log.Sync()

		srv, err := assist.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		defer srv.Close()

		return srv.Run()
	},
}

var ingestSrc string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the knowledge index from a directory of .txt/.md files",
	Long: `Reads FAQ/policy/how-to documents, chunks and embeds them, and stores
them in the sqlite-vec index the assist server searches at runtime.
Keep the corpus free of PII; it is for public knowledge only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := assist.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cfg.KB.IndexPath == "" {
			return fmt.Errorf("kb.index_path must be set to ingest")
		}

		log := logger.New(cfg.LogLevel)
		defer log.Sync()

		embedder := kb.NewOllamaEmbedder(cfg.KB.EmbedBaseURL, cfg.KB.EmbedModel)
		store, err := kb.OpenStore(cfg.KB.IndexPath, embedder, cfg.KB.Dimensions)
		if err != nil {
			return fmt.Errorf("failed to open kb index: %w", err)
		}
		defer store.Close()

		n, err := kb.Ingest(cmd.Context(), store, ingestSrc, log)
		if err != nil {
			return fmt.Errorf("ingest failed after %d chunks: %w", n, err)
		}

		total, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("ingest complete",
			zap.Int("chunks_added", n),
			zap.Int("chunks_total", total),
			zap.String("index", cfg.KB.IndexPath),
		)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bankassist " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "bankassist.toml", "Path to TOML config file")
	ingestCmd.Flags().StringVar(&ingestSrc, "src", "data/kb", "Directory of .txt/.md knowledge files")
	rootCmd.AddCommand(serveCmd, ingestCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
