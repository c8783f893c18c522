package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/ingestion"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/pipeline"
)

var reindexCommand = &cobra.Command{
	Use:   "reindex",
	Short: "Chunk and embed a resume into the vector index",
	Long: `Parses a structured resume JSON file, splits it into retrieval chunks,
embeds every chunk, and atomically replaces the resume's rows in the vector
index.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runReindexCmd,
}

var (
	reindexConfigPath  string
	reindexResumePath  string
	reindexAPIKey      string
	reindexDatabaseURL string
	reindexChunkClamp  int
	reindexVerbose     bool
)

func init() {
	reindexCommand.Flags().StringVar(&reindexConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	reindexCommand.Flags().StringVarP(&reindexResumePath, "resume", "r", "", "Path to structured resume JSON file")
	reindexCommand.Flags().StringVar(&reindexAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	reindexCommand.Flags().StringVar(&reindexDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	reindexCommand.Flags().IntVar(&reindexChunkClamp, "chunk-clamp", 0, "Maximum characters per chunk (0 uses the default)")
	reindexCommand.Flags().BoolVarP(&reindexVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(reindexCommand)
}

func runReindexCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadReindexConfig(cmd)
	if err != nil {
		return err
	}

	resume, err := ingestion.LoadResume(cfg.Resume)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer func() { _ = client.Close() }()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	deps := pipeline.Deps{
		Client:  client,
		Store:   database,
		Printer: observability.NewPrinter(os.Stdout),
	}

	count, err := pipeline.Reindex(ctx, deps, resume, cfg.ChunkClampChars, cfg.Verbose)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d chunks for resume %s\n", count, resume.ID)
	return nil
}

// loadReindexConfig merges config file values, CLI overrides, and env
// fallbacks for the reindex command.
func loadReindexConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if reindexConfigPath != "" {
		loaded, err := config.LoadConfig(reindexConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	// CLI overrides win when the flag was explicitly set
	if cmd.Flags().Changed("resume") {
		cfg.Resume = reindexResumePath
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = reindexAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = reindexDatabaseURL
	}
	if cmd.Flags().Changed("chunk-clamp") {
		cfg.ChunkClampChars = reindexChunkClamp
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = reindexVerbose
	}

	if cfg.Resume == "" {
		return cfg, fmt.Errorf("--resume is required (via flag or config)")
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	return cfg, nil
}
