package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/ingestion"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/plancache"
	"github.com/jonathan/resume-tailor/internal/scoring"
)

var tailorCommand = &cobra.Command{
	Use:   "tailor",
	Short: "Generate a tailoring plan for a resume against a job description",
	Long: `Retrieves the resume chunks most relevant to a job description, asks the
model for rewrite suggestions, then reconciles, validates, and re-scores
everything before emitting the plan as JSON.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runTailorCmd,
}

var (
	tailorConfigPath  string
	tailorResumePath  string
	tailorJob         string
	tailorJobURL      string
	tailorTopK        int
	tailorMaxKeywords int
	tailorMinPatches  int
	tailorModel       string
	tailorAPIKey      string
	tailorDatabaseURL string
	tailorOutPath     string
	tailorVerbose     bool
)

func init() {
	tailorCommand.Flags().StringVar(&tailorConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	tailorCommand.Flags().StringVarP(&tailorResumePath, "resume", "r", "", "Path to structured resume JSON file")
	tailorCommand.Flags().StringVarP(&tailorJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	tailorCommand.Flags().StringVar(&tailorJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	tailorCommand.Flags().IntVarP(&tailorTopK, "top-k", "k", 0, "Number of chunks to retrieve (default 8, max 20)")
	tailorCommand.Flags().IntVar(&tailorMaxKeywords, "max-keywords", 0, "Maximum target keywords to extract")
	tailorCommand.Flags().IntVar(&tailorMinPatches, "min-patches", 0, "Minimum patches before augmentation stops")
	tailorCommand.Flags().StringVar(&tailorModel, "model", "", "Model name override")
	tailorCommand.Flags().StringVar(&tailorAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	tailorCommand.Flags().StringVar(&tailorDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	tailorCommand.Flags().StringVarP(&tailorOutPath, "out", "o", "", "Write the plan JSON to a file instead of stdout")
	tailorCommand.Flags().BoolVarP(&tailorVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(tailorCommand)
}

func runTailorCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadTailorConfig(cmd)
	if err != nil {
		return err
	}

	resume, err := ingestion.LoadResume(cfg.Resume)
	if err != nil {
		return err
	}

	var jobText string
	if cfg.JobURL != "" {
		jobText, err = ingestion.JobFromURL(ctx, cfg.JobURL, cfg.Verbose)
	} else {
		jobText, err = ingestion.JobFromFile(cfg.Job)
	}
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

	var scorer *scoring.Scorer
	if cfg.Weights != nil {
		scorer = scoring.NewScorer(*cfg.Weights)
	}

	deps := pipeline.Deps{
		Client:  client,
		Store:   database,
		Cache:   plancache.New(time.Duration(cfg.CacheTTLMinutes) * time.Minute),
		Printer: observability.NewPrinter(os.Stdout),
		Scorer:  scorer,
	}

	plan, token, err := pipeline.Tailor(ctx, deps, resume, jobText, pipeline.TailorOptions{
		TopK:            cfg.TopK,
		MaxKeywords:     cfg.MaxKeywords,
		MinPatches:      cfg.MinPatches,
		JobClampChars:   cfg.JobClampChars,
		FuzzyThreshold:  cfg.FuzzyThreshold,
		StrictThreshold: cfg.StrictThreshold,
		ModelOverride:   cfg.Model,
		Verbose:         cfg.Verbose,
	})
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	if tailorOutPath != "" {
		if err := os.WriteFile(tailorOutPath, output, 0644); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
		fmt.Printf("Plan written to %s (cache token %s)\n", tailorOutPath, token)
		return nil
	}

	fmt.Println(string(output))
	return nil
}

// loadTailorConfig merges config file values, CLI overrides, and defaults.
func loadTailorConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if tailorConfigPath != "" {
		loaded, err := config.LoadConfig(tailorConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
		if tailorVerbose {
			fmt.Printf("Loaded config from: %s\n", tailorConfigPath)
		}
	}

	// CLI overrides win when the flag was explicitly set
	if cmd.Flags().Changed("resume") {
		cfg.Resume = tailorResumePath
	}
	if cmd.Flags().Changed("job") {
		cfg.Job = tailorJob
	}
	if cmd.Flags().Changed("job-url") {
		cfg.JobURL = tailorJobURL
	}
	if cmd.Flags().Changed("top-k") {
		cfg.TopK = tailorTopK
	}
	if cmd.Flags().Changed("max-keywords") {
		cfg.MaxKeywords = tailorMaxKeywords
	}
	if cmd.Flags().Changed("min-patches") {
		cfg.MinPatches = tailorMinPatches
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = tailorModel
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = tailorAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = tailorDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = tailorVerbose
	}

	cfg = cfg.MergeWithDefaults(config.Config{CacheTTLMinutes: 30})

	if cfg.Resume == "" {
		return cfg, fmt.Errorf("--resume is required (via flag or config)")
	}
	if cfg.Job == "" && cfg.JobURL == "" {
		return cfg, fmt.Errorf("either --job or --job-url must be provided (via flag or config)")
	}
	if cfg.Job != "" && cfg.JobURL != "" {
		return cfg, fmt.Errorf("--job and --job-url are mutually exclusive; provide only one")
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
