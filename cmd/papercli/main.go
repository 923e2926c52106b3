package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	papercli "github.com/Maxwell0339/paper-cli"
	"github.com/Maxwell0339/paper-cli/internal/batch"
	"github.com/Maxwell0339/paper-cli/internal/config"
	"github.com/Maxwell0339/paper-cli/internal/crawler"
	"github.com/Maxwell0339/paper-cli/internal/logger"
)

var (
	flagConfig       string
	flagModel        string
	flagBaseURL      string
	flagAPIKey       string
	flagSystemPrompt string
	flagMaxChars     int
	flagChunkChars   int
	flagRecursive    bool
	flagNoRecursive  bool
	flagOutputDir    string
	flagQuery        string
	flagMaxResults   int
)

func main() {
	appLogger := setupLogging()

	rootCmd := &cobra.Command{
		Use:           "papercli",
		Short:         "Batch read and summarize PDF papers with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config path (default ~/.paper_cli/config.yaml)")

	rootCmd.AddCommand(newScanCmd(appLogger))
	rootCmd.AddCommand(newCrawlCmd(appLogger))
	rootCmd.AddCommand(newReconfigureCmd())
	rootCmd.AddCommand(newServeCmd(appLogger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newScanCmd(appLogger *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <folder>",
		Short: "Scan a folder and summarize all PDF files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd, appLogger)
			if err != nil {
				return err
			}

			applyLoggingConfig(appLogger, app.Config())

			ctx := signalContext()
			report, err := app.Scan(ctx, scanOptions(args[0]))
			if err != nil {
				return err
			}

			fmt.Printf("Done. total=%d, success=%d, failed=%d, total_tokens=%d\n",
				report.Total, report.Success, report.Failed, report.TotalTokens)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagModel, "model", "", "Override model")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Override API base_url")
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Override API key")
	cmd.Flags().StringVar(&flagSystemPrompt, "system-prompt", "", "Override system prompt")
	cmd.Flags().IntVar(&flagMaxChars, "max-chars", 0, "Max chars per PDF before truncation")
	cmd.Flags().IntVar(&flagChunkChars, "chunk-chars", 0, "Chunk size for long-context summarization")
	cmd.Flags().BoolVar(&flagRecursive, "recursive", false, "Scan folders recursively")
	cmd.Flags().BoolVar(&flagNoRecursive, "no-recursive", false, "Only scan the top-level folder")
	cmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "Write summaries here instead of next to the PDFs")
	return cmd
}

func newCrawlCmd(appLogger *logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Fetch papers from arXiv by keyword and save PDFs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd, appLogger)
			if err != nil {
				return err
			}

			applyLoggingConfig(appLogger, app.Config())

			ctx := signalContext()
			report, err := app.Crawl(ctx, papercli.CrawlOptions{
				Query:      flagQuery,
				MaxResults: flagMaxResults,
				OutputDir:  flagOutputDir,
				OnProgress: printCrawlProgress,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Crawl done. fetched=%d, saved=%d, skipped=%d, failed=%d\n",
				report.Fetched, report.Saved, report.Skipped, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagQuery, "query", "q", "", "arXiv search query; falls back to the last used query")
	cmd.Flags().IntVarP(&flagMaxResults, "max-results", "n", config.DefaultCrawlResults, "Max number of papers to fetch")
	cmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "Override PDF output directory")
	return cmd
}

func newReconfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconfigure",
		Short: "Rerun the interactive setup wizard and overwrite the config",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = config.DefaultConfigPath()
			}
			return runSetupWizard(path)
		},
	}
}

func newServeCmd(appLogger *logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd, appLogger)
			if err != nil {
				return err
			}
			applyLoggingConfig(appLogger, app.Config())
			return app.Serve()
		},
	}
}

// buildApp loads the config (running first-time setup when no file
// exists), applies CLI overrides, and assembles the application.
func buildApp(cmd *cobra.Command, appLogger *logger.Logger) (*papercli.App, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if !config.Exists(path) && isInteractive() {
		if err := runSetupWizard(path); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(cmd, cfg)

	return papercli.NewApp(papercli.Options{
		Config: cfg,
		Logger: appLogger,
	})
}

// scanOptions builds the scan request from the parsed flags.
func scanOptions(folder string) papercli.ScanOptions {
	return papercli.ScanOptions{
		Folder:    folder,
		OutputDir: flagOutputDir,
		OnResult:  printScanProgress,
	}
}

// applyOverrides layers the scan flags onto the loaded config.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagSystemPrompt != "" {
		cfg.SystemPrompt = flagSystemPrompt
	}
	if flagMaxChars > 0 {
		cfg.MaxChars = flagMaxChars
	}
	if flagChunkChars > 0 {
		cfg.ChunkChars = flagChunkChars
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = true
	}
	if cmd.Flags().Changed("no-recursive") {
		cfg.Recursive = false
	}
}

func applyLoggingConfig(appLogger *logger.Logger, cfg *config.Config) {
	if cfg.Logging.Level != "" {
		appLogger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	}
	if cfg.Logging.Format == "json" {
		appLogger.SetFormat(logger.JSON)
	}
}

func printScanProgress(done, total int, res batch.DocResult) {
	if res.Err != nil {
		fmt.Printf("failed  %s -> %v\n", res.Path, res.Err)
	} else {
		source := "computed"
		if res.FromCache {
			source = "cache"
		}
		note := ""
		if res.Truncated {
			note = " (truncated input)"
		}
		fmt.Printf("saved   %s -> %s [chunks=%d, %s]%s\n",
			res.Path, res.OutputPath, res.ChunksUsed, source, note)
	}
	fmt.Printf("progress %d/%d\n", done, total)
}

func printCrawlProgress(status string, _ crawler.Paper, targetPath string) {
	fmt.Printf("%-7s %s\n", status, targetPath)
}

// setupLogging configures and returns the application logger
func setupLogging() *logger.Logger {
	cfg := logger.DefaultConfig()
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		cfg.Level = logger.ParseLevel(levelStr)
	}

	appLogger := logger.New(cfg)
	logger.SetDefaultLogger(appLogger)
	return appLogger
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()
	return ctx
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
