// Package papercli wires the configuration, LLM client, cache, crawler,
// and batch pipeline into one application facade used by the CLI and by
// embedders.
package papercli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/Maxwell0339/paper-cli/internal/batch"
	"github.com/Maxwell0339/paper-cli/internal/cache"
	"github.com/Maxwell0339/paper-cli/internal/config"
	"github.com/Maxwell0339/paper-cli/internal/crawler"
	"github.com/Maxwell0339/paper-cli/internal/errortypes"
	"github.com/Maxwell0339/paper-cli/internal/llm"
	"github.com/Maxwell0339/paper-cli/internal/llm/providers"
	"github.com/Maxwell0339/paper-cli/internal/loader"
	"github.com/Maxwell0339/paper-cli/internal/logger"
	"github.com/Maxwell0339/paper-cli/internal/rate"
	"github.com/Maxwell0339/paper-cli/internal/scanner"
	"github.com/Maxwell0339/paper-cli/internal/server"
	"github.com/Maxwell0339/paper-cli/internal/summarize"
	"github.com/Maxwell0339/paper-cli/internal/telemetry"
)

// Config is the application configuration.
type Config = config.Config

// Report aggregates the outcome of one scan run.
type Report = batch.Report

// CrawlReport aggregates the outcome of one crawl run.
type CrawlReport = crawler.CrawlReport

// SummaryCacheFileName is the cache file kept next to the summaries.
const SummaryCacheFileName = ".summary_cache.json"

// libraryDBFileName is the SQLite database tracking downloaded papers.
const libraryDBFileName = "library.db"

// App is the assembled application.
type App struct {
	config  *config.Config
	log     *logger.Logger
	metrics *telemetry.MetricsCollector
	client  *llm.Client
	loader  *loader.PDFLoader
}

// Options controls App construction.
type Options struct {
	Config     *Config        // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string         // Path to config file. Used if Config is nil.
	Logger     *logger.Logger // External logger. If nil, logger.Default() is used.
}

// NewApp creates the application from the given options.
func NewApp(opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	providerName := config.TransportProvider(cfg.Provider)
	provider, err := providers.NewProvider(providerName, providers.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetricsCollector()
	client := llm.NewClient(llm.ClientConfig{
		Provider:   provider,
		Limiter:    rate.NewLimiter(cfg.RateLimitQPS),
		MaxRetries: cfg.MaxRetries,
		Metrics:    metrics,
		Logger:     log.WithContext("llm"),
	})

	return &App{
		config:  cfg,
		log:     log,
		metrics: metrics,
		client:  client,
		loader:  loader.NewPDFLoader(cfg.MaxChars),
	}, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Metrics returns the collector shared by every component.
func (a *App) Metrics() *telemetry.MetricsCollector {
	return a.metrics
}

// engine builds a summarization engine for the given profile.
func (a *App) engine(profile string) *summarize.Engine {
	return summarize.NewEngine(summarize.EngineConfig{
		Client:       a.client,
		SystemPrompt: a.config.SystemPrompt,
		ChunkChars:   a.config.ChunkChars,
		ChunkWorkers: a.config.ChunkWorkers,
		Profile:      profile,
	})
}

// ScanOptions controls a scan run.
type ScanOptions struct {
	Folder    string
	OutputDir string // defaults to Folder
	OnResult  func(done, total int, res batch.DocResult)
}

// Scan discovers PDFs under opts.Folder and summarizes them all.
func (a *App) Scan(ctx context.Context, opts ScanOptions) (Report, error) {
	if a.config.APIKey == "" {
		return Report{}, errortypes.ConfigError(nil, "api key is empty; set it in config.yaml, env, or a CLI flag")
	}

	pdfs, err := scanner.FindPDFs(opts.Folder, a.config.Recursive)
	if err != nil {
		return Report{}, err
	}
	if len(pdfs) == 0 {
		a.log.Warn("no pdf files found", "folder", opts.Folder)
		return Report{}, nil
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = opts.Folder
	}

	var summaryCache *cache.Cache
	if a.config.CacheEnabled {
		summaryCache = cache.New(filepath.Join(outputDir, SummaryCacheFileName), a.config.CacheMaxEntries)
	}

	a.log.Info("starting scan",
		"total_pdfs", len(pdfs),
		"file_workers", a.config.FileWorkers,
		"chunk_workers", a.config.ChunkWorkers,
		"cache_enabled", a.config.CacheEnabled)

	orch := batch.NewOrchestrator(batch.OrchestratorConfig{
		Loader: a.loader,
		Engine: a.engine(a.config.Profile),
		Cache:  summaryCache,
		KeySettings: batch.KeySettings{
			Model:        a.config.Model,
			SystemPrompt: a.config.SystemPrompt,
			MaxChars:     a.config.MaxChars,
			ChunkChars:   a.config.ChunkChars,
			Profile:      a.config.Profile,
		},
		OutputDir:   outputDir,
		FileWorkers: a.config.FileWorkers,
		Metrics:     a.metrics,
		Logger:      a.log.WithContext("batch"),
		OnResult:    opts.OnResult,
	})

	return orch.Run(ctx, pdfs), nil
}

// CrawlOptions controls a crawl run.
type CrawlOptions struct {
	Query      string // empty falls back to the stored last query
	MaxResults int
	OutputDir  string // empty falls back to the configured download dir
	OnProgress crawler.ProgressFunc
}

// Crawl searches arXiv and downloads matching papers into the library.
func (a *App) Crawl(ctx context.Context, opts CrawlOptions) (CrawlReport, error) {
	store, err := a.openLibrary()
	if err != nil {
		return CrawlReport{}, err
	}
	defer store.Close()

	service := crawler.NewService(crawler.NewArxivClient(""), store, a.log.WithContext("crawler"))

	query, err := service.ResolveQuery(opts.Query)
	if err != nil {
		return CrawlReport{}, err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = a.config.DefaultCrawlOutputDir
	}
	if outputDir == "" {
		outputDir = filepath.Join(config.DefaultDataDir(), "papers")
	}
	resolved, err := crawler.ResolveOutputDir(outputDir)
	if err != nil {
		return CrawlReport{}, err
	}

	maxResults := opts.MaxResults
	if maxResults < 1 {
		maxResults = config.DefaultCrawlResults
	}

	a.log.Info("starting crawl", "query", query, "max_results", maxResults, "output_dir", resolved)

	report, err := service.Crawl(ctx, query, maxResults, resolved, opts.OnProgress)
	if err != nil {
		return report, err
	}

	a.config.LastCrawlQuery = query
	a.config.DefaultCrawlOutputDir = resolved
	if err := a.config.Save(); err != nil {
		a.log.Warn("failed to persist crawl settings", "error", err.Error())
	}

	return report, nil
}

// Serve runs the MCP tool server on stdio until the client disconnects.
func (a *App) Serve() error {
	var library *crawler.LibraryStore
	if store, err := a.openLibrary(); err == nil {
		library = store
		defer library.Close()
	} else {
		a.log.Warn("paper library unavailable", "error", err.Error())
	}

	engines := map[string]*summarize.Engine{
		summarize.ProfilePaper:  a.engine(summarize.ProfilePaper),
		summarize.ProfileReport: a.engine(summarize.ProfileReport),
	}

	srv := server.NewSummaryToolServer(a.loader, engines, library)
	if err := srv.Initialize(); err != nil {
		return err
	}
	return srv.Start()
}

func (a *App) openLibrary() (*crawler.LibraryStore, error) {
	store := crawler.NewLibraryStore()
	if err := store.Initialize(filepath.Join(config.DefaultDataDir(), libraryDBFileName)); err != nil {
		return nil, errortypes.DatabaseError(err, "failed to open paper library")
	}
	return store, nil
}
