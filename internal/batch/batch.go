// Package batch runs the document-level pipeline: load, cache lookup,
// summarize, write, with bounded file-level parallelism and per-document
// failure isolation.
package batch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/Maxwell0339/paper-cli/internal/cache"
	"github.com/Maxwell0339/paper-cli/internal/logger"
	"github.com/Maxwell0339/paper-cli/internal/summarize"
	"github.com/Maxwell0339/paper-cli/internal/telemetry"
	"github.com/Maxwell0339/paper-cli/internal/writer"
)

// DefaultFileWorkers bounds document-level parallelism.
const DefaultFileWorkers = 2

// Loader extracts text from a document. *loader.PDFLoader satisfies it.
type Loader interface {
	LoadText(path string) (text string, truncated bool, err error)
}

// Summarizer produces the summary of one document's text.
// *summarize.Engine satisfies it.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (summarize.Result, error)
	MergeBudget() int
}

// Report aggregates the outcome of one batch run.
type Report struct {
	Total       int
	Success     int
	Failed      int
	TotalTokens int
}

// DocResult describes the outcome of one processed document.
type DocResult struct {
	Path        string
	OutputPath  string
	ChunksUsed  int
	Truncated   bool
	TotalTokens int
	FromCache   bool
	Err         error
}

// KeySettings are the summarization parameters folded into every cache
// key alongside the document hash.
type KeySettings struct {
	Model        string
	SystemPrompt string
	MaxChars     int
	ChunkChars   int
	Profile      string
}

// Orchestrator coordinates the per-document pipeline across a worker
// pool. Cache is optional; a nil cache disables both summary reuse and
// file-hash memoization.
type Orchestrator struct {
	loader      Loader
	engine      Summarizer
	cache       *cache.Cache
	keySettings KeySettings
	outputDir   string
	fileWorkers int
	metrics     *telemetry.MetricsCollector
	log         *logger.Logger

	// onResult, when set, observes each document result as it is
	// harvested. Used for progress reporting.
	onResult func(done, total int, res DocResult)
}

// OrchestratorConfig holds the knobs for an Orchestrator.
type OrchestratorConfig struct {
	Loader      Loader
	Engine      Summarizer
	Cache       *cache.Cache
	KeySettings KeySettings
	OutputDir   string
	FileWorkers int
	Metrics     *telemetry.MetricsCollector
	Logger      *logger.Logger
	OnResult    func(done, total int, res DocResult)
}

// NewOrchestrator creates an Orchestrator from the given configuration.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.FileWorkers <= 0 {
		cfg.FileWorkers = DefaultFileWorkers
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetricsCollector()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	return &Orchestrator{
		loader:      cfg.Loader,
		engine:      cfg.Engine,
		cache:       cfg.Cache,
		keySettings: cfg.KeySettings,
		outputDir:   cfg.OutputDir,
		fileWorkers: cfg.FileWorkers,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
		onResult:    cfg.OnResult,
	}
}

// Run processes every document in paths and returns the aggregate
// report. Each document fails or succeeds independently; one document's
// error never affects the others. Counter updates happen serially in
// the harvest loop.
func (o *Orchestrator) Run(ctx context.Context, paths []string) Report {
	report := Report{Total: len(paths)}
	if len(paths) == 0 {
		return report
	}

	workers := o.fileWorkers
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make(chan DocResult, len(paths))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, path := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				// Count skipped documents too, so the seen counter
				// matches the report total.
				o.metrics.IncrementCounter(telemetry.MetricDocumentsSeen, 1)
				results <- DocResult{Path: p, Err: ctx.Err()}
				return
			default:
			}

			results <- o.processOne(ctx, p)
		}(path)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		done++
		if res.Err != nil {
			report.Failed++
			o.metrics.IncrementCounter(telemetry.MetricDocumentsFailed, 1)
			logger.LogError(o.log.WithField("document", res.Path), res.Err)
		} else {
			report.Success++
			report.TotalTokens += res.TotalTokens
			o.metrics.IncrementCounter(telemetry.MetricDocumentsSucceeded, 1)
		}
		if o.onResult != nil {
			o.onResult(done, report.Total, res)
		}
	}

	return report
}

// updateCacheGauges publishes the cache's current entry and fingerprint
// counts. Callers must check o.cache for nil first.
func (o *Orchestrator) updateCacheGauges() {
	entries, fingerprints := o.cache.Stats()
	o.metrics.SetGauge(telemetry.MetricCacheEntries, float64(entries))
	o.metrics.SetGauge(telemetry.MetricFileHashes, float64(fingerprints))
}

// processOne runs the full pipeline for a single document.
func (o *Orchestrator) processOne(ctx context.Context, path string) DocResult {
	start := time.Now()
	defer func() {
		o.metrics.RecordTimer(telemetry.MetricDocumentTime, time.Since(start))
	}()
	o.metrics.IncrementCounter(telemetry.MetricDocumentsSeen, 1)

	text, truncated, err := o.loader.LoadText(path)
	if err != nil {
		return DocResult{Path: path, Err: err}
	}

	var key string
	if o.cache != nil {
		docHash, err := o.cache.ResolveFileHash(path)
		if err != nil {
			return DocResult{Path: path, Err: err}
		}
		o.updateCacheGauges()
		key = cache.BuildKey(cache.KeyParams{
			DocHash:      docHash,
			Model:        o.keySettings.Model,
			SystemPrompt: o.keySettings.SystemPrompt,
			MaxChars:     o.keySettings.MaxChars,
			ChunkChars:   o.keySettings.ChunkChars,
			Profile:      o.keySettings.Profile,
		})

		if entry, ok := o.cache.Get(key); ok {
			o.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
			outPath, err := writer.WriteMarkdown(path, entry.Content, o.outputDir)
			if err != nil {
				return DocResult{Path: path, Err: err}
			}
			return DocResult{
				Path:       path,
				OutputPath: outPath,
				ChunksUsed: entry.ChunksUsed,
				Truncated:  entry.Truncated,
				FromCache:  true,
			}
		}
		o.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)
	}

	result, err := o.engine.Summarize(ctx, text)
	if err != nil {
		return DocResult{Path: path, Err: err}
	}

	outPath, err := writer.WriteMarkdown(path, result.Content, o.outputDir)
	if err != nil {
		return DocResult{Path: path, Err: err}
	}

	if o.cache != nil {
		if err := o.cache.Set(key, cache.Entry{
			Content:    result.Content,
			ChunksUsed: result.ChunksUsed,
			Truncated:  truncated,
		}); err != nil {
			o.log.Warn("cache write failed", "document", filepath.Base(path), "error", err.Error())
		}
		o.updateCacheGauges()
	}

	return DocResult{
		Path:        path,
		OutputPath:  outPath,
		ChunksUsed:  result.ChunksUsed,
		Truncated:   truncated,
		TotalTokens: result.TotalTokens,
	}
}
