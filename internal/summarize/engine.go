// Package summarize implements the map-reduce summarization engine.
// Long documents are split into paragraph-aligned segments, each segment
// is summarized independently, and the partial summaries are merged into
// one final structured summary.
package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Maxwell0339/paper-cli/internal/chunk"
	"github.com/Maxwell0339/paper-cli/internal/errortypes"
	"github.com/Maxwell0339/paper-cli/internal/llm/providers"
)

const (
	// ProfilePaper targets full research papers.
	ProfilePaper = "paper"
	// ProfileReport targets shorter technical reports.
	ProfileReport = "report"

	// Merge-input budgets per profile, in characters.
	paperMergeBudget  = 60000
	reportMergeBudget = 36000

	// DefaultChunkWorkers bounds segment-level parallelism within one
	// document.
	DefaultChunkWorkers = 3
)

// Completer issues a single chat completion. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (providers.ChatResult, error)
}

// Result is the outcome of summarizing one document.
type Result struct {
	Content     string
	ChunksUsed  int
	TotalTokens int
}

// Engine runs the map-reduce summarization flow. It is safe for
// concurrent use across documents; per-document segment parallelism is
// bounded by ChunkWorkers.
type Engine struct {
	client       Completer
	systemPrompt string
	chunkChars   int
	chunkWorkers int
	profile      string
}

// EngineConfig holds the knobs for an Engine.
type EngineConfig struct {
	Client       Completer
	SystemPrompt string
	ChunkChars   int
	ChunkWorkers int
	Profile      string
}

// NewEngine creates an Engine from the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.ChunkWorkers <= 0 {
		cfg.ChunkWorkers = DefaultChunkWorkers
	}
	if cfg.Profile != ProfilePaper && cfg.Profile != ProfileReport {
		cfg.Profile = ProfilePaper
	}
	return &Engine{
		client:       cfg.Client,
		systemPrompt: cfg.SystemPrompt,
		chunkChars:   cfg.ChunkChars,
		chunkWorkers: cfg.ChunkWorkers,
		profile:      cfg.Profile,
	}
}

// MergeBudget returns the merge-input character budget for the engine's
// profile.
func (e *Engine) MergeBudget() int {
	if e.profile == ProfileReport {
		return reportMergeBudget
	}
	return paperMergeBudget
}

// Summarize produces a structured summary of text. Documents that fit
// in a single segment take one remote call; longer documents take one
// call per segment plus a final merge call. Token counts from every
// call are summed into the result.
func (e *Engine) Summarize(ctx context.Context, text string) (Result, error) {
	segments := chunk.Split(text, e.chunkChars)

	if len(segments) == 1 {
		resp, err := e.client.Complete(ctx, e.systemPrompt, singleDocPrompt(segments[0]))
		if err != nil {
			return Result{}, err
		}
		return Result{
			Content:     resp.Content,
			ChunksUsed:  1,
			TotalTokens: resp.TotalTokens,
		}, nil
	}

	partials, partialTokens, err := e.mapSegments(ctx, segments)
	if err != nil {
		return Result{}, err
	}

	totalTokens := 0
	for _, n := range partialTokens {
		totalTokens += n
	}

	merged := e.mergeInput(partials)
	final, err := e.client.Complete(ctx, e.systemPrompt, mergePrompt(merged))
	if err != nil {
		return Result{}, err
	}
	totalTokens += final.TotalTokens

	return Result{
		Content:     final.Content,
		ChunksUsed:  len(segments),
		TotalTokens: totalTokens,
	}, nil
}

// mapSegments summarizes each segment and stores results by segment
// index, so merge input keeps the original document order regardless of
// completion order.
func (e *Engine) mapSegments(ctx context.Context, segments []string) ([]string, []int, error) {
	partials := make([]string, len(segments))
	partialTokens := make([]int, len(segments))

	if e.chunkWorkers <= 1 {
		for i, segment := range segments {
			resp, err := e.client.Complete(ctx, e.systemPrompt, segmentPrompt(i+1, len(segments), segment))
			if err != nil {
				return nil, nil, segmentError(err, i+1)
			}
			partials[i] = resp.Content
			partialTokens[i] = resp.TotalTokens
		}
		return partials, partialTokens, nil
	}

	workers := e.chunkWorkers
	if workers > len(segments) {
		workers = len(segments)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, workers)

	for i, segment := range segments {
		wg.Add(1)
		go func(idx int, seg string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp, err := e.client.Complete(ctx, e.systemPrompt, segmentPrompt(idx+1, len(segments), seg))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = segmentError(err, idx+1)
				}
				return
			}
			partials[idx] = resp.Content
			partialTokens[idx] = resp.TotalTokens
		}(i, segment)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return partials, partialTokens, nil
}

// mergeInput joins labeled partial summaries up to the profile budget.
// The first section is always kept; later sections that would exceed the
// budget are omitted.
func (e *Engine) mergeInput(partials []string) string {
	budget := e.MergeBudget()

	var sections []string
	mergedChars := 0
	for i, partial := range partials {
		section := strings.TrimSpace(sectionLabel(i+1, partial))
		nextLen := len(section) + len(chunk.Separator)
		if len(sections) > 0 && mergedChars+nextLen > budget {
			break
		}
		sections = append(sections, section)
		mergedChars += nextLen
	}

	return strings.Join(sections, chunk.Separator)
}

func segmentError(err error, idx int) error {
	var appErr *errortypes.AppError
	if errors.As(err, &appErr) {
		return appErr.WithField("segment", idx)
	}
	return err
}
