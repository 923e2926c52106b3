package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
	"github.com/Maxwell0339/paper-cli/internal/llm/providers"
)

// fakeCompleter answers completions from a function and records every
// user prompt it receives.
type fakeCompleter struct {
	mu      sync.Mutex
	answer  func(userPrompt string) (providers.ChatResult, error)
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, userPrompt string) (providers.ChatResult, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, userPrompt)
	f.mu.Unlock()
	return f.answer(userPrompt)
}

func (f *fakeCompleter) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestSummarizeSingleSegment(t *testing.T) {
	client := &fakeCompleter{
		answer: func(string) (providers.ChatResult, error) {
			return providers.ChatResult{Content: "final summary", TotalTokens: 11}, nil
		},
	}
	engine := NewEngine(EngineConfig{
		Client:     client,
		ChunkChars: 1000,
		Profile:    ProfilePaper,
	})

	result, err := engine.Summarize(context.Background(), "a short paper")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Content != "final summary" {
		t.Errorf("Unexpected content: %q", result.Content)
	}
	if result.ChunksUsed != 1 {
		t.Errorf("Expected 1 chunk, got %d", result.ChunksUsed)
	}
	if result.TotalTokens != 11 {
		t.Errorf("Expected 11 tokens, got %d", result.TotalTokens)
	}
	if client.promptCount() != 1 {
		t.Errorf("Expected exactly one remote call, got %d", client.promptCount())
	}
	if !strings.Contains(client.prompts[0], "a short paper") {
		t.Error("Prompt should carry the document text")
	}
}

func TestSummarizeMapReduce(t *testing.T) {
	// Three paragraphs of 30 chars each with a limit of 40 force one
	// segment per paragraph.
	paragraphs := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	text := strings.Join(paragraphs, "\n\n")

	client := &fakeCompleter{
		answer: func(userPrompt string) (providers.ChatResult, error) {
			for i := range paragraphs {
				if strings.Contains(userPrompt, fmt.Sprintf("part %d of 3", i+1)) {
					return providers.ChatResult{Content: fmt.Sprintf("points-%d", i+1), TotalTokens: 10}, nil
				}
			}
			return providers.ChatResult{Content: "merged summary", TotalTokens: 7}, nil
		},
	}
	engine := NewEngine(EngineConfig{
		Client:       client,
		ChunkChars:   40,
		ChunkWorkers: 2,
		Profile:      ProfilePaper,
	})

	result, err := engine.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Content != "merged summary" {
		t.Errorf("Unexpected content: %q", result.Content)
	}
	if result.ChunksUsed != 3 {
		t.Errorf("Expected 3 chunks, got %d", result.ChunksUsed)
	}
	if result.TotalTokens != 37 {
		t.Errorf("Expected 30+7 tokens, got %d", result.TotalTokens)
	}
	if client.promptCount() != 4 {
		t.Errorf("Expected 3 map calls plus 1 merge call, got %d", client.promptCount())
	}

	// The merge prompt must list segments in document order.
	mergeCall := client.prompts[len(client.prompts)-1]
	i1 := strings.Index(mergeCall, "### Segment 1\npoints-1")
	i2 := strings.Index(mergeCall, "### Segment 2\npoints-2")
	i3 := strings.Index(mergeCall, "### Segment 3\npoints-3")
	if i1 < 0 || i2 < 0 || i3 < 0 || !(i1 < i2 && i2 < i3) {
		t.Errorf("Merge input out of order or incomplete:\n%s", mergeCall)
	}
}

func TestSummarizeMergeOrderIndependentOfCompletion(t *testing.T) {
	paragraphs := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	text := strings.Join(paragraphs, "\n\n")

	// Delay earlier segments so they complete last.
	client := &fakeCompleter{
		answer: func(userPrompt string) (providers.ChatResult, error) {
			switch {
			case strings.Contains(userPrompt, "part 1 of 3"):
				time.Sleep(30 * time.Millisecond)
				return providers.ChatResult{Content: "first"}, nil
			case strings.Contains(userPrompt, "part 2 of 3"):
				time.Sleep(15 * time.Millisecond)
				return providers.ChatResult{Content: "second"}, nil
			case strings.Contains(userPrompt, "part 3 of 3"):
				return providers.ChatResult{Content: "third"}, nil
			}
			return providers.ChatResult{Content: "merged"}, nil
		},
	}
	engine := NewEngine(EngineConfig{
		Client:       client,
		ChunkChars:   40,
		ChunkWorkers: 3,
	})

	if _, err := engine.Summarize(context.Background(), text); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	mergeCall := client.prompts[len(client.prompts)-1]
	i1 := strings.Index(mergeCall, "### Segment 1\nfirst")
	i2 := strings.Index(mergeCall, "### Segment 2\nsecond")
	i3 := strings.Index(mergeCall, "### Segment 3\nthird")
	if i1 < 0 || i2 < 0 || i3 < 0 || !(i1 < i2 && i2 < i3) {
		t.Errorf("Merge input must follow document order, got:\n%s", mergeCall)
	}
}

func TestSummarizeSequentialWhenSingleWorker(t *testing.T) {
	paragraphs := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
	}
	text := strings.Join(paragraphs, "\n\n")

	client := &fakeCompleter{
		answer: func(string) (providers.ChatResult, error) {
			return providers.ChatResult{Content: "x", TotalTokens: 1}, nil
		},
	}
	engine := NewEngine(EngineConfig{
		Client:       client,
		ChunkChars:   40,
		ChunkWorkers: 1,
	})

	result, err := engine.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ChunksUsed != 2 {
		t.Errorf("Expected 2 chunks, got %d", result.ChunksUsed)
	}
	if result.TotalTokens != 3 {
		t.Errorf("Expected 3 tokens across 2 map calls and 1 merge, got %d", result.TotalTokens)
	}
}

func TestSummarizeSegmentFailurePropagates(t *testing.T) {
	paragraphs := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	text := strings.Join(paragraphs, "\n\n")

	client := &fakeCompleter{
		answer: func(userPrompt string) (providers.ChatResult, error) {
			if strings.Contains(userPrompt, "part 2 of 3") {
				return providers.ChatResult{}, errortypes.APIError(errors.New("boom"), "upstream error")
			}
			return providers.ChatResult{Content: "ok"}, nil
		},
	}
	engine := NewEngine(EngineConfig{
		Client:       client,
		ChunkChars:   40,
		ChunkWorkers: 2,
	})

	_, err := engine.Summarize(context.Background(), text)
	if err == nil {
		t.Fatal("Expected error from failing segment")
	}
	var appErr *errortypes.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got %v", err)
	}
	if appErr.Fields["segment"] != 2 {
		t.Errorf("Expected failing segment index in fields, got %v", appErr.Fields)
	}
}

func TestMergeBudgetTruncation(t *testing.T) {
	// Two large paragraphs whose labeled partials overflow the report
	// budget: the first section always survives, the second is dropped.
	paragraphs := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
	}
	text := strings.Join(paragraphs, "\n\n")

	big := strings.Repeat("x", reportMergeBudget)
	client := &fakeCompleter{
		answer: func(userPrompt string) (providers.ChatResult, error) {
			if strings.Contains(userPrompt, "part ") {
				return providers.ChatResult{Content: big}, nil
			}
			return providers.ChatResult{Content: "merged"}, nil
		},
	}
	engine := NewEngine(EngineConfig{
		Client:       client,
		ChunkChars:   40,
		ChunkWorkers: 2,
		Profile:      ProfileReport,
	})

	if _, err := engine.Summarize(context.Background(), text); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	mergeCall := client.prompts[len(client.prompts)-1]
	if !strings.Contains(mergeCall, "### Segment 1") {
		t.Error("First section must always be included")
	}
	if strings.Contains(mergeCall, "### Segment 2") {
		t.Error("Second section should be dropped by the budget")
	}
}

func TestEngineProfileDefaults(t *testing.T) {
	e := NewEngine(EngineConfig{Profile: "bogus"})
	if e.MergeBudget() != paperMergeBudget {
		t.Errorf("Unknown profile should fall back to paper budget, got %d", e.MergeBudget())
	}
	e = NewEngine(EngineConfig{Profile: ProfileReport})
	if e.MergeBudget() != reportMergeBudget {
		t.Errorf("Expected report budget, got %d", e.MergeBudget())
	}
}
