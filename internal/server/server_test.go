package server

import (
	"errors"
	"strings"
	"testing"

	"github.com/Maxwell0339/paper-cli/internal/llm/providers"
	"github.com/Maxwell0339/paper-cli/internal/summarize"
	"github.com/Maxwell0339/paper-cli/internal/tools"
)

type stubLoader struct {
	text string
	err  error
}

func (s *stubLoader) LoadText(string) (string, bool, error) {
	return s.text, false, s.err
}

func testEngines(script ...providers.ScriptedCall) map[string]*summarize.Engine {
	engine := summarize.NewEngine(summarize.EngineConfig{
		Client: providers.NewScriptedProvider("mock", script...),
	})
	return map[string]*summarize.Engine{summarize.ProfilePaper: engine}
}

func TestInitializeRequiresDependencies(t *testing.T) {
	s := NewSummaryToolServer(nil, nil, nil)
	if err := s.Initialize(); err == nil {
		t.Error("Expected error for missing dependencies")
	}

	s = NewSummaryToolServer(&stubLoader{text: "x"}, testEngines(providers.ScriptedCall{}), nil)
	if err := s.Initialize(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestStartUninitialized(t *testing.T) {
	s := NewSummaryToolServer(&stubLoader{}, testEngines(providers.ScriptedCall{}), nil)
	if err := s.Start(); err == nil {
		t.Error("Expected error when starting without Initialize")
	}
}

func TestHandleSummarizeText(t *testing.T) {
	engines := testEngines(providers.ScriptedCall{
		Result: providers.ChatResult{Content: "structured summary", TotalTokens: 9},
	})
	s := NewSummaryToolServer(&stubLoader{}, engines, nil)

	resp, err := s.handleSummarizeText(nil, tools.SummarizeTextRequest{Text: "some paper text"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("Expected success, got %+v", resp)
	}
	if resp.Summary != "structured summary" || resp.TotalTokens != 9 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestHandleSummarizeTextEmpty(t *testing.T) {
	s := NewSummaryToolServer(&stubLoader{}, testEngines(providers.ScriptedCall{}), nil)
	resp, err := s.handleSummarizeText(nil, tools.SummarizeTextRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Status != "error" || !strings.Contains(resp.Error, "required") {
		t.Errorf("Expected validation error in response, got %+v", resp)
	}
}

func TestHandleSummarizeFileLoadFailure(t *testing.T) {
	s := NewSummaryToolServer(
		&stubLoader{err: errors.New("unreadable pdf")},
		testEngines(providers.ScriptedCall{}),
		nil,
	)
	resp, err := s.handleSummarizeFile(nil, tools.SummarizeFileRequest{Path: "/x.pdf"})
	if err != nil {
		t.Fatalf("Handler should report failures in the response, got %v", err)
	}
	if resp.Status != "error" || !strings.Contains(resp.Error, "unreadable pdf") {
		t.Errorf("Expected load error in response, got %+v", resp)
	}
}

func TestHandleSearchPapersWithoutLibrary(t *testing.T) {
	s := NewSummaryToolServer(&stubLoader{}, testEngines(providers.ScriptedCall{}), nil)
	resp, err := s.handleSearchPapers(nil, tools.SearchPapersRequest{Query: "attention"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Status != "error" {
		t.Errorf("Expected error without a library store, got %+v", resp)
	}
}
