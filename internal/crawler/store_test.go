package crawler

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *LibraryStore {
	t.Helper()
	store := NewLibraryStore()
	if err := store.Initialize(filepath.Join(t.TempDir(), "library.db")); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLibraryStoreRecordAndLookup(t *testing.T) {
	store := newTestStore(t)

	paper := Paper{
		ArxivID: "2101.00001v2",
		Title:   "Attention Is All You Need",
		PDFURL:  "http://arxiv.org/pdf/2101.00001v2",
	}

	id, err := store.RecordPaper(paper, "/library/attention.pdf", time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Failed to record paper: %v", err)
	}
	if id == "" {
		t.Error("Expected a generated id")
	}

	has, err := store.HasPaper(paper.ArxivID)
	if err != nil {
		t.Fatalf("HasPaper failed: %v", err)
	}
	if !has {
		t.Error("Expected recorded paper to be found")
	}

	has, err = store.HasPaper("9999.99999")
	if err != nil {
		t.Fatalf("HasPaper failed: %v", err)
	}
	if has {
		t.Error("Unknown arxiv id should not be found")
	}
}

func TestLibraryStoreSearch(t *testing.T) {
	store := newTestStore(t)

	papers := []Paper{
		{ArxivID: "1", Title: "Graph Neural Networks Survey", PDFURL: "u1"},
		{ArxivID: "2", Title: "Attention Mechanisms", PDFURL: "u2"},
		{ArxivID: "3", Title: "Neural Attention Models", PDFURL: "u3"},
	}
	for i, p := range papers {
		if _, err := store.RecordPaper(p, "/library/p.pdf", time.Unix(int64(1700000000+i), 0)); err != nil {
			t.Fatalf("Failed to record paper: %v", err)
		}
	}

	records, err := store.SearchPapers("Attention", 10)
	if err != nil {
		t.Fatalf("SearchPapers failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(records))
	}
	// Newest first.
	if records[0].ArxivID != "3" || records[1].ArxivID != "2" {
		t.Errorf("Expected newest-first ordering, got %v, %v", records[0].ArxivID, records[1].ArxivID)
	}

	all, err := store.SearchPapers("", 10)
	if err != nil {
		t.Fatalf("SearchPapers failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Empty term should list everything, got %d", len(all))
	}
}

func TestLibraryStoreRecordUpsertsByArxivID(t *testing.T) {
	store := newTestStore(t)

	paper := Paper{ArxivID: "2101.00001", Title: "First Title", PDFURL: "u"}
	if _, err := store.RecordPaper(paper, "/a.pdf", time.Unix(1, 0)); err != nil {
		t.Fatalf("Failed to record paper: %v", err)
	}

	paper.Title = "Updated Title"
	if _, err := store.RecordPaper(paper, "/b.pdf", time.Unix(2, 0)); err != nil {
		t.Fatalf("Failed to re-record paper: %v", err)
	}

	records, err := store.SearchPapers("", 10)
	if err != nil {
		t.Fatalf("SearchPapers failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected one record after upsert, got %d", len(records))
	}
	if records[0].Title != "Updated Title" || records[0].FilePath != "/b.pdf" {
		t.Errorf("Expected updated fields, got %+v", records[0])
	}
}

func TestLibraryStoreLastQuery(t *testing.T) {
	store := newTestStore(t)

	last, err := store.LastQuery()
	if err != nil {
		t.Fatalf("LastQuery failed: %v", err)
	}
	if last != "" {
		t.Errorf("Expected empty last query initially, got %q", last)
	}

	if err := store.SetLastQuery("diffusion models"); err != nil {
		t.Fatalf("SetLastQuery failed: %v", err)
	}
	if err := store.SetLastQuery("state space models"); err != nil {
		t.Fatalf("SetLastQuery failed: %v", err)
	}

	last, err = store.LastQuery()
	if err != nil {
		t.Fatalf("LastQuery failed: %v", err)
	}
	if last != "state space models" {
		t.Errorf("Expected most recent query, got %q", last)
	}
}
