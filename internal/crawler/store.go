package crawler

import (
	"fmt"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"github.com/google/uuid"
)

// PaperRecord is one downloaded paper tracked in the library database.
type PaperRecord struct {
	ID        string
	ArxivID   string
	Title     string
	PDFURL    string
	FilePath  string
	FetchedAt time.Time
}

// LibraryStore tracks downloaded papers and crawl state in SQLite.
// A mutex serializes statement use since a sqlite.Conn is not safe for
// concurrent access.
type LibraryStore struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	dbPath string
}

// NewLibraryStore creates an uninitialized LibraryStore.
func NewLibraryStore() *LibraryStore {
	return &LibraryStore{}
}

// Initialize opens the database at dbPath and creates the schema.
func (s *LibraryStore) Initialize(dbPath string) error {
	s.dbPath = dbPath

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	s.conn = conn

	if err := s.createTables(); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

func (s *LibraryStore) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			arxiv_id TEXT NOT NULL,
			title TEXT NOT NULL,
			pdf_url TEXT NOT NULL,
			file_path TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_papers_arxiv_id ON papers(arxiv_id);`,
		`CREATE TABLE IF NOT EXISTS crawl_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}

	for _, sql := range statements {
		stmt, err := s.conn.Prepare(sql)
		if err != nil {
			return fmt.Errorf("failed to prepare schema statement: %w", err)
		}
		if _, err := stmt.Step(); err != nil {
			stmt.Reset()
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
		stmt.Reset()
	}

	return nil
}

// Close closes the store and releases any resources.
func (s *LibraryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// RecordPaper inserts or replaces the record for a downloaded paper and
// returns its id.
func (s *LibraryStore) RecordPaper(paper Paper, filePath string, fetchedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	insertSQL := `
	INSERT INTO papers (id, arxiv_id, title, pdf_url, file_path, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(arxiv_id) DO UPDATE SET
		title = excluded.title,
		pdf_url = excluded.pdf_url,
		file_path = excluded.file_path,
		fetched_at = excluded.fetched_at;`

	stmt, err := s.conn.Prepare(insertSQL)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	// Bind parameters - indices in sqlite are 1-based
	stmt.BindText(1, id)
	stmt.BindText(2, paper.ArxivID)
	stmt.BindText(3, paper.Title)
	stmt.BindText(4, paper.PDFURL)
	stmt.BindText(5, filePath)
	stmt.BindInt64(6, fetchedAt.Unix())

	if _, err := stmt.Step(); err != nil {
		return "", fmt.Errorf("failed to insert paper record: %w", err)
	}

	return id, nil
}

// HasPaper reports whether a paper with the given arXiv id is already
// recorded.
func (s *LibraryStore) HasPaper(arxivID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare(`SELECT 1 FROM papers WHERE arxiv_id = ? LIMIT 1;`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, arxivID)
	hasRow, err := stmt.Step()
	if err != nil {
		return false, fmt.Errorf("failed to execute select statement: %w", err)
	}
	return hasRow, nil
}

// SearchPapers returns recorded papers whose title contains term,
// newest first. An empty term lists everything up to limit.
func (s *LibraryStore) SearchPapers(term string, limit int) ([]PaperRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 1 {
		limit = 20
	}

	selectSQL := `
	SELECT id, arxiv_id, title, pdf_url, file_path, fetched_at FROM papers
	WHERE title LIKE ?
	ORDER BY fetched_at DESC
	LIMIT ?;`

	stmt, err := s.conn.Prepare(selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, "%"+term+"%")
	stmt.BindInt64(2, int64(limit))

	var records []PaperRecord
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to execute select statement: %w", err)
		}
		if !hasRow {
			break
		}

		// Column indices are 0-based
		records = append(records, PaperRecord{
			ID:        stmt.ColumnText(0),
			ArxivID:   stmt.ColumnText(1),
			Title:     stmt.ColumnText(2),
			PDFURL:    stmt.ColumnText(3),
			FilePath:  stmt.ColumnText(4),
			FetchedAt: time.Unix(stmt.ColumnInt64(5), 0),
		})
	}

	return records, nil
}

// LastQuery returns the most recent crawl query, or "" when none has
// been stored.
func (s *LibraryStore) LastQuery() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare(`SELECT value FROM crawl_state WHERE key = 'last_query';`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Reset()

	hasRow, err := stmt.Step()
	if err != nil {
		return "", fmt.Errorf("failed to execute select statement: %w", err)
	}
	if !hasRow {
		return "", nil
	}
	return stmt.ColumnText(0), nil
}

// SetLastQuery stores the crawl query for reuse on the next run.
func (s *LibraryStore) SetLastQuery(query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, err := s.conn.Prepare(`INSERT OR REPLACE INTO crawl_state (key, value) VALUES ('last_query', ?);`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Reset()

	stmt.BindText(1, query)
	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to store last query: %w", err)
	}
	return nil
}
