// Package crawler searches arXiv for papers and downloads them into the
// local library, tracking what has been fetched in SQLite.
package crawler

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
	"github.com/Maxwell0339/paper-cli/internal/logger"
)

// CrawlReport aggregates the outcome of one crawl run.
type CrawlReport struct {
	Fetched int
	Saved   int
	Skipped int
	Failed  int
}

// ProgressFunc observes each paper as it is handled. status is one of
// "saved", "skip", "failed".
type ProgressFunc func(status string, paper Paper, targetPath string)

// Service runs crawls against arXiv and records results in the library
// store. The store is optional; a nil store disables dedup by arXiv id
// and last-query fallback.
type Service struct {
	client *ArxivClient
	store  *LibraryStore
	log    *logger.Logger
}

// NewService creates a crawl service.
func NewService(client *ArxivClient, store *LibraryStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{client: client, store: store, log: log}
}

// ResolveQuery picks the query to run: the explicit CLI query when
// given, otherwise the stored last query.
func (s *Service) ResolveQuery(cliQuery string) (string, error) {
	query := strings.TrimSpace(cliQuery)
	if query != "" {
		return query, nil
	}

	if s.store != nil {
		last, err := s.store.LastQuery()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(last) != "" {
			return strings.TrimSpace(last), nil
		}
	}

	return "", errortypes.ValidationError(nil, "missing query; pass --query at least once")
}

// Crawl searches for query and downloads up to maxResults papers into
// outputDir. Papers whose file already exists, or whose arXiv id is
// already recorded, are skipped. Individual download failures do not
// stop the run.
func (s *Service) Crawl(ctx context.Context, query string, maxResults int, outputDir string, onProgress ProgressFunc) (CrawlReport, error) {
	papers, err := s.client.Search(ctx, query, maxResults)
	if err != nil {
		return CrawlReport{}, err
	}

	report := CrawlReport{Fetched: len(papers)}

	for _, paper := range papers {
		filename := NormalizeTitleToFilename(paper.Title)
		targetPath := filepath.Join(outputDir, filename)

		if s.alreadyHave(paper, targetPath) {
			report.Skipped++
			if onProgress != nil {
				onProgress("skip", paper, targetPath)
			}
			continue
		}

		if err := s.client.DownloadPDF(ctx, paper.PDFURL, targetPath); err != nil {
			report.Failed++
			s.log.Warn("download failed", "arxiv_id", paper.ArxivID, "error", err.Error())
			if onProgress != nil {
				onProgress("failed", paper, targetPath)
			}
			continue
		}

		if s.store != nil {
			if _, err := s.store.RecordPaper(paper, targetPath, time.Now()); err != nil {
				s.log.Warn("failed to record paper", "arxiv_id", paper.ArxivID, "error", err.Error())
			}
		}

		report.Saved++
		if onProgress != nil {
			onProgress("saved", paper, targetPath)
		}
	}

	if s.store != nil {
		if err := s.store.SetLastQuery(query); err != nil {
			s.log.Warn("failed to store last query", "error", err.Error())
		}
	}

	return report, nil
}

func (s *Service) alreadyHave(paper Paper, targetPath string) bool {
	if fileExists(targetPath) {
		return true
	}
	if s.store != nil && paper.ArxivID != "" {
		if has, err := s.store.HasPaper(paper.ArxivID); err == nil && has {
			return true
		}
	}
	return false
}
