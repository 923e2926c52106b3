package crawler

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Maxwell0339/paper-cli/internal/errortypes"
)

const (
	// ArxivAPIURL is the arXiv Atom query endpoint.
	ArxivAPIURL = "https://export.arxiv.org/api/query"

	userAgent = "paper-cli/0.1 (+https://github.com/Maxwell0339/paper-cli)"

	searchTimeout   = 30 * time.Second
	downloadTimeout = 60 * time.Second
)

// Paper is one search hit from the arXiv API.
type Paper struct {
	ArxivID string
	Title   string
	PDFURL  string
}

// ArxivClient queries the arXiv export API and downloads papers.
type ArxivClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewArxivClient creates a client against the public arXiv API.
// baseURL overrides the endpoint when non-empty.
func NewArxivClient(baseURL string) *ArxivClient {
	if baseURL == "" {
		baseURL = ArxivAPIURL
	}
	return &ArxivClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: downloadTimeout},
	}
}

// atomFeed mirrors the subset of the arXiv Atom response we consume.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID    string     `xml:"id"`
	Title string     `xml:"title"`
	Links []atomLink `xml:"link"`
}

type atomLink struct {
	Title string `xml:"title,attr"`
	Rel   string `xml:"rel,attr"`
	Href  string `xml:"href,attr"`
}

// Search queries arXiv for papers matching query, newest first.
func (c *ArxivClient) Search(ctx context.Context, query string, maxResults int) ([]Paper, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errortypes.ValidationError(nil, "query cannot be empty")
	}
	if maxResults < 1 {
		maxResults = 1
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errortypes.ValidationError(err, "error creating arxiv request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errortypes.ConnectionError(err, "failed to query arxiv api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errortypes.APIError(
			fmt.Errorf("status %d", resp.StatusCode),
			"arxiv api returned an error",
		)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errortypes.ConnectionError(err, "failed to read arxiv response")
	}

	var feed atomFeed
	if err := xml.Unmarshal(payload, &feed); err != nil {
		return nil, errortypes.APIError(err, "invalid xml response from arxiv api")
	}

	var papers []Paper
	for _, entry := range feed.Entries {
		title := strings.Join(strings.Fields(entry.Title), " ")
		if title == "" {
			continue
		}
		arxivID := extractID(entry.ID)
		pdfURL, err := extractPDFURL(entry, arxivID)
		if err != nil {
			return nil, errortypes.APIError(err, fmt.Sprintf("invalid entry for arxiv id %s", arxivID))
		}
		papers = append(papers, Paper{ArxivID: arxivID, Title: title, PDFURL: pdfURL})
	}

	return papers, nil
}

// DownloadPDF fetches pdfURL into targetPath. The response must start
// with the PDF magic bytes; anything else is rejected and nothing is
// left on disk.
func (c *ArxivClient) DownloadPDF(ctx context.Context, pdfURL, targetPath string) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return errortypes.DocumentError(err, "failed to create download dir")
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return errortypes.ValidationError(err, "error creating download request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errortypes.ConnectionError(err, fmt.Sprintf("failed to download pdf from %s", pdfURL))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errortypes.APIError(
			fmt.Errorf("status %d", resp.StatusCode),
			fmt.Sprintf("failed to download pdf from %s", pdfURL),
		)
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(resp.Body, header); err != nil || string(header) != "%PDF" {
		return errortypes.DocumentError(err, "downloaded content is not a pdf")
	}

	f, err := os.Create(targetPath)
	if err != nil {
		return errortypes.DocumentError(err, fmt.Sprintf("failed to create %s", targetPath))
	}

	if _, err := f.Write(header); err == nil {
		_, err = io.Copy(f, resp.Body)
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(targetPath)
		return errortypes.ConnectionError(err, fmt.Sprintf("failed to download pdf from %s", pdfURL))
	}

	return nil
}

// extractID takes the trailing path segment of an Atom entry id, e.g.
// "http://arxiv.org/abs/2101.00001v2" -> "2101.00001v2".
func extractID(rawID string) string {
	rawID = strings.TrimRight(strings.TrimSpace(rawID), "/")
	if rawID == "" {
		return ""
	}
	parts := strings.Split(rawID, "/")
	return parts[len(parts)-1]
}

func extractPDFURL(entry atomEntry, arxivID string) (string, error) {
	for _, link := range entry.Links {
		href := strings.TrimSpace(link.Href)
		if href == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(link.Title), "pdf") {
			return href, nil
		}
		if strings.EqualFold(strings.TrimSpace(link.Rel), "related") && strings.HasSuffix(href, ".pdf") {
			return href, nil
		}
	}
	if arxivID != "" {
		return fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", arxivID), nil
	}
	return "", fmt.Errorf("no valid pdf url found in entry")
}
