// Package tools defines the MCP tool names and request/response
// schemas exposed by the paper-cli server.
package tools

const (
	// ToolSummarizeFile is the name of the summarize_file MCP tool
	ToolSummarizeFile = "summarize_file"

	// ToolSummarizeText is the name of the summarize_text MCP tool
	ToolSummarizeText = "summarize_text"

	// ToolSearchPapers is the name of the search_papers MCP tool
	ToolSearchPapers = "search_papers"

	// DefaultSearchLimit is the default number of results to return
	// when no limit is specified in a search_papers request
	DefaultSearchLimit = 10
)

// SummarizeFileRequest defines the input schema for summarize_file tool
type SummarizeFileRequest struct {
	// Path is the PDF file to summarize
	Path string `json:"path"`

	// Profile selects the merge budget ("paper" or "report")
	Profile string `json:"profile,omitempty"`
}

// SummarizeFileResponse defines the output schema for summarize_file tool
type SummarizeFileResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Summary is the structured Markdown summary
	Summary string `json:"summary,omitempty"`

	// ChunksUsed is the number of segments the document was split into
	ChunksUsed int `json:"chunks_used,omitempty"`

	// Truncated reports whether the extracted text hit the size cap
	Truncated bool `json:"truncated,omitempty"`

	// TotalTokens is the token count across all remote calls
	TotalTokens int `json:"total_tokens,omitempty"`

	// FromCache reports whether the summary was served from the cache
	FromCache bool `json:"from_cache,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// SummarizeTextRequest defines the input schema for summarize_text tool
type SummarizeTextRequest struct {
	// Text is the raw document text to summarize
	Text string `json:"text"`

	// Profile selects the merge budget ("paper" or "report")
	Profile string `json:"profile,omitempty"`
}

// SummarizeTextResponse defines the output schema for summarize_text tool
type SummarizeTextResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Summary is the structured Markdown summary
	Summary string `json:"summary,omitempty"`

	// ChunksUsed is the number of segments the text was split into
	ChunksUsed int `json:"chunks_used,omitempty"`

	// TotalTokens is the token count across all remote calls
	TotalTokens int `json:"total_tokens,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// SearchPapersRequest defines the input schema for search_papers tool
type SearchPapersRequest struct {
	// Query matches against the titles of downloaded papers
	Query string `json:"query"`

	// Limit is the maximum number of results to return
	// If not specified, DefaultSearchLimit will be used
	Limit int `json:"limit,omitempty"`
}

// PaperResult is one library entry returned by search_papers
type PaperResult struct {
	// ArxivID is the arXiv identifier of the paper
	ArxivID string `json:"arxiv_id"`

	// Title is the paper title
	Title string `json:"title"`

	// FilePath is the local path of the downloaded PDF
	FilePath string `json:"file_path"`

	// FetchedAt is when the paper was downloaded, in RFC 3339 form
	FetchedAt string `json:"fetched_at"`
}

// SearchPapersResponse defines the output schema for search_papers tool
type SearchPapersResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	// Results contains the matching library entries
	Results []PaperResult `json:"results"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}
