package webtk

import "time"

// Fetch methods recorded on a Document.
const (
	FetchMethodHTTP     = "http"
	FetchMethodBrowser  = "browser"
	FetchMethodProvided = "provided"
)

// HTTPInfo holds transport metadata for a fetched Document.
type HTTPInfo struct {
	Status        int               `json:"status"`
	FinalURL      string            `json:"final_url"`
	RedirectChain []string          `json:"redirect_chain,omitempty"`
	Headers       map[string]string `json:"headers"`
	BytesRead     int64             `json:"bytes_read"`
	Truncated     bool              `json:"truncated,omitempty"`
}

// ArtifactInfo describes the on-disk body artifact of a fetch.
type ArtifactInfo struct {
	// ContentType is the normalized type after sniffing, not necessarily
	// what the server declared.
	ContentType string `json:"content_type,omitempty"`
	BodyPath    string `json:"body_path,omitempty"`
	BodyBytes   int64  `json:"body_bytes"`
}

// RenderInfo describes browser-render artifacts.
type RenderInfo struct {
	ScreenshotPath   string `json:"screenshot_path,omitempty"`
	DOMSnapshotID    string `json:"dom_snapshot_id,omitempty"`
	WaitStrategyUsed string `json:"wait_strategy_used,omitempty"`
}

// DocSection is one heading-delimited region of a docs-strategy extraction.
// Sections are ordered as they appear in the source document.
type DocSection struct {
	HeadingLevel int      `json:"heading_level"`
	HeadingText  string   `json:"heading_text"`
	BodyMarkdown string   `json:"body_markdown,omitempty"`
	Links        []string `json:"links,omitempty"`
}

// ExtractedContent is the readable-content view of a Document.
type ExtractedContent struct {
	Title             string       `json:"title,omitempty"`
	Language          string       `json:"language,omitempty"`
	Markdown          string       `json:"markdown,omitempty"`
	Text              string       `json:"text,omitempty"`
	ContentHash       string       `json:"content_hash,omitempty"`
	ExtractionMethod  string       `json:"extraction_method"`
	ExtractionVersion string       `json:"extraction_version"`
	Sections          []DocSection `json:"doc_sections,omitempty"`
}

// Document is the shared unit carried between fetch, render, and extract.
// Every Document has a non-empty origin (URL or SourcePath) and a FetchedAt
// timestamp; optional fields are nil when absent, never empty sentinels.
type Document struct {
	URL         string            `json:"url,omitempty"`
	SourcePath  string            `json:"source_path,omitempty"`
	FetchedAt   time.Time         `json:"fetched_at"`
	FetchMethod string            `json:"fetch_method"`
	HTTP        *HTTPInfo         `json:"http,omitempty"`
	Artifact    *ArtifactInfo     `json:"artifact,omitempty"`
	Render      *RenderInfo       `json:"render,omitempty"`
	Extracted   *ExtractedContent `json:"extracted,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// NewDocument creates a Document with the origin URL and fetch method,
// stamped with the current UTC time.
func NewDocument(url, fetchMethod string) *Document {
	return &Document{
		URL:         url,
		FetchedAt:   time.Now().UTC(),
		FetchMethod: fetchMethod,
	}
}

// Validate returns an error if the document violates its invariants.
func (d *Document) Validate() error {
	if d.URL == "" && d.SourcePath == "" {
		return Errorf(EINVALID, "document origin required (url or source path)")
	}
	if d.FetchedAt.IsZero() {
		return Errorf(EINVALID, "document fetched_at required")
	}
	switch d.FetchMethod {
	case FetchMethodHTTP, FetchMethodBrowser, FetchMethodProvided:
	default:
		return Errorf(EINVALID, "invalid fetch method %q", d.FetchMethod)
	}
	return nil
}

// AddWarning appends a warning, deduplicating by exact message and
// preserving discovery order.
func (d *Document) AddWarning(message string) {
	d.Warnings = AppendWarning(d.Warnings, message)
}

// AppendWarning appends message to warnings unless an identical message is
// already present. Warnings keep discovery order.
func AppendWarning(warnings []string, message string) []string {
	for _, w := range warnings {
		if w == message {
			return warnings
		}
	}
	return append(warnings, message)
}
