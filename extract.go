package webtk

import (
	"crypto/sha256"
	"encoding/hex"
)

// Extraction strategies.
const (
	StrategyAuto        = "auto"
	StrategyReadability = "readability"
	StrategyDocs        = "docs"
)

// ExtractionVersion is bumped whenever extraction output may change shape
// or content for identical input; eval uses it to explain hash drift.
const ExtractionVersion = "1"

// ExtractLimits bounds the size of extracted output.
type ExtractLimits struct {
	// MaxChars truncates the serialized output at a UTF-8 boundary.
	MaxChars int

	// MaxTokens truncates using a whitespace and punctuation
	// approximation of roughly chars/4, section-wise for the docs
	// strategy and paragraph-wise for readability.
	MaxTokens int
}

// Converter converts clean HTML into Markdown.
type Converter interface {
	// Convert transforms HTML into Markdown, resolving relative links
	// against baseURL when it is non-empty.
	Convert(html, baseURL string) (string, error)
}

// Extractor turns HTML into readable content. Implementations are
// strategy-specific; dispatch happens above this interface.
type Extractor interface {
	// Extract processes raw HTML and returns the extracted content.
	// The base URL resolves relative links to absolute ones.
	Extract(html, baseURL string) (*ExtractedContent, error)

	// Name returns the strategy identifier ("readability" or "docs").
	Name() string
}

// ContentHash returns the SHA-256 of the canonical markdown
// representation, hex encoded. Eval compares it across runs to detect
// content drift.
func ContentHash(markdown string) string {
	sum := sha256.Sum256([]byte(markdown))
	return hex.EncodeToString(sum[:])
}

// StrategyDetector decides which extraction strategy fits a page.
type StrategyDetector interface {
	// Detect returns StrategyDocs when the DOM shows strong docs-site
	// signals, StrategyReadability otherwise. The URL contributes path
	// segment hints (docs, api, reference, guide, manual).
	Detect(html, url string) string
}

// LanguageDetector determines the language of extracted content.
type LanguageDetector interface {
	// DetectLanguage returns an ISO-639-1 code, or "" when the language
	// cannot be determined. Document attributes win over statistical
	// detection of the text.
	DetectLanguage(html, text string) string
}
