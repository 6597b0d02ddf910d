// Package whatlanggo detects the language of extracted content, preferring
// document attributes over statistical detection.
package whatlanggo

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RadhiFadlillah/whatlanggo"
	"github.com/tmustier/webtk"
)

// Ensure Detector implements webtk.LanguageDetector at compile time.
var _ webtk.LanguageDetector = (*Detector)(nil)

// Detector detects document language.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectLanguage implements webtk.LanguageDetector.
func (d *Detector) DetectLanguage(rawHTML, text string) string {
	return Detect(rawHTML, text)
}

// heuristicWindow bounds the text sample fed to statistical detection.
const heuristicWindow = 2048

// minConfidence is the whatlanggo confidence under which the result is
// discarded rather than guessed.
const minConfidence = 0.7

// Detect returns an ISO-639-1 language code for the page, or "" when the
// language cannot be determined. Document attributes (html lang, meta
// content-language) win; a short statistical pass over the extracted text
// is the fallback.
func Detect(rawHTML, text string) string {
	if lang := fromAttributes(rawHTML); lang != "" {
		return lang
	}
	return fromText(text)
}

func fromAttributes(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	if lang, ok := doc.Find("html").Attr("lang"); ok {
		return normalize(lang)
	}
	if lang, ok := doc.Find(`meta[http-equiv="content-language"]`).Attr("content"); ok {
		return normalize(lang)
	}
	return ""
}

func fromText(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}
	if len(sample) > heuristicWindow {
		sample = sample[:heuristicWindow]
	}

	info := whatlanggo.Detect(sample)
	if !info.IsReliable() || info.Confidence < minConfidence {
		return ""
	}
	code := whatlanggo.LangToStringShort(info.Lang)
	return normalize(code)
}

// normalize reduces a language tag like "en-US" to its primary subtag.
func normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	if tag == "" || len(tag) > 3 {
		return ""
	}
	return tag
}
