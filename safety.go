package webtk

import (
	"regexp"
	"strconv"
)

// Prompt-injection phrases scanned for in extracted text. The scan is
// advisory: matches become warnings, content is never modified.
var promptInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(?:all\s+|previous\s+|above\s+)*(?:previous\s+|above\s+)?instructions`),
	regexp.MustCompile(`(?i)system\s+prompt\s*:`),
	regexp.MustCompile(`(?i)</?system>`),
	regexp.MustCompile(`(?i)developer\s+message`),
	regexp.MustCompile(`(?i)reveal\s+your`),
	regexp.MustCompile(`(?i)exfiltrate`),
	regexp.MustCompile(`(?i)(?:bypass|override)\s+(?:safety|security|policy|guardrails)`),
}

// ScanPromptInjection searches text for prompt-injection phrases and
// returns one warning per matched pattern, with the matched phrase
// truncated to its first 32 characters.
func ScanPromptInjection(text string) []string {
	if text == "" {
		return nil
	}
	var warnings []string
	for _, pattern := range promptInjectionPatterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		if len(match) > 32 {
			match = match[:32]
		}
		warnings = AppendWarning(warnings, "possible prompt injection: "+strconv.Quote(match))
	}
	return warnings
}

var sensitiveDetailKey = regexp.MustCompile(`(?i)token|key|secret|cookie|authorization`)

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	regexp.MustCompile(`\bASIA[0-9A-Z]{16}\b`),
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{30,}\b`),
	regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`),
	regexp.MustCompile(`\bsk_(?:live|test)_[A-Za-z0-9]{16,}\b`),
	regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`),
	regexp.MustCompile(`(?i)\bbearer\s+[a-z0-9._\-+/=]{10,}\b`),
}

var keyValueSecret = regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|password|passwd|pwd|session|signature)\b(\s*[:=]\s*)([^\s"']{6,})`)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// RedactText removes query strings and userinfo from embedded URLs and
// masks common secret shapes (cloud keys, PATs, JWTs, bearer tokens,
// key=value secrets).
func RedactText(text string) string {
	if text == "" {
		return text
	}
	out := urlPattern.ReplaceAllStringFunc(text, RedactURL)
	out = keyValueSecret.ReplaceAllString(out, "${1}${2}[redacted]")
	for _, pattern := range secretPatterns {
		out = pattern.ReplaceAllString(out, "[redacted]")
	}
	return out
}

// RedactDetails returns a copy of an error-details map with values of
// sensitive keys replaced by "[redacted]" and string values passed through
// RedactText. Nested maps and slices are walked.
func RedactDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		if sensitiveDetailKey.MatchString(k) {
			out[k] = "[redacted]"
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return RedactText(val)
	case map[string]any:
		return RedactDetails(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}
