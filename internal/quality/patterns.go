package quality

import "regexp"

// Severity classifies a gate issue. Errors block publishing; warnings are
// logged but non-blocking.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// textPattern is one entry of the static artifact-detection table. New
// patterns are additive; the gate evaluates every entry uniformly.
type textPattern struct {
	re      *regexp.Regexp
	message string
}

// disqualifyingPatterns always invalidate content when matched.
var disqualifyingPatterns = []textPattern{
	{regexp.MustCompile(`(?i)\[(insert|add|your|include|mention|replace)[^\]\n]*\]`), "unresolved placeholder bracket"},
	{regexp.MustCompile(`(?i)\[\s*(todo|tbd)[^\]\n]*\]`), "unresolved TODO marker"},
	{regexp.MustCompile(`(?i)lorem ipsum`), "lorem ipsum filler text"},
	{regexp.MustCompile(`(?i)as an ai(\s+language)?\s+model`), "AI self-reference"},
	{regexp.MustCompile(`(?i)\bi (am|'m) (an ai|a language model)`), "AI self-reference"},
	{regexp.MustCompile(`\bFIXME\b`), "development marker left in content"},
	{regexp.MustCompile(`\[\d{1,3}\]`), "numeric citation marker left in content"},
}

// warningPatterns flag quality concerns without blocking publication.
var warningPatterns = []textPattern{
	{regexp.MustCompile(`(?m)^#{1,6}\s*$`), "empty heading"},
	{regexp.MustCompile(`(?i)\b(example\.com|yourdomain\.com|yoursite\.com|yourwebsite\.com)\b`), "placeholder domain"},
	{regexp.MustCompile(`(?i)\(\s*\d{2,5}\s*words?\s*\)`), "stray word-count annotation"},
	{singleLineTableRe, "table collapsed onto a single line"},
}

// singleLineTableRe matches a markdown table whose header, separator and rows
// were emitted on one line, a known artifact of some providers.
var singleLineTableRe = regexp.MustCompile(`\|[^|\n]+\|[^\n]*\|\s*-{3,}[^\n]*\|[^\n]*\|`)

// citationMarkerRe and wordCountRe are the cleanup-safe subsets of the
// tables above.
var (
	citationMarkerRe = regexp.MustCompile(`\s?\[\d{1,3}\]`)
	wordCountRe      = regexp.MustCompile(`\s?\(\s*\d{2,5}\s*words?\s*\)`)
)
