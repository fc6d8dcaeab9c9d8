// Package quality decides whether generated text is fit to publish,
// independent of which provider produced it. It computes light-weight
// structural metrics and scans two static pattern tables; it never calls a
// model to judge content.
package quality

import (
	"fmt"
	"regexp"
	"strings"
)

// Issue is one finding of the gate.
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Metrics are the structural measurements taken from the text.
type Metrics struct {
	Words          int  `json:"words"`
	Headings       int  `json:"headings"`
	Paragraphs     int  `json:"paragraphs"`
	Links          int  `json:"links"`
	HasTitle       bool `json:"hasTitle"`
	HasDescription bool `json:"hasDescription"`
	HasIntro       bool `json:"hasIntro"`
	HasConclusion  bool `json:"hasConclusion"`
}

// Result is the gate's verdict. Valid is false exactly when at least one
// error-severity issue is present; Score is informational only.
type Result struct {
	Valid   bool    `json:"valid"`
	Score   int     `json:"score"`
	Issues  []Issue `json:"issues"`
	Metrics Metrics `json:"metrics"`
}

// Errors returns the error-severity issue messages joined for logging.
func (r Result) Errors() string {
	var msgs []string
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			msgs = append(msgs, is.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

var (
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	linkRe       = regexp.MustCompile(`\[[^\]]+\]\(https?://[^)]+\)`)
	conclusionRe = regexp.MustCompile(`(?im)(^#{1,6}\s*(conclusion|final thoughts|wrapping up|in summary))|(\bin conclusion\b)`)
	markupRe     = regexp.MustCompile("[#*_`>|]+")
)

// minIntroWords is how substantial the passage before the first heading must
// be to count as an introduction.
const minIntroWords = 40

// Check runs the quality gate over raw text for the given content type.
func Check(text, contentType string) Result {
	rules := RulesFor(contentType)
	front, body := splitFrontMatter(text)

	m := Metrics{
		Words:          countWords(body),
		Headings:       len(headingRe.FindAllString(body, -1)),
		Paragraphs:     countParagraphs(body),
		Links:          len(linkRe.FindAllString(body, -1)),
		HasTitle:       frontMatterHas(front, "title"),
		HasDescription: frontMatterHas(front, "description"),
		HasConclusion:  conclusionRe.MatchString(body),
	}
	m.HasIntro = countWords(beforeFirstHeading(body)) >= minIntroWords

	var issues []Issue
	addIssue := func(sev Severity, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if !m.HasTitle {
		addIssue(SeverityError, "missing title in metadata block")
	}
	if m.Words < rules.MinWords {
		addIssue(SeverityError, "word count %d below minimum %d", m.Words, rules.MinWords)
	}
	for _, p := range disqualifyingPatterns {
		if match := p.re.FindString(text); match != "" {
			addIssue(SeverityError, "%s: %q", p.message, truncate(match, 60))
		}
	}

	if !m.HasDescription {
		addIssue(SeverityWarning, "missing description in metadata block")
	}
	if m.Headings < rules.MinHeadings {
		addIssue(SeverityWarning, "heading count %d below minimum %d", m.Headings, rules.MinHeadings)
	}
	if m.Paragraphs < rules.MinParagraphs {
		addIssue(SeverityWarning, "paragraph count %d below minimum %d", m.Paragraphs, rules.MinParagraphs)
	}
	if !m.HasIntro {
		addIssue(SeverityWarning, "no substantial introduction before the first heading")
	}
	if rules.RequireConclusion && !m.HasConclusion {
		addIssue(SeverityWarning, "no conclusion section or phrase")
	}
	for _, p := range warningPatterns {
		if match := p.re.FindString(text); match != "" {
			addIssue(SeverityWarning, "%s: %q", p.message, truncate(match, 60))
		}
	}
	if rep := repeatedSentence(body); rep != "" {
		addIssue(SeverityWarning, "excessive verbatim repetition: %q", truncate(rep, 60))
	}

	score := 100
	valid := true
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			score -= 20
			valid = false
		case SeverityWarning:
			score -= 5
		}
	}
	if rules.MinWords > 0 && m.Words >= rules.MinWords+rules.MinWords/2 {
		score += 5
	}
	if m.Headings >= rules.MinHeadings+2 {
		score += 5
	}
	if m.Links >= 3 {
		score += 5
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{Valid: valid, Score: score, Issues: issues, Metrics: m}
}

// splitFrontMatter separates a leading ----delimited metadata block from the
// body. Text without a block returns an empty front matter.
func splitFrontMatter(text string) (front, body string) {
	trimmed := strings.TrimLeft(text, "\uFEFF\n\r ")
	if !strings.HasPrefix(trimmed, "---") {
		return "", text
	}
	rest := trimmed[3:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", text
	}
	return rest[:end], rest[end+4:]
}

func frontMatterHas(front, key string) bool {
	for _, line := range strings.Split(front, "\n") {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(k) == key && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func countWords(text string) int {
	return len(strings.Fields(markupRe.ReplaceAllString(text, " ")))
}

func countParagraphs(body string) int {
	count := 0
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		count++
	}
	return count
}

func beforeFirstHeading(body string) string {
	if loc := headingRe.FindStringIndex(body); loc != nil {
		return body[:loc[0]]
	}
	return body
}

// repeatedSentence returns a sentence that appears three or more times
// verbatim, or "".
func repeatedSentence(body string) string {
	seen := map[string]int{}
	for _, raw := range strings.FieldsFunc(body, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}) {
		s := strings.TrimSpace(raw)
		if len(s) < 40 {
			continue
		}
		seen[s]++
		if seen[s] >= 3 {
			return s
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
