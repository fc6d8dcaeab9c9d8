package quality

import (
	"fmt"
	"strings"
)

// Cleanup strips known-safe artifacts from generated text and repairs the
// single-line-table artifact, returning the cleaned text and a change log.
// It is best-effort and does not affect the gate verdict of the original
// text it was run on.
func Cleanup(text string) (string, []string) {
	var changes []string
	cleaned := text

	if n := len(citationMarkerRe.FindAllString(cleaned, -1)); n > 0 {
		cleaned = citationMarkerRe.ReplaceAllString(cleaned, "")
		changes = append(changes, fmt.Sprintf("removed %d citation marker(s)", n))
	}
	if n := len(wordCountRe.FindAllString(cleaned, -1)); n > 0 {
		cleaned = wordCountRe.ReplaceAllString(cleaned, "")
		changes = append(changes, fmt.Sprintf("removed %d word-count annotation(s)", n))
	}
	if singleLineTableRe.MatchString(cleaned) {
		cleaned = singleLineTableRe.ReplaceAllStringFunc(cleaned, respaceTable)
		changes = append(changes, "reflowed single-line table")
	}

	return cleaned, changes
}

// respaceTable splits a table that was emitted on a single line back into
// one row per line. Row boundaries are the points where one row's closing
// pipe abuts the next row's opening pipe.
func respaceTable(table string) string {
	return strings.ReplaceAll(table, "| |", "|\n|")
}
