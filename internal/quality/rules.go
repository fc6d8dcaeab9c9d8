package quality

// Rules are the structural minimums a piece of content must meet for its
// content type.
type Rules struct {
	MinWords          int
	MinHeadings       int
	MinParagraphs     int
	RequireConclusion bool
}

var rulesByType = map[string]Rules{
	"pillar":  {MinWords: 1500, MinHeadings: 4, MinParagraphs: 8, RequireConclusion: true},
	"cluster": {MinWords: 800, MinHeadings: 3, MinParagraphs: 5, RequireConclusion: true},
	"about":   {MinWords: 300, MinHeadings: 1, MinParagraphs: 3},
	"privacy": {MinWords: 400, MinHeadings: 2, MinParagraphs: 4},
	"terms":   {MinWords: 400, MinHeadings: 2, MinParagraphs: 4},
	"contact": {MinWords: 100, MinHeadings: 1, MinParagraphs: 1},
}

// defaultRules applies to unknown content types.
var defaultRules = Rules{MinWords: 500, MinHeadings: 2, MinParagraphs: 3}

// RulesFor returns the rule set for a content type.
func RulesFor(contentType string) Rules {
	if r, ok := rulesByType[contentType]; ok {
		return r
	}
	return defaultRules
}
