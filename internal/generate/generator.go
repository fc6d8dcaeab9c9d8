// Package generate defines the boundary to remote text-generation providers.
// The call itself is opaque: it returns generated text or an error. The
// runner only inspects errors far enough to recognize rate-limit rejections.
package generate

import (
	"context"
	"strings"
)

// SiteContext is the site the content is being written for, passed through
// to the provider prompt.
type SiteContext struct {
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Niche    string `yaml:"niche" json:"niche"`
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
}

// Request describes one generation call.
type Request struct {
	Provider    string
	ContentType string
	Topic       string
	Keywords    []string
	Site        SiteContext
}

// Result is the outcome of a successful generation call.
type Result struct {
	Content string
	Model   string
}

// Generator produces content through a named provider.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// rateLimitIndicators are the substrings that mark a provider rejection as a
// rate limit rather than a transient failure.
var rateLimitIndicators = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"quota",
	"429",
	"resource exhausted",
}

// IsRateLimited reports whether an error from a generation call signals a
// rate-limit rejection, which should put the provider into cooldown.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, ind := range rateLimitIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}
