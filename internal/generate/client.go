package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProviderEndpoint configures one OpenAI-compatible chat completions
// endpoint.
type ProviderEndpoint struct {
	BaseURL string
	APIKey  string
	Model   string
}

// HTTPGenerator calls OpenAI-compatible provider APIs. A per-provider token
// bucket paces outgoing requests at the transport level; the per-job window
// accounting lives in the scheduler, which persists with the job.
type HTTPGenerator struct {
	endpoints map[string]ProviderEndpoint
	client    *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPGenerator creates a generator for the given provider endpoints.
func NewHTTPGenerator(endpoints map[string]ProviderEndpoint) *HTTPGenerator {
	return &HTTPGenerator{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 5 * time.Minute},
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (g *HTTPGenerator) limiter(provider string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[provider]
	if !ok {
		// One request every two seconds with a burst of one keeps even a
		// misconfigured scheduler from hammering a provider.
		l = rate.NewLimiter(rate.Every(2*time.Second), 1)
		g.limiters[provider] = l
	}
	return l
}

// Generate performs one chat completion call through the named provider.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	ep, ok := g.endpoints[req.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %s is not configured", req.Provider)
	}

	if err := g.limiter(req.Provider).Wait(ctx); err != nil {
		return nil, err
	}

	body := map[string]any{
		"model": ep.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(req.Site)},
			{"role": "user", "content": userPrompt(req)},
		},
		"temperature": 0.7,
	}
	reqBody, _ := json.Marshal(body)

	url := strings.TrimRight(ep.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+ep.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", req.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s returned status %d: %s", req.Provider, resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", req.Provider, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", req.Provider)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("%s returned empty content", req.Provider)
	}
	return &Result{Content: content, Model: parsed.Model}, nil
}

func systemPrompt(site SiteContext) string {
	lang := site.Language
	if lang == "" {
		lang = "English"
	}
	return fmt.Sprintf(
		"You are a senior content writer for %s (%s), a site about %s. "+
			"Write complete, publication-ready markdown in %s with a front matter block containing title and description. "+
			"Never leave placeholders or editorial notes in the text.",
		site.Name, site.URL, site.Niche, lang)
}

func userPrompt(req Request) string {
	var b strings.Builder
	switch req.ContentType {
	case "pillar":
		fmt.Fprintf(&b, "Write a comprehensive pillar article about %q (at least 1500 words, 4+ sections, a conclusion).", req.Topic)
	case "cluster":
		fmt.Fprintf(&b, "Write a focused supporting article about %q (at least 800 words, 3+ sections, a conclusion).", req.Topic)
	default:
		fmt.Fprintf(&b, "Write the %s page for the site. Topic: %q.", req.ContentType, req.Topic)
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, " Work in these keywords naturally: %s.", strings.Join(req.Keywords, ", "))
	}
	return b.String()
}
