// Package config loads the per-site job configuration file: site context,
// provider credentials, publish destination and the content plan the queue
// is built from.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
	"github.com/siteforge-ai/siteforge-cli/internal/generate"
	"github.com/siteforge-ai/siteforge-cli/internal/publish"
)

// DefaultMaxRetries is applied when the config does not set max_retries.
const DefaultMaxRetries = 3

// defaultBaseURLs maps known providers to their OpenAI-compatible endpoints.
var defaultBaseURLs = map[string]string{
	"gemini":     "https://generativelanguage.googleapis.com/v1beta/openai",
	"groq":       "https://api.groq.com/openai/v1",
	"mistral":    "https://api.mistral.ai/v1",
	"openrouter": "https://openrouter.ai/api/v1",
}

// Provider holds one provider's credentials and model selection.
type Provider struct {
	APIKey  string `yaml:"api_key" validate:"required"`
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Model   string `yaml:"model" validate:"required"`
}

// Cluster is a supporting article under a pillar.
type Cluster struct {
	Topic    string   `yaml:"topic" validate:"required"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// Pillar is one anchor article plus its clusters.
type Pillar struct {
	Topic    string    `yaml:"topic" validate:"required"`
	Keywords []string  `yaml:"keywords,omitempty"`
	Clusters []Cluster `yaml:"clusters,omitempty" validate:"dive"`
}

// Plan is the content plan the job queue is built from.
type Plan struct {
	Pillars []Pillar `yaml:"pillars" validate:"required,min=1,dive"`
	Pages   []string `yaml:"pages,omitempty" validate:"dive,oneof=about privacy terms contact"`
}

// Config is the full per-site job configuration document.
type Config struct {
	Site        generate.SiteContext `yaml:"site" validate:"required"`
	Providers   map[string]Provider  `yaml:"providers" validate:"required,min=1,dive"`
	Destination publish.Destination  `yaml:"destination" validate:"required"`
	Plan        Plan                 `yaml:"plan" validate:"required"`
	MaxRetries  int                  `yaml:"max_retries,omitempty" validate:"gte=0,lte=10"`
	EventsURL   string               `yaml:"events_url,omitempty" validate:"omitempty,uri"`
}

// Load reads and parses a config file. Shape validation is a separate
// pre-flight concern.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &cfg, nil
}

// Credentials returns the provider→key map the scheduler consumes.
func (c *Config) Credentials() map[string]string {
	creds := make(map[string]string, len(c.Providers))
	for name, p := range c.Providers {
		creds[name] = p.APIKey
	}
	return creds
}

// Endpoints returns the provider endpoints for the HTTP generator, filling
// in the default base URL for known providers.
func (c *Config) Endpoints() map[string]generate.ProviderEndpoint {
	eps := make(map[string]generate.ProviderEndpoint, len(c.Providers))
	for name, p := range c.Providers {
		base := p.BaseURL
		if base == "" {
			base = defaultBaseURLs[name]
		}
		eps[name] = generate.ProviderEndpoint{BaseURL: base, APIKey: p.APIKey, Model: p.Model}
	}
	return eps
}

// BuildQueue expands the content plan into an ordered queue: each pillar
// followed by its clusters, then the standard pages.
func (c *Config) BuildQueue() []backlog.QueueItem {
	var queue []backlog.QueueItem
	for _, pillar := range c.Plan.Pillars {
		p := backlog.NewQueueItem(backlog.TypePillar, pillar.Topic, pillar.Keywords, c.MaxRetries)
		queue = append(queue, p)
		for _, cluster := range pillar.Clusters {
			item := backlog.NewQueueItem(backlog.TypeCluster, cluster.Topic, cluster.Keywords, c.MaxRetries)
			item.PillarID = p.ID
			queue = append(queue, item)
		}
	}
	for _, page := range c.Plan.Pages {
		queue = append(queue, backlog.NewQueueItem(page, pageTopic(page, c.Site), nil, c.MaxRetries))
	}
	return queue
}

func pageTopic(page string, site generate.SiteContext) string {
	switch page {
	case backlog.TypeAbout:
		return "About " + site.Name
	case backlog.TypePrivacy:
		return "Privacy policy for " + site.Name
	case backlog.TypeTerms:
		return "Terms of service for " + site.Name
	case backlog.TypeContact:
		return "Contact " + site.Name
	default:
		return page
	}
}
