package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
)

const sampleYAML = `site:
  name: Urban Greenhouse
  url: https://urban-greenhouse.example
  niche: indoor gardening
providers:
  gemini:
    api_key: aaaaaaaaaaaaaaaaaaaaaaaa
    model: gemini-2.0-flash
  groq:
    api_key: bbbbbbbbbbbbbbbbbbbbbbbb
    base_url: https://groq.internal.example/v1
    model: llama-3.3-70b
destination:
  repo_owner: urban
  repo_name: greenhouse-site
  base_url: https://urban-greenhouse.example
plan:
  pillars:
    - topic: Container Gardening
      keywords: [pots, balcony]
      clusters:
        - topic: Best Pots For Balconies
        - topic: Watering Container Plants
    - topic: Hydroponics At Home
  pages: [about, contact]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "siteforge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Site.Name != "Urban Greenhouse" {
		t.Errorf("site name = %q", cfg.Site.Name)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("max retries = %d, want default %d", cfg.MaxRetries, DefaultMaxRetries)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(cfg.Providers))
	}
	if cfg.Destination.RepoOwner != "urban" || cfg.Destination.RepoName != "greenhouse-site" {
		t.Errorf("destination = %+v", cfg.Destination)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
	if _, err := Load(writeConfig(t, "site: [broken")); err == nil {
		t.Error("Load accepted malformed yaml")
	}
}

func TestLoadKeepsExplicitMaxRetries(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML+"max_retries: 5\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("max retries = %d, want 5", cfg.MaxRetries)
	}
}

func TestCredentials(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	creds := cfg.Credentials()
	if creds["gemini"] == "" || creds["groq"] == "" {
		t.Errorf("credentials incomplete: %v", creds)
	}
}

func TestEndpointsFillDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	eps := cfg.Endpoints()
	if eps["gemini"].BaseURL != defaultBaseURLs["gemini"] {
		t.Errorf("gemini base url = %q, want the default", eps["gemini"].BaseURL)
	}
	if eps["groq"].BaseURL != "https://groq.internal.example/v1" {
		t.Errorf("explicit base url overwritten: %q", eps["groq"].BaseURL)
	}
	if eps["gemini"].Model != "gemini-2.0-flash" {
		t.Errorf("model lost: %+v", eps["gemini"])
	}
}

func TestBuildQueueOrderAndLinkage(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	queue := cfg.BuildQueue()

	wantTypes := []string{
		backlog.TypePillar, backlog.TypeCluster, backlog.TypeCluster,
		backlog.TypePillar,
		backlog.TypeAbout, backlog.TypeContact,
	}
	if len(queue) != len(wantTypes) {
		t.Fatalf("queue length = %d, want %d", len(queue), len(wantTypes))
	}
	for i, want := range wantTypes {
		if queue[i].Type != want {
			t.Errorf("queue[%d].Type = %s, want %s", i, queue[i].Type, want)
		}
	}

	// Clusters reference the pillar that precedes them.
	if queue[1].PillarID != queue[0].ID || queue[2].PillarID != queue[0].ID {
		t.Error("clusters not linked to their pillar")
	}
	if queue[3].PillarID != "" {
		t.Error("second pillar carries a pillar link")
	}

	for i := range queue {
		if queue[i].Status != backlog.ItemPending {
			t.Errorf("queue[%d].Status = %s, want pending", i, queue[i].Status)
		}
		if queue[i].MaxRetries != DefaultMaxRetries {
			t.Errorf("queue[%d].MaxRetries = %d, want %d", i, queue[i].MaxRetries, DefaultMaxRetries)
		}
	}

	if queue[4].Topic != "About Urban Greenhouse" {
		t.Errorf("about page topic = %q", queue[4].Topic)
	}
}
