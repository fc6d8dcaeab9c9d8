package preflight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/siteforge-ai/siteforge-cli/internal/config"
	"github.com/siteforge-ai/siteforge-cli/internal/generate"
	"github.com/siteforge-ai/siteforge-cli/internal/publish"
)

func validConfig() *config.Config {
	return &config.Config{
		Site: generate.SiteContext{
			Name:  "Urban Greenhouse",
			URL:   "https://urban-greenhouse.example",
			Niche: "indoor gardening",
		},
		Providers: map[string]config.Provider{
			"gemini": {APIKey: strings.Repeat("a", 24), Model: "gemini-2.0-flash"},
			"groq":   {APIKey: strings.Repeat("b", 24), Model: "llama-3.3-70b"},
		},
		Destination: publish.Destination{
			RepoOwner: "urban",
			RepoName:  "greenhouse-site",
			BaseURL:   "https://urban-greenhouse.example",
		},
		Plan: config.Plan{
			Pillars: []config.Pillar{
				{Topic: "Container Gardening", Clusters: []config.Cluster{{Topic: "Best Pots For Balconies"}}},
			},
			Pages: []string{"about", "contact"},
		},
		MaxRetries: 3,
	}
}

func TestCheckConfigValid(t *testing.T) {
	res := CheckConfig(validConfig())
	if !res.OK() {
		t.Fatalf("valid config rejected: %v", res.Errors)
	}
}

func TestCheckConfigDuplicateTopic(t *testing.T) {
	cfg := validConfig()
	// Duplicate detection is case-insensitive across pillars and clusters.
	cfg.Plan.Pillars = append(cfg.Plan.Pillars, config.Pillar{Topic: "best pots for balconies"})
	res := CheckConfig(cfg)
	if res.OK() {
		t.Fatal("duplicate topic not flagged")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "duplicate topic") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors = %v, want a duplicate topic error", res.Errors)
	}
}

func TestCheckConfigEmptyTopic(t *testing.T) {
	cfg := validConfig()
	cfg.Plan.Pillars[0].Clusters = append(cfg.Plan.Pillars[0].Clusters, config.Cluster{Topic: "   "})
	res := CheckConfig(cfg)
	if res.OK() {
		t.Fatal("empty topic not flagged")
	}
}

func TestCheckConfigMissingSite(t *testing.T) {
	cfg := validConfig()
	cfg.Site = generate.SiteContext{}
	res := CheckConfig(cfg)
	if res.OK() {
		t.Fatal("empty site accepted")
	}
}

func TestCheckConfigNil(t *testing.T) {
	if res := CheckConfig(nil); res.OK() {
		t.Fatal("nil config accepted")
	}
}

func TestCheckProviders(t *testing.T) {
	longKey := strings.Repeat("k", 32)
	tests := []struct {
		name      string
		providers map[string]config.Provider
		wantOK    bool
		wantWarns int
	}{
		{
			name: "two usable providers",
			providers: map[string]config.Provider{
				"gemini": {APIKey: longKey, Model: "gemini-2.0-flash"},
				"groq":   {APIKey: longKey, Model: "llama-3.3-70b"},
			},
			wantOK: true,
		},
		{
			name: "single provider warns about failover",
			providers: map[string]config.Provider{
				"gemini": {APIKey: longKey, Model: "gemini-2.0-flash"},
			},
			wantOK:    true,
			wantWarns: 1,
		},
		{
			name: "empty key is skipped with a warning",
			providers: map[string]config.Provider{
				"gemini": {APIKey: "", Model: "gemini-2.0-flash"},
				"groq":   {APIKey: longKey, Model: "llama-3.3-70b"},
			},
			wantOK:    true,
			wantWarns: 2, // skip notice plus single-provider failover
		},
		{
			name: "truncated key is an error",
			providers: map[string]config.Provider{
				"gemini": {APIKey: "short", Model: "gemini-2.0-flash"},
				"groq":   {APIKey: longKey, Model: "llama-3.3-70b"},
			},
			wantOK: false,
		},
		{
			name: "missing model is an error",
			providers: map[string]config.Provider{
				"gemini": {APIKey: longKey},
				"groq":   {APIKey: longKey, Model: "llama-3.3-70b"},
			},
			wantOK: false,
		},
		{
			name:      "no usable provider at all",
			providers: map[string]config.Provider{"gemini": {APIKey: ""}},
			wantOK:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Providers = tt.providers
			res := CheckProviders(cfg)
			if res.OK() != tt.wantOK {
				t.Errorf("OK() = %v, want %v (errors: %v)", res.OK(), tt.wantOK, res.Errors)
			}
			if tt.wantWarns > 0 && len(res.Warnings) != tt.wantWarns {
				t.Errorf("warnings = %v, want %d", res.Warnings, tt.wantWarns)
			}
		})
	}
}

type fakeChecker struct {
	info RepoInfo
	err  error
}

func (f fakeChecker) Check(context.Context, publish.Destination) (RepoInfo, error) {
	return f.info, f.err
}

func TestCheckRepo(t *testing.T) {
	tests := []struct {
		name    string
		checker RepoChecker
		wantOK  bool
	}{
		{"healthy repo", fakeChecker{info: RepoInfo{Exists: true, CanPush: true, GeneratorVersion: "2.4.1"}}, true},
		{"exact minimum version", fakeChecker{info: RepoInfo{Exists: true, CanPush: true, GeneratorVersion: MinGeneratorVersion}}, true},
		{"version too old", fakeChecker{info: RepoInfo{Exists: true, CanPush: true, GeneratorVersion: "2.2.9"}}, false},
		{"unparseable version is only a warning", fakeChecker{info: RepoInfo{Exists: true, CanPush: true, GeneratorVersion: "???"}}, true},
		{"missing version is only a warning", fakeChecker{info: RepoInfo{Exists: true, CanPush: true}}, true},
		{"repo does not exist", fakeChecker{info: RepoInfo{}}, false},
		{"repo archived", fakeChecker{info: RepoInfo{Exists: true, CanPush: true, Archived: true, GeneratorVersion: "3.0.0"}}, false},
		{"no push permission", fakeChecker{info: RepoInfo{Exists: true, GeneratorVersion: "3.0.0"}}, false},
		{"remote call failed", fakeChecker{err: errors.New("api unreachable")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckRepo(context.Background(), validConfig(), tt.checker)
			if res.OK() != tt.wantOK {
				t.Errorf("OK() = %v, want %v (errors: %v)", res.OK(), tt.wantOK, res.Errors)
			}
		})
	}
}

func TestCheckRepoNilCheckerWarns(t *testing.T) {
	res := CheckRepo(context.Background(), validConfig(), nil)
	if !res.OK() {
		t.Fatalf("nil checker must not fail the check: %v", res.Errors)
	}
	if len(res.Warnings) == 0 {
		t.Error("nil checker should leave a warning")
	}
}

func TestRunReport(t *testing.T) {
	rep := Run(context.Background(), validConfig(), fakeChecker{info: RepoInfo{Exists: true, CanPush: true, GeneratorVersion: "2.5.0"}})
	if !rep.Overall {
		t.Fatalf("overall = false for a healthy setup: %+v", rep)
	}
	if !strings.Contains(rep.Summary, "0 error(s)") {
		t.Errorf("summary = %q, want zero errors", rep.Summary)
	}

	bad := validConfig()
	bad.Providers = map[string]config.Provider{}
	rep = Run(context.Background(), bad, nil)
	if rep.Overall {
		t.Fatal("overall = true despite provider errors")
	}
}
