package preflight

import (
	"strings"

	"github.com/siteforge-ai/siteforge-cli/internal/config"
)

// minKeyLength is the shortest API key any supported provider issues.
const minKeyLength = 20

// CheckProviders validates the provider credential map: at least one
// configured provider, basic key-length sanity, and a soft warning when only
// one provider is available to fail over to.
func CheckProviders(cfg *config.Config) CheckResult {
	res := CheckResult{Name: "providers"}
	if cfg == nil {
		res.errorf("no configuration loaded")
		return res
	}

	configured := 0
	for name, p := range cfg.Providers {
		key := strings.TrimSpace(p.APIKey)
		if key == "" {
			res.warnf("provider %s has no api_key and will be skipped", name)
			continue
		}
		if len(key) < minKeyLength {
			res.errorf("provider %s api_key looks truncated (%d chars)", name, len(key))
			continue
		}
		if p.Model == "" {
			res.errorf("provider %s has no model configured", name)
			continue
		}
		configured++
	}

	if configured == 0 {
		res.errorf("no provider has usable credentials")
	} else if configured < 2 {
		res.warnf("only one provider configured; a rate limit will stall the whole job")
	}
	return res
}
