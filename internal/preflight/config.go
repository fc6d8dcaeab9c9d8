package preflight

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/siteforge-ai/siteforge-cli/internal/config"
)

var validate = validator.New()

// CheckConfig validates the config document shape: required fields via
// struct tags, plus duplicate/empty topic detection and numeric ranges.
func CheckConfig(cfg *config.Config) CheckResult {
	res := CheckResult{Name: "config"}
	if cfg == nil {
		res.errorf("no configuration loaded")
		return res
	}

	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				res.errorf("%s failed %q validation", fe.Namespace(), fe.Tag())
			}
		} else {
			res.errorf("config validation: %v", err)
		}
	}

	if strings.TrimSpace(cfg.Site.Name) == "" {
		res.errorf("site.name is empty")
	}
	if strings.TrimSpace(cfg.Site.URL) == "" {
		res.errorf("site.url is empty")
	}
	if strings.TrimSpace(cfg.Site.Niche) == "" {
		res.warnf("site.niche is empty; prompts will lack context")
	}

	seen := map[string]bool{}
	checkTopic := func(kind, topic string) {
		t := strings.ToLower(strings.TrimSpace(topic))
		if t == "" {
			res.errorf("%s with empty topic", kind)
			return
		}
		if seen[t] {
			res.errorf("duplicate topic %q", topic)
		}
		seen[t] = true
	}
	for _, pillar := range cfg.Plan.Pillars {
		checkTopic("pillar", pillar.Topic)
		for _, cluster := range pillar.Clusters {
			checkTopic("cluster", cluster.Topic)
		}
	}

	if n := len(cfg.BuildQueue()); n > 200 {
		res.warnf("queue would hold %d items; consider splitting the plan", n)
	}
	return res
}
