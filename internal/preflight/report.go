// Package preflight runs one-shot readiness checks before a job spends any
// provider quota: config shape, provider credentials, and destination
// repository reachability. Each check reports errors (must-fix) and warnings
// (should-fix) separately; go is only given with zero errors overall.
package preflight

import (
	"context"
	"fmt"

	"github.com/siteforge-ai/siteforge-cli/internal/config"
)

// CheckResult is the outcome of one independent check.
type CheckResult struct {
	Name     string   `json:"name"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether the check found no errors.
func (c CheckResult) OK() bool { return len(c.Errors) == 0 }

func (c *CheckResult) errorf(format string, args ...any) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
}

func (c *CheckResult) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Report is the combined pre-flight verdict.
type Report struct {
	Overall   bool        `json:"overall"`
	Config    CheckResult `json:"config"`
	Providers CheckResult `json:"providers"`
	Repo      CheckResult `json:"repo"`
	Summary   string      `json:"summary"`
}

// Run executes all three checks. A nil checker skips the remote repository
// check with a warning instead of failing.
func Run(ctx context.Context, cfg *config.Config, checker RepoChecker) Report {
	r := Report{
		Config:    CheckConfig(cfg),
		Providers: CheckProviders(cfg),
		Repo:      CheckRepo(ctx, cfg, checker),
	}
	errs := len(r.Config.Errors) + len(r.Providers.Errors) + len(r.Repo.Errors)
	warns := len(r.Config.Warnings) + len(r.Providers.Warnings) + len(r.Repo.Warnings)
	r.Overall = errs == 0
	r.Summary = fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
	return r
}
