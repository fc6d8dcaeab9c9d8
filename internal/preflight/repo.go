package preflight

import (
	"context"

	goversion "github.com/hashicorp/go-version"

	"github.com/siteforge-ai/siteforge-cli/internal/config"
	"github.com/siteforge-ai/siteforge-cli/internal/publish"
)

// MinGeneratorVersion is the oldest site-generator version the published
// front matter format is compatible with.
const MinGeneratorVersion = "2.3.0"

// RepoInfo is what the destination repository reports about itself.
type RepoInfo struct {
	Exists           bool
	Archived         bool
	CanPush          bool
	GeneratorVersion string
}

// RepoChecker performs the single remote call of the pre-flight: existence,
// push permission and archive status of the destination repository.
type RepoChecker interface {
	Check(ctx context.Context, dest publish.Destination) (RepoInfo, error)
}

// CheckRepo validates the publish destination through the checker. A nil
// checker downgrades the whole check to a warning so offline pre-flights
// still produce a report.
func CheckRepo(ctx context.Context, cfg *config.Config, checker RepoChecker) CheckResult {
	res := CheckResult{Name: "repo"}
	if cfg == nil {
		res.errorf("no configuration loaded")
		return res
	}
	if checker == nil {
		res.warnf("repository check skipped (no checker configured)")
		return res
	}

	info, err := checker.Check(ctx, cfg.Destination)
	if err != nil {
		res.errorf("repository check failed: %v", err)
		return res
	}
	if !info.Exists {
		res.errorf("repository %s/%s does not exist", cfg.Destination.RepoOwner, cfg.Destination.RepoName)
		return res
	}
	if info.Archived {
		res.errorf("repository %s/%s is archived", cfg.Destination.RepoOwner, cfg.Destination.RepoName)
	}
	if !info.CanPush {
		res.errorf("no push permission on %s/%s", cfg.Destination.RepoOwner, cfg.Destination.RepoName)
	}

	if info.GeneratorVersion == "" {
		res.warnf("destination did not report a generator version")
		return res
	}
	have, err := goversion.NewVersion(info.GeneratorVersion)
	if err != nil {
		res.warnf("unparseable generator version %q", info.GeneratorVersion)
		return res
	}
	min := goversion.Must(goversion.NewVersion(MinGeneratorVersion))
	if have.LessThan(min) {
		res.errorf("destination generator %s is older than required %s", have, min)
	}
	return res
}
