// cmd/helpers.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/siteforge-ai/siteforge-cli/internal/preflight"
	"github.com/siteforge-ai/siteforge-cli/internal/publish"
	"github.com/siteforge-ai/siteforge-cli/internal/store"
)

func openStore() (*store.Store, error) {
	s, err := store.Open(storeDir)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	return s, nil
}

// githubToken reads the publish token from the environment.
func githubToken() string {
	return getEnvOrDefault("SITEFORGE_GITHUB_TOKEN", os.Getenv("GITHUB_TOKEN"))
}

// githubRepoChecker adapts the GitHub client to the pre-flight interface.
type githubRepoChecker struct {
	client *publish.GitHubClient
}

func (c githubRepoChecker) Check(ctx context.Context, dest publish.Destination) (preflight.RepoInfo, error) {
	exists, archived, canPush, version, err := c.client.RepoStatus(ctx, dest)
	if err != nil {
		return preflight.RepoInfo{}, err
	}
	return preflight.RepoInfo{
		Exists:           exists,
		Archived:         archived,
		CanPush:          canPush,
		GeneratorVersion: version,
	}, nil
}

// repoChecker returns a checker when a token is available, nil otherwise.
func repoChecker() preflight.RepoChecker {
	token := githubToken()
	if token == "" {
		Debug("no GitHub token in environment, repository check will be skipped")
		return nil
	}
	return githubRepoChecker{client: publish.NewGitHubClient(token)}
}

// printCheck renders one pre-flight check result.
func printCheck(res preflight.CheckResult) {
	if res.OK() && len(res.Warnings) == 0 {
		color.Green("   ✔ %s", res.Name)
		return
	}
	if res.OK() {
		color.Yellow("   ⚠ %s", res.Name)
	} else {
		color.Red("   ✘ %s", res.Name)
	}
	for _, e := range res.Errors {
		color.Red("     - error: %s", e)
	}
	for _, w := range res.Warnings {
		color.Yellow("     - warning: %s", w)
	}
}
