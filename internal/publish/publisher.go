// Package publish defines the boundary to the external publish step. The
// implementation (a git commit to the destination repository, a WordPress
// REST call) is an external collaborator; the runner only consumes the
// contract. Publish failures are never retried automatically: by the time a
// publish is attempted the content is already durably saved.
package publish

import "context"

// Destination identifies where published content lands.
type Destination struct {
	RepoOwner  string `yaml:"repo_owner" json:"repoOwner" validate:"required"`
	RepoName   string `yaml:"repo_name" json:"repoName" validate:"required"`
	Branch     string `yaml:"branch,omitempty" json:"branch,omitempty"`
	ContentDir string `yaml:"content_dir,omitempty" json:"contentDir,omitempty"`
	BaseURL    string `yaml:"base_url" json:"baseUrl" validate:"required,url"`
}

// Result is the outcome of a successful publish.
type Result struct {
	ArticleURL string `json:"articleUrl,omitempty"`
	CommitURL  string `json:"commitUrl,omitempty"`
}

// Publisher pushes one article to the destination.
type Publisher interface {
	Publish(ctx context.Context, slug, markdown string, dest Destination) (*Result, error)
}
