package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// GitHubClient publishes articles by committing markdown files to the
// destination repository through the contents API, and doubles as the
// pre-flight repository checker.
type GitHubClient struct {
	Token   string
	BaseURL string // override for tests; defaults to api.github.com
	client  *http.Client
}

// NewGitHubClient creates a client with the given access token.
func NewGitHubClient(token string) *GitHubClient {
	return &GitHubClient{
		Token:   token,
		BaseURL: "https://api.github.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish commits the markdown under the destination's content directory.
func (g *GitHubClient) Publish(ctx context.Context, slug, markdown string, dest Destination) (*Result, error) {
	contentDir := dest.ContentDir
	if contentDir == "" {
		contentDir = "content"
	}
	filePath := path.Join(contentDir, slug+".md")

	body := map[string]any{
		"message": fmt.Sprintf("Add article: %s", slug),
		"content": base64.StdEncoding.EncodeToString([]byte(markdown)),
	}
	if dest.Branch != "" {
		body["branch"] = dest.Branch
	}
	// Updating an existing file needs its blob SHA.
	if sha, err := g.fileSHA(ctx, dest, filePath); err == nil && sha != "" {
		body["sha"] = sha
	}

	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.BaseURL, dest.RepoOwner, dest.RepoName, filePath)
	respBody, err := g.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Commit struct {
			HTMLURL string `json:"html_url"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse publish response: %w", err)
	}
	return &Result{
		ArticleURL: strings.TrimRight(dest.BaseURL, "/") + "/" + slug + "/",
		CommitURL:  parsed.Commit.HTMLURL,
	}, nil
}

// RepoStatus reports existence, archive state and push permission for the
// destination repository, plus the generator version when the repository
// declares one in .siteforge-version.
func (g *GitHubClient) RepoStatus(ctx context.Context, dest Destination) (exists, archived, canPush bool, generatorVersion string, err error) {
	url := fmt.Sprintf("%s/repos/%s/%s", g.BaseURL, dest.RepoOwner, dest.RepoName)
	respBody, err := g.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return false, false, false, "", nil
		}
		return false, false, false, "", err
	}

	var repo struct {
		Archived    bool `json:"archived"`
		Permissions struct {
			Push bool `json:"push"`
		} `json:"permissions"`
	}
	if err := json.Unmarshal(respBody, &repo); err != nil {
		return false, false, false, "", fmt.Errorf("parse repository response: %w", err)
	}

	version := ""
	if sha, shaErr := g.fileSHA(ctx, dest, ".siteforge-version"); shaErr == nil && sha != "" {
		if content, cErr := g.fileContent(ctx, dest, ".siteforge-version"); cErr == nil {
			version = strings.TrimSpace(content)
		}
	}
	return true, repo.Archived, repo.Permissions.Push, version, nil
}

func (g *GitHubClient) fileSHA(ctx context.Context, dest Destination, filePath string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.BaseURL, dest.RepoOwner, dest.RepoName, filePath)
	respBody, err := g.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	var parsed struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	return parsed.SHA, nil
}

func (g *GitHubClient) fileContent(ctx context.Context, dest Destination, filePath string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.BaseURL, dest.RepoOwner, dest.RepoName, filePath)
	respBody, err := g.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(parsed.Content, "\n", ""))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func (g *GitHubClient) do(ctx context.Context, method, url string, body map[string]any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("github returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
