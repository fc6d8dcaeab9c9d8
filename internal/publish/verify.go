package publish

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var verifyClient = &http.Client{Timeout: 15 * time.Second}

// VerifyDeployment checks that a published article is reachable and carries
// the expected marker text. It is best-effort: callers log a warning on
// failure and never revert a successful publish because of it.
func VerifyDeployment(ctx context.Context, articleURL, marker string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return err
	}
	resp, err := verifyClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", articleURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", articleURL, resp.StatusCode)
	}
	if marker == "" {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", articleURL, err)
	}
	if !strings.Contains(string(body), marker) {
		return fmt.Errorf("%s does not contain expected content", articleURL)
	}
	return nil
}
