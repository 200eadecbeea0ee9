// Package update checks the project release feed for a newer version.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const releaseURL = "https://api.github.com/repos/custodian-tool/custodian/releases/latest"

// Release describes the latest published version.
type Release struct {
	Version string
	Notes   string
}

// Check asks the release feed whether a version newer than current exists.
// Best-effort: callers treat any error as "no update known".
func Check(ctx context.Context, current string) (*Release, bool, error) {
	return checkURL(ctx, current, releaseURL)
}

func checkURL(ctx context.Context, current, url string) (*Release, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var payload struct {
		TagName string `json:"tag_name"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, err
	}

	release := &Release{
		Version: strings.TrimPrefix(strings.TrimSpace(payload.TagName), "v"),
		Notes:   payload.Body,
	}
	return release, release.Version != "" && release.Version != current, nil
}
