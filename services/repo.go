package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RepoService exposes the linked source-repository hosting integration:
// file content and metadata keyed by owner/repo/path.
type RepoService struct {
	client ClientInterface
}

func NewRepoService(client ClientInterface) *RepoService {
	return &RepoService{
		client: client,
	}
}

// GetFileContent retrieves the decoded content of one repository file.
func (s *RepoService) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	req, err := s.client.NewRequest(ctx, "GET",
		fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, url.PathEscape(path)), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	var contentResp struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&contentResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return contentResp.Content, nil
}

// ListTree retrieves the file paths of a repository at its default branch.
func (s *RepoService) ListTree(ctx context.Context, owner, repo string) ([]string, error) {
	req, err := s.client.NewRequest(ctx, "GET", fmt.Sprintf("/repos/%s/%s/tree", owner, repo), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var treeResp struct {
		Paths []string `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&treeResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return treeResp.Paths, nil
}

// ParseRepoURL splits a stored repository URL like
// "https://github.com/owner/repo" into its owner and repo parts.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid repo url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repo url %q does not contain owner/repo", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
