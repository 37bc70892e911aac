package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bugscope/models"
)

type ProjectService struct {
	client ClientInterface
}

func NewProjectService(client ClientInterface) *ProjectService {
	return &ProjectService{
		client: client,
	}
}

// Get retrieves a project by ID.
func (s *ProjectService) Get(ctx context.Context, projectID string) (*models.Project, error) {
	req, err := s.client.NewRequest(ctx, "GET", fmt.Sprintf("/projects/%s", projectID), nil)
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

	var project models.Project
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &project, nil
}

// List retrieves all projects visible to the current user.
func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/projects", nil)
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

	var projects []*models.Project
	if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return projects, nil
}

// UpdateEnvVars replaces the project's environment-variable blob
// (newline-separated KEY=value pairs).
func (s *ProjectService) UpdateEnvVars(ctx context.Context, projectID, envVars string) (*models.Project, error) {
	payload := map[string]interface{}{
		"env_vars": envVars,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := s.client.NewRequest(ctx, "PATCH", fmt.Sprintf("/projects/%s", projectID), bytes.NewReader(body))
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

	var project models.Project
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &project, nil
}
