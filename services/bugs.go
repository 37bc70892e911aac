// Package services provides the service groups for Bugscope API operations.
//
// This file implements the BugService which handles bug record operations:
// listing and fetching bugs for a project, creating a new report, and
// patching an existing record. The analysis pipeline uses Update to apply an
// accepted root-cause description; everything else is plain CRUD.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bugscope/models"
)

// ClientInterface defines the methods needed from the API client.
type ClientInterface interface {
	NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error)
	Do(req *http.Request) (*http.Response, error)
	GetBaseURL() string
	IsFeatureEnabled(key string) bool
}

type BugService struct {
	client ClientInterface
}

func NewBugService(client ClientInterface) *BugService {
	return &BugService{
		client: client,
	}
}

// decodeAPIError reads a non-success response body and produces a readable
// error, preferring the structured message when the body parses as JSON.
func decodeAPIError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil {
		if errResp.Error != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error)
		}
		if errResp.Message != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Message)
		}
		if errResp.Detail != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Detail)
		}
	}

	return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(bodyBytes))
}

// Get retrieves a bug by ID.
func (s *BugService) Get(ctx context.Context, bugID string) (*models.Bug, error) {
	req, err := s.client.NewRequest(ctx, "GET", fmt.Sprintf("/bugs/%s", bugID), nil)
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

	var bug models.Bug
	if err := json.NewDecoder(resp.Body).Decode(&bug); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &bug, nil
}

// List retrieves all bugs for a project.
func (s *BugService) List(ctx context.Context, projectID string) ([]*models.Bug, error) {
	req, err := s.client.NewRequest(ctx, "GET", fmt.Sprintf("/projects/%s/bugs", projectID), nil)
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

	var bugs []*models.Bug
	if err := json.NewDecoder(resp.Body).Decode(&bugs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return bugs, nil
}

// Create creates a new bug report for a project.
func (s *BugService) Create(ctx context.Context, projectID, description, userID string) (*models.Bug, error) {
	payload := map[string]interface{}{
		"project_id":  projectID,
		"description": description,
		"user_id":     userID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := s.client.NewRequest(ctx, "POST", fmt.Sprintf("/projects/%s/bugs", projectID), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeAPIError(resp)
	}

	var bug models.Bug
	if err := json.NewDecoder(resp.Body).Decode(&bug); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &bug, nil
}

// Update patches a bug record. Only non-nil patch fields are sent.
func (s *BugService) Update(ctx context.Context, bugID string, patch models.BugPatch) (*models.Bug, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := s.client.NewRequest(ctx, "PATCH", fmt.Sprintf("/bugs/%s", bugID), bytes.NewReader(body))
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

	var bug models.Bug
	if err := json.NewDecoder(resp.Body).Decode(&bug); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &bug, nil
}

// UpdateDescription overwrites the description of a bug. This is the single
// mutation the analysis pipeline performs when the user accepts a result.
func (s *BugService) UpdateDescription(ctx context.Context, bugID, description string) (*models.Bug, error) {
	return s.Update(ctx, bugID, models.BugPatch{Description: &description})
}
