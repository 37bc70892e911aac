// Package services: LLM gateway transport.
//
// This file implements the LLMService, the single opaque call the analysis
// pipeline makes against the model backend: a typed request (discriminant +
// content) in, raw text out. The service has two operating modes selected by
// client configuration, never by the caller: live mode forwards to the
// backend; simulated mode returns a fixed canned response per request type so
// tests and offline demos behave identically to the live path.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bugscope/models"
)

// GatewayError represents a non-success response from the analysis backend.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("analysis gateway error (status %d): %s", e.Status, e.Body)
}

// ErrEmptyResponse indicates the transport succeeded but returned no usable
// text.
var ErrEmptyResponse = errors.New("analysis gateway returned an empty response")

type LLMService struct {
	client ClientInterface
}

func NewLLMService(client ClientInterface) *LLMService {
	return &LLMService{
		client: client,
	}
}

// Send submits one analysis request and returns the raw response text.
// Errors are *GatewayError for transport/backend failures and
// ErrEmptyResponse when the backend returns a blank result.
func (s *LLMService) Send(ctx context.Context, reqType models.AnalysisRequestType, content string) (string, error) {
	if s.client.IsFeatureEnabled("analysis.simulated") {
		return simulatedResult(reqType), nil
	}

	payload := map[string]interface{}{
		"type":    string(reqType),
		"content": content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := s.client.NewRequest(ctx, "POST", "/analysis", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if strings.TrimSpace(result.Result) == "" {
		return "", ErrEmptyResponse
	}

	return result.Result, nil
}

// simulatedResult returns the canned response for a request type. The text
// carries the same tag grammar the live backend produces so the parser and
// orchestrator cannot tell the modes apart.
func simulatedResult(reqType models.AnalysisRequestType) string {
	switch reqType {
	case models.IdentifyRelevantFiles:
		return "src/app.js\nsrc/state/session.js\nsrc/handlers/save.js"
	case models.StoryAnalysis:
		return `<MERMAID>sequenceDiagram
    participant User
    participant App
    User->>App: click Save
    App->>App: refresh session token
    App--xUser: crash (null token)</MERMAID>
<ROOT_CAUSE_STORY>The save handler reads the session token captured at mount
time. After a background token refresh the captured reference is stale and
resolves to null, so the first save after a refresh dereferences a null token
and crashes.</ROOT_CAUSE_STORY>`
	case models.AnalyzeBugWithCodeAndEvents:
		return `<MERMAID>flowchart TD
    A[User clicks Save] --> B[Token refresh completes]
    B --> C[Handler reads stale token ref]
    C --> D[Null dereference crash]</MERMAID>
<ROOT_CAUSE_STORY>The recorded events show a save click immediately after a
token refresh. The handler closes over the pre-refresh token, which is null
by the time the request is built.</ROOT_CAUSE_STORY>
<UPDATED_BUG_DESCRIPTION>Crash occurs because the save handler dereferences a
null session token after token refresh.</UPDATED_BUG_DESCRIPTION>`
	default:
		return "<ROOT_CAUSE_STORY>No analysis available for this request type.</ROOT_CAUSE_STORY>"
	}
}
