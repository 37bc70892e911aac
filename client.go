// Package bugscope provides the client for the Bugscope backend API: bug and
// project records, repository file content, identity, and the LLM analysis
// gateway used by the reproduction pipeline.
package bugscope

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"bugscope/services"
)

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// Client is the main client for interacting with the Bugscope API.
// After creation, the client is immutable and safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// Custom headers to include in all requests
	headers map[string]string

	// Feature flags cache. The analysis gateway consults
	// "analysis.simulated" to select the offline canned transport.
	featureFlags map[string]interface{}

	timeout     time.Duration
	retryConfig *RetryConfig

	// Service groups
	Bugs     *services.BugService
	Projects *services.ProjectService
	Repo     *services.RepoService
	Auth     *services.AuthService
	LLM      *services.LLMService
}

// RetryConfig configures retry behavior for failed requests.
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient creates a new Client with the given options.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	if apiKey == "" {
		panic("BUGSCOPE_API_KEY is not set. Please set your API key in .env file or environment variables")
	}

	client := &Client{
		baseURL:      "https://bugscope.dev/api",
		apiKey:       apiKey,
		headers:      make(map[string]string),
		featureFlags: make(map[string]interface{}),
		timeout:      30 * time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryConfig: &RetryConfig{
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	// Initialize services
	client.Bugs = services.NewBugService(client)
	client.Projects = services.NewProjectService(client)
	client.Repo = services.NewRepoService(client)
	client.Auth = services.NewAuthService(client)
	client.LLM = services.NewLLMService(client)

	return client
}

// WithBaseURL sets a custom base URL for the client.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *Client) {
		c.retryConfig = config
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds a custom header that will be included in all requests.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithFeatureFlag sets a feature flag value.
func WithFeatureFlag(key string, value interface{}) ClientOption {
	return func(c *Client) {
		c.featureFlags[key] = value
	}
}

// WithSimulatedAnalysis routes all LLM gateway calls through the
// deterministic simulated transport. Used for offline demos and tests.
func WithSimulatedAnalysis() ClientOption {
	return WithFeatureFlag("analysis.simulated", true)
}

// GetFeatureFlag retrieves a feature flag value.
func (c *Client) GetFeatureFlag(key string) (interface{}, bool) {
	val, ok := c.featureFlags[key]
	return val, ok
}

// IsFeatureEnabled checks if a boolean feature flag is enabled.
func (c *Client) IsFeatureEnabled(key string) bool {
	val, ok := c.featureFlags[key]
	if !ok {
		return false
	}
	boolVal, ok := val.(bool)
	return ok && boolVal
}

// GetAPIKey returns the configured API key.
func (c *Client) GetAPIKey() string {
	return c.apiKey
}

// GetBaseURL returns the configured base URL.
func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// NewRequest creates a new HTTP request with auth headers and custom headers.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// Do executes an HTTP request with retry logic.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		resp, err = c.httpClient.Do(req)

		// Success or non-retryable error
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		// Don't retry on last attempt
		if attempt < c.retryConfig.MaxRetries {
			time.Sleep(c.retryConfig.RetryDelay * time.Duration(attempt+1))
		}
	}

	return resp, err
}
