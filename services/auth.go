package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bugscope/models"
)

// AuthService exposes the identity provider. Identity is fetched once and
// passed around explicitly as a session value; there is no global user state.
type AuthService struct {
	client ClientInterface
}

func NewAuthService(client ClientInterface) *AuthService {
	return &AuthService{
		client: client,
	}
}

// CurrentUser returns the authenticated user for the configured API key,
// or (nil, nil) when the key is valid but no session exists.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	req, err := s.client.NewRequest(ctx, "GET", "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &user, nil
}

// SignOut invalidates the current session.
func (s *AuthService) SignOut(ctx context.Context) error {
	req, err := s.client.NewRequest(ctx, "POST", "/auth/signout", nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return decodeAPIError(resp)
	}

	return nil
}
