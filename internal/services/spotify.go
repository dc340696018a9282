// Spotify implementation of [Relayer] and [OAuthService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/desertthunder/spotifie/internal/models"
	"github.com/desertthunder/spotifie/internal/shared"
	"golang.org/x/oauth2"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyService implements [Relayer] and [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify service from the spotify credentials section.
//
// A nil httpClient gets a client bounded by the configured request timeout.
func NewSpotifyService(cfg shared.SpotifyConfig, httpClient *http.Client) (*SpotifyService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}
	if cfg.APIBaseURL == "" || cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("%w: spotify endpoints", shared.ErrInvalidConfig)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &SpotifyService{
		config:     config,
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// URL resolves endpoint against the API base URL.
func (s *SpotifyService) URL(endpoint string) string {
	return s.baseURL + endpoint
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an [models.AuthorizedToken].
//
// Granted scopes come from the token response, falling back to the requested ones.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*models.AuthorizedToken, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %w", shared.ErrAuthFailed, err)
	}

	scopes := s.config.Scopes
	if granted, ok := token.Extra("scope").(string); ok && granted != "" {
		scopes = strings.Fields(granted)
	}

	return &models.AuthorizedToken{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
		Scopes:      append([]string(nil), scopes...),
	}, nil
}

// Identity retrieves the profile behind token and returns its ID and display name.
func (s *SpotifyService) Identity(ctx context.Context, token *models.AuthorizedToken) (*models.Identity, error) {
	body, err := s.Relay(ctx, token, s.URL(EndpointProfile))
	if err != nil {
		return nil, err
	}

	var user SpotifyUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode profile: %w", shared.ErrUpstreamFailure, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile has no id", shared.ErrUpstreamFailure)
	}

	return &models.Identity{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// Relay performs one authenticated GET to url.
//
// The body is read up to [MaxResponseBytes]; anything larger fails with [shared.ErrResponseTooLarge].
// No retries are attempted.
func (s *SpotifyService) Relay(ctx context.Context, token *models.AuthorizedToken, url string) (json.RawMessage, error) {
	if token == nil || token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", shared.ErrUpstreamFailure, err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %w: %w", shared.ErrUpstreamFailure, shared.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: spotify API error: status %d", shared.ErrUpstreamFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrUpstreamFailure, err)
	}
	if int64(len(body)) > MaxResponseBytes {
		return nil, fmt.Errorf("%w: %w", shared.ErrUpstreamFailure, shared.ErrResponseTooLarge)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not JSON", shared.ErrUpstreamFailure)
	}

	return json.RawMessage(body), nil
}
