// Package oauth keeps the access/refresh token pair a caller hands in with
// each request and refreshes it against the authorization server.
package oauth

import (
	"context"
	"errors"
	"golang.org/x/oauth2"
	"leadsync/internal/apperrors"
	"leadsync/internal/providers"
	"leadsync/internal/structures"
	"net/http"
	"strings"
	"sync"
	"time"
)

// defaultLifetime is used when the authorization server omits expires_in.
const defaultLifetime = time.Hour

var errNoRefreshToken = errors.New("no refresh token")

type TokenState struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type Options struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Now          func() time.Time
}

// Factory builds one TokenStore per call; credentials are never shared
// between callers.
type Factory struct {
	opts   Options
	logger providers.Logger
}

func NewFactory(conf *structures.Config, logger providers.Logger) *Factory {
	return &Factory{
		opts: Options{
			TokenURL:     conf.OAuth.TokenURL,
			ClientID:     conf.OAuth.ClientID,
			ClientSecret: conf.OAuth.ClientSecret,
			HTTPClient:   &http.Client{Timeout: conf.OAuth.Timeout},
		},
		logger: logger,
	}
}

func (f *Factory) New(state TokenState) *TokenStore {
	store := NewTokenStore(f.opts, f.logger)
	store.SetTokens(state.AccessToken, state.RefreshToken, state.ExpiresAt)
	return store
}

type TokenStore struct {
	mu         sync.Mutex
	config     *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
	logger     providers.Logger
	state      TokenState
	refreshed  bool
}

func NewTokenStore(opts Options, logger providers.Logger) *TokenStore {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TokenStore{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		now:        now,
		logger:     logger,
	}
}

func (s *TokenStore) SetTokens(access, refresh string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = TokenState{
		AccessToken:  strings.TrimSpace(access),
		RefreshToken: strings.TrimSpace(refresh),
		ExpiresAt:    expiresAt,
	}
	s.refreshed = false
}

// State returns the current token triple so callers can persist a rotated pair.
func (s *TokenStore) State() TokenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Refreshed reports whether a refresh succeeded since the last SetTokens.
func (s *TokenStore) Refreshed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshed
}

// GetValidAccessToken returns the cached token while now < expiresAt and
// refreshes first otherwise. Any failure is ErrAuthRequired.
func (s *TokenStore) GetValidAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.AccessToken != "" && s.now().Before(s.state.ExpiresAt) {
		return s.state.AccessToken, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.state.AccessToken, nil
}

// AccessToken matches sheets.AccessTokenProvider.
func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return s.GetValidAccessToken(ctx)
}

func (s *TokenStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *TokenStore) refreshLocked(ctx context.Context) error {
	if s.state.RefreshToken == "" {
		return apperrors.AuthRequired(errNoRefreshToken)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: s.state.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			remote := &apperrors.RemoteError{
				Service: "oauth",
				Status:  retrieveErr.Response.StatusCode,
				Body:    string(retrieveErr.Body),
			}
			s.logger.Warnf(providers.TypeSync, "Refresh grant rejected: %s", remote)
			return apperrors.AuthRequired(remote)
		}
		s.logger.Warnf(providers.TypeSync, "Refresh grant failed: %s", err)
		return apperrors.AuthRequired(err)
	}

	now := s.now()
	s.state.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.state.RefreshToken = token.RefreshToken
	}
	s.state.ExpiresAt = now.Add(expiresIn(token))
	s.refreshed = true
	s.logger.Debugf(providers.TypeSync, "Access token refreshed, expires at %s", s.state.ExpiresAt.Format(time.RFC3339))
	return nil
}

func expiresIn(token *oauth2.Token) time.Duration {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(v) + "s"); err == nil && d > 0 {
			return d
		}
	}
	return defaultLifetime
}
