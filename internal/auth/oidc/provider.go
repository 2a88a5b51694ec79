// Package oidc implements Google sign-in for BottleCRM on top of OpenID Connect.
// It verifies Google ID tokens posted by clients and drives the server-side
// authorization code flow used by the browser login redirect.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/bottlecrm/bottlecrm/internal/config"
)

// GoogleIssuer is the issuer Google signs ID tokens as
const GoogleIssuer = "https://accounts.google.com"

// GoogleUser is the identity extracted from a verified Google ID token
type GoogleUser struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleProvider wraps the Google OIDC provider
type GoogleProvider struct {
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
}

// NewGoogleProvider initializes the provider using a background context.
func NewGoogleProvider(cfg *config.GoogleConfig) (*GoogleProvider, error) {
	return NewGoogleProviderWithContext(context.Background(), cfg)
}

// NewGoogleProviderWithContext initializes the provider with the given context,
// allowing callers to set deadlines or cancellation for the discovery request.
func NewGoogleProviderWithContext(ctx context.Context, cfg *config.GoogleConfig) (*GoogleProvider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("google sign-in is not configured")
	}

	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &GoogleProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

// NewGoogleProviderWithVerifier builds a provider around an existing verifier and
// OAuth2 config. It performs no network discovery.
func NewGoogleProviderWithVerifier(verifier *oidc.IDTokenVerifier, oauthConfig *oauth2.Config) *GoogleProvider {
	return &GoogleProvider{verifier: verifier, config: oauthConfig}
}

// GetAuthURL returns the Google consent URL for the code flow
func (p *GoogleProvider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode exchanges the authorization code for tokens and returns the raw ID token
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code for token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", fmt.Errorf("token response did not include an id_token")
	}
	return rawIDToken, nil
}

// Authenticate verifies a Google ID token and extracts the user it identifies
func (p *GoogleProvider) Authenticate(ctx context.Context, rawIDToken string) (*GoogleUser, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return ExtractUserInfo(idToken)
}

// ExtractUserInfo extracts user information from a verified ID token
func ExtractUserInfo(idToken *oidc.IDToken) (*GoogleUser, error) {
	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("ID token missing 'sub' claim")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("ID token missing 'email' claim")
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, fmt.Errorf("email %s is not verified", claims.Email)
	}

	// Name is optional, use email if not provided
	if claims.Name == "" {
		claims.Name = claims.Email
	}

	return &GoogleUser{
		Subject: claims.Sub,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
