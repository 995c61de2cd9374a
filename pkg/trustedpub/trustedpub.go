// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package trustedpub implements the client side of "trusted publishing": redeeming the ambient
// OIDC identity of a CI run for a short-lived upload token, so that no long-lived secret has to
// live in the repository settings.
//
// https://docs.pypi.org/trusted-publishers/
package trustedpub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// ErrNoAmbientOIDC means the process isn't running in a CI job that can prove its identity;
// for GitHub that means the workflow didn't grant `id-token: write`.
var ErrNoAmbientOIDC = errors.New("no ambient OIDC credentials " +
	"(ACTIONS_ID_TOKEN_REQUEST_URL and ACTIONS_ID_TOKEN_REQUEST_TOKEN are not set)")

type Publisher struct {
	// ServiceURL is the origin of the index service ("https://pypi.org"); the OIDC
	// endpoints live under its /_/oidc/ path.
	ServiceURL string
	HTTPClient *http.Client
	UserAgent  string

	// Getenv is swappable for tests; nil means os.Getenv.
	Getenv func(string) string
}

func (p *Publisher) fillDefaults() {
	if p.HTTPClient == nil {
		p.HTTPClient = http.DefaultClient
	}
	if p.UserAgent == "" {
		p.UserAgent = "github.com/datawire/pypublish/pkg/trustedpub"
	}
	if p.Getenv == nil {
		p.Getenv = os.Getenv
	}
}

// ServiceURLForRepository guesses the index service origin that mints tokens for a given upload
// endpoint.  The big indexes put their upload endpoint on a different host than the service
// itself, so a couple of well-known hosts get special-cased; anything else is assumed to serve
// both from one origin.
func ServiceURLForRepository(repositoryURL string) (string, error) {
	u, err := url.Parse(repositoryURL)
	if err != nil {
		return "", err
	}
	switch u.Host {
	case "upload.pypi.org":
		return "https://pypi.org", nil
	case "test.pypi.org":
		return "https://test.pypi.org", nil
	default:
		if u.Scheme == "" || u.Host == "" {
			return "", fmt.Errorf("repository URL %q has no origin", repositoryURL)
		}
		return u.Scheme + "://" + u.Host, nil
	}
}

func (p Publisher) get(ctx context.Context, requestURL string, bearer string, respBody interface{}) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()
	p.fillDefaults()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return err
	}
	if err := resp.Body.Close(); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %s", resp.Status)
	}
	return json.Unmarshal(content, respBody)
}

// Audience asks the index what audience claim it expects in identity tokens.
func (p Publisher) Audience(ctx context.Context) (string, error) {
	var respBody struct {
		Audience string `json:"audience"`
	}
	if err := p.get(ctx, strings.TrimSuffix(p.ServiceURL, "/")+"/_/oidc/audience", "", &respBody); err != nil {
		return "", err
	}
	if respBody.Audience == "" {
		return "", fmt.Errorf("index did not report an OIDC audience")
	}
	return respBody.Audience, nil
}

// GitHubIDToken redeems the runner's ambient OIDC credentials for an identity token naming the
// given audience.
func (p Publisher) GitHubIDToken(ctx context.Context, audience string) (string, error) {
	p.fillDefaults()
	requestURL := p.Getenv("ACTIONS_ID_TOKEN_REQUEST_URL")
	requestToken := p.Getenv("ACTIONS_ID_TOKEN_REQUEST_TOKEN")
	if requestURL == "" || requestToken == "" {
		return "", ErrNoAmbientOIDC
	}

	u, err := url.Parse(requestURL)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Set("audience", audience)
	u.RawQuery = query.Encode()

	var respBody struct {
		Value string `json:"value"`
	}
	if err := p.get(ctx, u.String(), requestToken, &respBody); err != nil {
		return "", err
	}
	if respBody.Value == "" {
		return "", fmt.Errorf("GET %q => empty identity token", u.String())
	}
	return respBody.Value, nil
}

// MintToken exchanges the identity token for a short-lived upload token.
func (p Publisher) MintToken(ctx context.Context, idToken string) (_ string, err error) {
	requestURL := strings.TrimSuffix(p.ServiceURL, "/") + "/_/oidc/mint-token"
	defer func() {
		if err != nil {
			err = fmt.Errorf("POST %q => %w", requestURL, err)
		}
	}()
	p.fillDefaults()

	reqBody, err := json.Marshal(map[string]string{"token": idToken})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return "", err
	}
	if err := resp.Body.Close(); err != nil {
		return "", err
	}

	if resp.StatusCode/100 != 2 {
		// The index explains rejections in a structured body; surface that instead of a
		// bare status code.
		var errBody struct {
			Message string `json:"message"`
			Errors  []struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"errors"`
		}
		if json.Unmarshal(content, &errBody) == nil && (errBody.Message != "" || len(errBody.Errors) > 0) {
			parts := make([]string, 0, len(errBody.Errors))
			for _, e := range errBody.Errors {
				parts = append(parts, fmt.Sprintf("%s: %s", e.Code, e.Description))
			}
			detail := errBody.Message
			if len(parts) > 0 {
				detail += ": " + strings.Join(parts, "; ")
			}
			return "", fmt.Errorf("HTTP %s: %s", resp.Status, detail)
		}
		return "", fmt.Errorf("HTTP %s", resp.Status)
	}

	var respBody struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(content, &respBody); err != nil {
		return "", err
	}
	if respBody.Token == "" {
		return "", fmt.Errorf("response carried no token")
	}
	return respBody.Token, nil
}

// Token runs the whole dance: discover the audience, prove our identity to the CI provider,
// and trade that proof for an upload token.
func (p Publisher) Token(ctx context.Context) (string, error) {
	audience, err := p.Audience(ctx)
	if err != nil {
		return "", err
	}
	idToken, err := p.GitHubIDToken(ctx, audience)
	if err != nil {
		return "", err
	}
	return p.MintToken(ctx, idToken)
}
