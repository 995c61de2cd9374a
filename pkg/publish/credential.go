// Copyright (C) 2025  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"

	"github.com/datawire/pypublish/pkg/trustedpub"
)

// A Credential authenticates an upload.  Indexes that take API tokens take them as the password
// of a well-known dummy username.
type Credential struct {
	Username string
	Password string
}

// TokenEnvVar is the environment variable that may carry an upload token.
const TokenEnvVar = "PYPUBLISH_TOKEN"

// TokenCredential wraps an API token as the credential pair the upload endpoint expects.
func TokenCredential(token string) *Credential {
	return &Credential{
		Username: "__token__",
		Password: token,
	}
}

// ResolveCredential picks the upload credential: an explicitly given token wins, then the
// environment, and finally trusted publishing against the index's OIDC endpoints.
func ResolveCredential(ctx context.Context, explicitToken string, trusted trustedpub.Publisher) (*Credential, error) {
	if explicitToken != "" {
		return TokenCredential(explicitToken), nil
	}

	getenv := trusted.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if token := getenv(TokenEnvVar); token != "" {
		dlog.Infof(ctx, "using upload token from $%s", TokenEnvVar)
		return TokenCredential(token), nil
	}

	dlog.Infof(ctx, "no upload token configured; attempting trusted publishing")
	token, err := trusted.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("no upload credential: no token given, $%s is not set, "+
			"and trusted publishing failed: %w", TokenEnvVar, err)
	}
	dlog.Infof(ctx, "minted a short-lived upload token via trusted publishing")
	return TokenCredential(token), nil
}
