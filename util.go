package main

import (
	"context"

	"github.com/datawire/pypublish/pkg/publish"
	"github.com/datawire/pypublish/pkg/python/pep503"
	"github.com/datawire/pypublish/pkg/trustedpub"
)

// newUploader assembles the publisher for a repository URL: resolve a credential (explicit
// token, $PYPUBLISH_TOKEN, or trusted publishing against the repository's index service), and
// wire up the simple-API client that --skip-existing consults.
func newUploader(ctx context.Context, repositoryURL, token string, skipExisting bool) (*publish.Uploader, error) {
	if repositoryURL == "" {
		repositoryURL = publish.DefaultRepositoryURL
	}
	serviceURL, err := trustedpub.ServiceURLForRepository(repositoryURL)
	if err != nil {
		return nil, err
	}
	cred, err := publish.ResolveCredential(ctx, token, trustedpub.Publisher{ServiceURL: serviceURL})
	if err != nil {
		return nil, err
	}
	up := &publish.Uploader{
		RepositoryURL: repositoryURL,
		Credential:    cred,
		SkipExisting:  skipExisting,
	}
	if skipExisting {
		up.Index = &pep503.Client{BaseURL: serviceURL + "/simple/"}
	}
	return up, nil
}
