package main

import (
	"fmt"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/publish"
	"github.com/datawire/pypublish/pkg/python/dist"
)

func init() {
	var flags struct {
		RepositoryURL string
		Token         string
		SkipExisting  bool
	}
	cmd := &cobra.Command{
		Use:   "upload [flags] DIST_DIR",
		Short: "Upload built archives to a package index",
		Long: "Upload every archive in DIST_DIR to the package index.  The credential is " +
			"the first of: --token, $" + publish.TokenEnvVar + ", or a short-lived " +
			"token minted via trusted publishing from the CI job's ambient identity.  " +
			"Without --skip-existing, a file the index already has is an error.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			artifacts, err := dist.Scan(args[0])
			if err != nil {
				return err
			}
			if len(artifacts) == 0 {
				return fmt.Errorf("no distribution archives in %q", args[0])
			}
			if err := dist.Verify(artifacts, artifacts[0].Name, nil); err != nil {
				return err
			}
			up, err := newUploader(ctx, flags.RepositoryURL, flags.Token, flags.SkipExisting)
			if err != nil {
				return err
			}
			report, err := up.Upload(ctx, artifacts)
			if err != nil {
				return err
			}
			dlog.Infof(ctx, "uploaded %d file(s), skipped %d",
				len(report.Uploaded), len(report.Skipped))
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.RepositoryURL, "repository-url", publish.DefaultRepositoryURL,
		"Upload to the index at `URL`")
	cmd.Flags().StringVar(&flags.Token, "token", "",
		"API `TOKEN` to authenticate with")
	cmd.Flags().BoolVar(&flags.SkipExisting, "skip-existing", false,
		"Treat files the index already has as successfully published")

	argparser.AddCommand(cmd)
}
