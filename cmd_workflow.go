package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/workflow"
)

func init() {
	var flags struct {
		Name          string
		Branches      []string
		PythonVersion string
		RepositoryURL string
		SkipExisting  bool
	}
	cmd := &cobra.Command{
		Use:   "workflow [flags] MANIFEST_PATH >OUT_WORKFLOW.yml",
		Short: "Generate the CI workflow that runs this pipeline",
		Long: "Generate the hosting platform's workflow definition: trigger on pushes " +
			"that touch MANIFEST_PATH (relative to the repository root), set up the " +
			"runtime, and run `pypublish run` against the manifest's directory, with " +
			"the id-token permission that trusted publishing needs.  Conventionally " +
			"saved as " + workflow.DefaultPath + ".",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := workflow.Generate(workflow.Options{
				Name:          flags.Name,
				Branches:      flags.Branches,
				ManifestPath:  args[0],
				PythonVersion: flags.PythonVersion,
				RepositoryURL: flags.RepositoryURL,
				SkipExisting:  flags.SkipExisting,
			})
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(out); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "publish",
		"Workflow `NAME`")
	cmd.Flags().StringArrayVar(&flags.Branches, "branch", nil,
		"Only trigger on pushes to `BRANCH` (may be repeated; default any branch)")
	cmd.Flags().StringVar(&flags.PythonVersion, "python-version", "3.x",
		"Python `VERSION` for the workflow's runtime-setup step")
	cmd.Flags().StringVar(&flags.RepositoryURL, "repository-url", "",
		"Have the workflow upload to the index at `URL` instead of the default")
	cmd.Flags().BoolVar(&flags.SkipExisting, "skip-existing", false,
		"Have the workflow treat already-published files as success")

	argparser.AddCommand(cmd)
}
