package main

import (
	"context"
	"os"
	"path"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/pipeline"
	"github.com/datawire/pypublish/pkg/publish"
	"github.com/datawire/pypublish/pkg/pybuild"
	"github.com/datawire/pypublish/pkg/pyenv"
	"github.com/datawire/pypublish/pkg/pyproject"
	"github.com/datawire/pypublish/pkg/trigger"
)

func init() {
	var flags struct {
		ProjectDir    string
		Event         string
		OutDir        string
		Python        []string
		NoIsolation   bool
		RepositoryURL string
		Token         string
		SkipExisting  bool
	}
	cmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Run the whole publish pipeline",
		Long: "Run the publish pipeline as one linear job: find a Python satisfying the " +
			"project's requires-python, build the sdist and wheel into a scratch " +
			"directory, and upload them.  With --event, first check the push's " +
			"changed paths against the project's manifest path, and exit 0 without " +
			"doing anything if the manifest wasn't touched.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if flags.Event != "" {
				// Changed paths from the event are repository-relative, so the
				// project dir must be too for the pattern to mean anything.
				pattern := path.Join(flags.ProjectDir, pyproject.Filename)
				ev, err := trigger.LoadEvent(flags.Event)
				if err != nil {
					return err
				}
				run, err := trigger.ShouldRun(ev.ChangedPaths(), []string{pattern})
				if err != nil {
					return err
				}
				if !run {
					dlog.Infof(ctx, "%s is not among the push's changed paths; nothing to do", pattern)
					return nil
				}
			}

			outDir := flags.OutDir
			if outDir == "" {
				tmp, err := os.MkdirTemp("", "pypublish-dist-")
				if err != nil {
					return err
				}
				defer func() {
					_ = os.RemoveAll(tmp)
				}()
				outDir = tmp
			}

			var py *pyenv.Interpreter
			var built *pybuild.Result
			return pipeline.Run(ctx, []pipeline.Step{
				{Name: "setup-python", Run: func(ctx context.Context) error {
					manifest, err := pyproject.LoadDir(flags.ProjectDir)
					if err != nil {
						return err
					}
					py, err = pyenv.Find(ctx, flags.Python, manifest.Project.ParsedRequiresPython())
					return err
				}},
				{Name: "build", Run: func(ctx context.Context) error {
					var err error
					built, err = pybuild.Build(ctx, py, pybuild.Options{
						ProjectDir:  flags.ProjectDir,
						OutDir:      outDir,
						NoIsolation: flags.NoIsolation,
					})
					return err
				}},
				{Name: "publish", Run: func(ctx context.Context) error {
					up, err := newUploader(ctx, flags.RepositoryURL, flags.Token, flags.SkipExisting)
					if err != nil {
						return err
					}
					report, err := up.Upload(ctx, built.Artifacts)
					if err != nil {
						return err
					}
					dlog.Infof(ctx, "uploaded %d file(s), skipped %d",
						len(report.Uploaded), len(report.Skipped))
					return nil
				}},
			})
		},
	}
	cmd.Flags().StringVar(&flags.ProjectDir, "project-dir", ".",
		"Build the project in `DIR` (the directory containing "+pyproject.Filename+")")
	cmd.Flags().StringVar(&flags.Event, "event", "",
		"Only run if the push-event payload in `FILE` touches the project's manifest")
	cmd.Flags().StringVar(&flags.OutDir, "outdir", "",
		"Build into `DIR` and keep it (default: a scratch directory, removed afterwards)")
	cmd.Flags().StringArrayVar(&flags.Python, "python", nil,
		"Candidate interpreter `CMD` to try, in order (may be repeated; default python3, python)")
	cmd.Flags().BoolVar(&flags.NoIsolation, "no-isolation", false,
		"Build in the current environment instead of an isolated one")
	cmd.Flags().StringVar(&flags.RepositoryURL, "repository-url", publish.DefaultRepositoryURL,
		"Upload to the index at `URL`")
	cmd.Flags().StringVar(&flags.Token, "token", "",
		"API `TOKEN` to authenticate with")
	cmd.Flags().BoolVar(&flags.SkipExisting, "skip-existing", false,
		"Treat files the index already has as successfully published")

	argparser.AddCommand(cmd)
}
