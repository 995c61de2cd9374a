package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/pybuild"
	"github.com/datawire/pypublish/pkg/pyenv"
	"github.com/datawire/pypublish/pkg/pyproject"
)

func init() {
	var flags struct {
		OutDir      string
		Sdist       bool
		Wheel       bool
		NoIsolation bool
		Python      []string
	}
	cmd := &cobra.Command{
		Use:   "build [flags] PROJECT_DIR",
		Short: "Build a project's sdist and wheel",
		Long: "Find a Python interpreter satisfying the project's requires-python, run " +
			"the standard `python -m build` against PROJECT_DIR, and verify that the " +
			"produced archives all declare the project's name and version.  The " +
			"output directory must be empty or absent.  Prints the paths of the " +
			"built archives.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectDir := args[0]

			manifest, err := pyproject.LoadDir(projectDir)
			if err != nil {
				return err
			}
			py, err := pyenv.Find(ctx, flags.Python, manifest.Project.ParsedRequiresPython())
			if err != nil {
				return err
			}
			result, err := pybuild.Build(ctx, py, pybuild.Options{
				ProjectDir:  projectDir,
				OutDir:      flags.OutDir,
				Sdist:       flags.Sdist,
				Wheel:       flags.Wheel,
				NoIsolation: flags.NoIsolation,
			})
			if err != nil {
				return err
			}
			for _, artifact := range result.Artifacts {
				fmt.Println(artifact.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.OutDir, "outdir", "dist",
		"Write the built archives to `DIR`")
	cmd.Flags().BoolVar(&flags.Sdist, "sdist", false,
		"Build only the source distribution")
	cmd.Flags().BoolVar(&flags.Wheel, "wheel", false,
		"Build only the wheel")
	cmd.Flags().BoolVar(&flags.NoIsolation, "no-isolation", false,
		"Build in the current environment instead of an isolated one")
	cmd.Flags().StringArrayVar(&flags.Python, "python", nil,
		"Candidate interpreter `CMD` to try, in order (may be repeated; default python3, python)")

	argparser.AddCommand(cmd)
}
