package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/pyenv"
	"github.com/datawire/pypublish/pkg/python/pep440"
)

func init() {
	var argPython []string
	cmd := &cobra.Command{
		Use:   "find [flags] [CONSTRAINT]",
		Short: "Find an interpreter satisfying a version constraint",
		Long: "Try each candidate interpreter command in order, and print the executable " +
			"path of the first one whose version satisfies the PEP 440 CONSTRAINT " +
			"(for example '>=3.11').  With no constraint, the first working " +
			"interpreter wins.",
		Args: cliutil.WrapPositionalArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var constraint pep440.Specifier
			if len(args) > 0 {
				var err error
				constraint, err = pep440.ParseSpecifier(args[0])
				if err != nil {
					return err
				}
			}
			py, err := pyenv.Find(ctx, argPython, constraint)
			if err != nil {
				return err
			}
			fmt.Println(py.Executable)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&argPython, "python", nil,
		"Candidate interpreter `CMD` to try, in order (may be repeated; default python3, python)")

	argparserPython.AddCommand(cmd)
}
