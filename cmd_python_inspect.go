package main

import (
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/pyenv"
)

func init() {
	var argInterpreter string
	cmd := &cobra.Command{
		Use:   "inspect [flags] >PYTHON_INFO.yml",
		Short: "Dump information about a Python interpreter",
		Long: "Run the interpreter and dump what it reports about itself (resolved " +
			"executable, installation prefix, version) as YAML.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			py, err := pyenv.Inspect(ctx, argInterpreter)
			if err != nil {
				return err
			}
			bs, err := yaml.Marshal(py)
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(bs); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&argInterpreter, "interpreter", "python3",
		"The Python interpreter to inspect")

	argparserPython.AddCommand(cmd)
}
