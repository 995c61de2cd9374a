package main

import (
	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
)

var argparserPython = &cobra.Command{
	Use:   "python {[flags]|SUBCOMMAND...}",
	Short: "Work with the Python interpreters on this system",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserPython)
}
