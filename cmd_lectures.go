package main

import (
	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
)

var argparserLectures = &cobra.Command{
	Use:   "lectures {[flags]|SUBCOMMAND...}",
	Short: "Maintain the course's lecture index",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,
}

func init() {
	argparser.AddCommand(argparserLectures)
}
