// Command pypublish is the small CI pipeline behind a course repository's Python package:
// when the package manifest changes, find a suitable interpreter, build the sdist and wheel,
// and upload them to a package index.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/datawire/pypublish/pkg/cliutil"
)

var argparser = &cobra.Command{
	Use:   "pypublish {[flags]|SUBCOMMAND...}",
	Short: "Build and publish a Python package when its manifest changes",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	// The Python tooling that this wraps spells its flags with underscores; accept those
	// spellings too.
	argparser.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func main() {
	ctx := context.Background()

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
