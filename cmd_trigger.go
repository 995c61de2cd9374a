package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/trigger"
)

func init() {
	var flags struct {
		Event string
		Git   string
		Repo  string
		Quiet bool
	}
	cmd := &cobra.Command{
		Use:   "trigger [flags] PATTERN...",
		Short: "Decide whether a push's changed paths warrant a publish",
		Long: "Compute the set of paths changed by a push (from a push-event payload, or " +
			"from a git revision range), and print the ones matching the given " +
			"`**`-style PATTERNs.  With --quiet, print nothing and instead exit " +
			"grep-style: status 0 if any path matched, status 1 if none did.",
		Args: cliutil.WrapPositionalArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var paths []string
			var err error
			switch {
			case flags.Event != "" && flags.Git != "":
				return fmt.Errorf("--event and --git are mutually exclusive")
			case flags.Event != "":
				ev, err := trigger.LoadEvent(flags.Event)
				if err != nil {
					return err
				}
				paths = ev.ChangedPaths()
			case flags.Git != "":
				before, after, ok := strings.Cut(flags.Git, "..")
				if !ok {
					return fmt.Errorf("--git %q: expected BEFORE..AFTER", flags.Git)
				}
				// Tolerate the three-dot spelling too.
				after = strings.TrimPrefix(after, ".")
				paths, err = trigger.GitChangedPaths(ctx, flags.Repo, before, after)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --event or --git is required")
			}

			matched, err := trigger.Filter(paths, args)
			if err != nil {
				return err
			}
			if flags.Quiet {
				if len(matched) == 0 {
					os.Exit(1)
				}
				return nil
			}
			for _, p := range matched {
				fmt.Println(p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Event, "event", "",
		"Read changed paths from the push-event payload in `FILE`")
	cmd.Flags().StringVar(&flags.Git, "git", "",
		"Read changed paths from the git range `BEFORE..AFTER`")
	cmd.Flags().StringVar(&flags.Repo, "repo", ".",
		"Resolve --git revisions in the repository at `DIR`")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false,
		"Print nothing; exit 1 if no path matched")

	argparser.AddCommand(cmd)
}
