package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/lectures"
)

func init() {
	var flags struct {
		Records string
		Fix     bool
	}
	cmd := &cobra.Command{
		Use:   "check [flags] INDEX.md",
		Short: "Check the lecture section of a markdown document",
		Long: "Parse the \"" + lectures.RenderedHeading + "\" section of INDEX.md back " +
			"into records and validate them (numbering, dates, links).  With " +
			"--records, additionally require the section to be exactly what the " +
			"records render to, printing a diff when it isn't; with --fix, rewrite " +
			"the section in place instead.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			indexPath := args[0]

			doc, err := os.ReadFile(indexPath)
			if err != nil {
				return err
			}

			if flags.Fix {
				if flags.Records == "" {
					return fmt.Errorf("--fix requires --records")
				}
				f, err := lectures.Load(flags.Records)
				if err != nil {
					return err
				}
				updated, err := lectures.Replace(doc, f)
				if err != nil {
					return err
				}
				if bytes.Equal(updated, doc) {
					return nil
				}
				if err := os.WriteFile(indexPath, updated, 0o666); err != nil {
					return err
				}
				dlog.Infof(ctx, "updated the %q section of %s",
					lectures.RenderedHeading, indexPath)
				return nil
			}

			if _, err := lectures.Parse(doc); err != nil {
				return fmt.Errorf("%s: %w", indexPath, err)
			}
			if flags.Records != "" {
				f, err := lectures.Load(flags.Records)
				if err != nil {
					return err
				}
				diff, err := lectures.Check(doc, f)
				if err != nil {
					return err
				}
				if diff != "" {
					if _, err := os.Stdout.WriteString(diff); err != nil {
						return err
					}
					return fmt.Errorf("%s does not match %s (see diff above)",
						indexPath, flags.Records)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.Records, "records", "",
		"Require the section to render exactly from the records in `FILE`")
	cmd.Flags().BoolVar(&flags.Fix, "fix", false,
		"Rewrite the section from --records instead of failing on mismatch")

	argparserLectures.AddCommand(cmd)
}
