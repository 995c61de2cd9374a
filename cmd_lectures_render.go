package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/datawire/pypublish/pkg/cliutil"
	"github.com/datawire/pypublish/pkg/lectures"
)

func init() {
	cmd := &cobra.Command{
		Use:   "render [flags] RECORDS.yml >SECTION.md",
		Short: "Render the lecture records to markdown",
		Long: "Validate the lecture records in RECORDS.yml and render them to the " +
			"markdown section that belongs in the course README.  The output is a " +
			"pure function of the records.",
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := lectures.Load(args[0])
			if err != nil {
				return err
			}
			if _, err := io.WriteString(os.Stdout, f.Render()); err != nil {
				return err
			}
			return nil
		},
	}
	argparserLectures.AddCommand(cmd)
}
