package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frankli0324/go-useragent/internal/useragent"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uafetch version %s\n", useragent.Version)
		},
	}
}
