package cli

import (
	"github.com/spf13/cobra"
)

func newDownloadCommand(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Store the raw body of a reply in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.agent(cmd)
			if err != nil {
				return err
			}
			resp, err := a.DownloadFile(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}
			printStatus(cmd, resp)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write")
	cmd.MarkFlagRequired("output")
	return cmd
}
