package cli

import (
	"github.com/spf13/cobra"

	"github.com/frankli0324/go-useragent/internal/useragent"
)

func newGetCommand(opts *options) *cobra.Command {
	var (
		method  string
		headers []string
		data    string
		include bool
	)
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Issue a request and print the decoded body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.agent(cmd)
			if err != nil {
				return err
			}
			h, err := parseHeaders(headers)
			if err != nil {
				return err
			}
			callOpts := []useragent.CallOption{useragent.WithMethod(method), useragent.WithHeaders(h)}
			if data != "" {
				callOpts = append(callOpts, useragent.WithPayload(data))
			}
			resp, err := a.Issue(cmd.Context(), args[0], callOpts...)
			if err != nil {
				return err
			}
			printStatus(cmd, resp)
			if include {
				for _, f := range resp.Header().Fields() {
					cmd.PrintErrf("%s: %s\n", f.Name, f.Value)
				}
			}
			content, err := resp.Content()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}
	cmd.Flags().StringVarP(&method, "request", "X", "GET", "request method")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra header, 'Name: value'")
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body")
	cmd.Flags().BoolVarP(&include, "include", "i", false, "print reply headers")
	return cmd
}
