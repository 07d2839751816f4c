// Package cli implements the uafetch command line tool.
package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/frankli0324/go-useragent/internal/config"
	"github.com/frankli0324/go-useragent/internal/logger"
	"github.com/frankli0324/go-useragent/internal/useragent"
)

type options struct {
	configPath string
	verbose    bool
	noColor    bool
}

// NewRootCommand returns the uafetch command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "uafetch",
		Short: "Fetch URLs with retries, redirects and cookies",
		Long: `uafetch issues HTTP requests through go-useragent: redirects are
followed, timeouts retried and compressed bodies decoded.

Configuration is read from --config and USERAGENT_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every hop")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newGetCommand(opts))
	root.AddCommand(newDownloadCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

func (o *options) agent(cmd *cobra.Command) (*useragent.UserAgent, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	level := zerolog.LevelWarnValue
	if o.verbose {
		level = zerolog.LevelDebugValue
	}
	log := logger.New(cmd.ErrOrStderr(), level, true)
	return useragent.NewFromConfig(cfg, useragent.WithLogger(log))
}

func parseHeaders(values []string) (useragent.Header, error) {
	var h useragent.Header
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return h, fmt.Errorf("invalid header %q, want 'Name: value'", v)
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h, nil
}

func printStatus(cmd *cobra.Command, resp *useragent.Response) {
	code := resp.StatusCode()
	c := color.New(color.FgRed)
	switch {
	case code >= 200 && code < 300:
		c = color.New(color.FgGreen)
	case code >= 300 && code < 400:
		c = color.New(color.FgYellow)
	}
	c.Fprintf(cmd.ErrOrStderr(), "%d %s\n", code, resp.Request().FullURL())
}
