package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pageview/internal/config"
	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/tui"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	SourceFlags
	Width int
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Scroll through datasets in a terminal table",
		Long: `Open an interactive table that fetches the next page as you scroll
toward the end.

Keys: up/down (j/k), pgup/pgdown, home/end (g/G), r to retry a failed
fetch, q to quit.

Examples:
  pageview browse --db ./pageview.db
  pageview browse --url http://localhost:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "read from this SQLite database")
	cmd.Flags().StringVar(&opts.URL, "url", "", "read from this pageview endpoint")
	cmd.Flags().IntVar(&opts.Width, "width", 30, "maximum column width")

	return cmd
}

func runBrowse(opts *BrowseOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	opts.SourceFlags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid source", err)
	}

	// The terminal belongs to the table; only verbose runs log, to stderr.
	logWriter := io.Discard
	if opts.Verbose {
		logWriter = cmd.ErrOrStderr()
	}
	logger := opts.logger(logWriter)

	src, release, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	title := "pageview: " + cfg.Source.Database
	if cfg.Source.Kind == config.SourceHTTP {
		title = "pageview: " + cfg.Source.URL
	}

	viewOpts := append(cfg.ViewOptions(), pager.WithLogger(logger))
	err = tui.Run(cmd.Context(), src, cfg.PagerColumns(), tui.Config{
		Title:          title,
		RowHeight:      cfg.RowHeight,
		MaxColumnWidth: opts.Width,
	}, viewOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "browse failed", err)
	}
	return nil
}
