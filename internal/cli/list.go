package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/render"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	SourceFlags
	Pages int
	All   bool
	Width int
}

// ListResult is the JSON form of the list command's output.
type ListResult struct {
	Columns []string     `json:"columns"`
	Rows    []pager.Row  `json:"rows"`
	Cursor  pager.Cursor `json:"cursor"`
	Stats   pager.Stats  `json:"stats"`
	Error   string       `json:"error,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load pages and print them as a table",
		Long: `Load one or more pages through an incremental view and print the
accumulated rows.

Examples:
  pageview list --db ./pageview.db
  pageview list --db ./pageview.db --pages 3
  pageview list --url http://localhost:8080 --all --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "read from this SQLite database")
	cmd.Flags().StringVar(&opts.URL, "url", "", "read from this pageview endpoint")
	cmd.Flags().IntVar(&opts.Pages, "pages", 1, "number of pages to load")
	cmd.Flags().BoolVar(&opts.All, "all", false, "load until the source is exhausted")
	cmd.Flags().IntVar(&opts.Width, "width", render.DefaultMaxColumnWidth, "maximum column width")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if opts.Pages < 1 && !opts.All {
		return NewExitError(ExitCommandError, fmt.Sprintf("pages must be positive, got %d", opts.Pages))
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	opts.SourceFlags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid source", err)
	}

	logger := opts.logger(cmd.ErrOrStderr())
	src, release, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	viewOpts := append(cfg.ViewOptions(), pager.WithLogger(logger))
	d, err := pager.NewDriver(src, cfg.PagerColumns(), viewOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid view", err)
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	maxPages := opts.Pages
	if opts.All {
		maxPages = 0
	}
	snap, err := loadPages(ctx, d, maxPages)
	if err != nil {
		return WrapExitError(ExitFailure, "interrupted", err)
	}

	f := opts.formatter(cmd)
	if f.JSON() {
		res := ListResult{
			Columns: snap.Model.Columns,
			Rows:    snap.Model.Rows,
			Cursor:  snap.Cursor,
			Stats:   snap.Stats,
		}
		if snap.Err != nil {
			res.Error = snap.Err.Error()
		}
		if err := f.Success(res); err != nil {
			return err
		}
	} else {
		if err := render.Write(f.Writer, snap.Model, opts.Width); err != nil {
			return err
		}
		fmt.Fprintln(f.Writer, render.Status(len(snap.Model.Rows), snap.Cursor, snap.Err))
	}

	if pager.IsFetchError(snap.Err) {
		return WrapExitError(ExitFailure, "fetch failed", snap.Err)
	}
	if snap.Err != nil {
		logger.Warn("pagination stopped early", "error", snap.Err)
	}
	return nil
}

// loadPages drives d until maxPages pages have arrived (0 means no
// limit), the source is exhausted or a fetch fails. It returns the final
// snapshot.
func loadPages(ctx context.Context, d *pager.Driver, maxPages int) (pager.Snapshot, error) {
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- d.Run(runCtx) }()

	finish := func() (pager.Snapshot, error) {
		d.Stop()
		err := <-done
		stop()
		return d.Snapshot(), err
	}

	// issued counts our Load calls; until the view has turned all of them
	// into requests, snapshots are stale.
	issued := 0
	for {
		select {
		case <-ctx.Done():
			stop()
			<-done
			return d.Snapshot(), ctx.Err()
		case <-d.Changes():
		}

		snap := d.Snapshot()
		if snap.Stats.Requests < issued || snap.Cursor.Fetching {
			continue
		}
		if pager.IsFetchError(snap.Err) {
			return finish()
		}
		if !snap.Cursor.CanFetch() || (maxPages > 0 && snap.Stats.Pages >= maxPages) {
			return finish()
		}
		if !d.Load() {
			return finish()
		}
		issued++
	}
}
