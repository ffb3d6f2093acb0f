package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pageview/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
	Count    int
	Prefix   string
}

// SeedResult is the seed command's output.
type SeedResult struct {
	Database string `json:"database"`
	Inserted int    `json:"inserted"`
	Total    int    `json:"total"`
}

func (r SeedResult) String() string {
	return fmt.Sprintf("Inserted %d datasets into %s (%d total)", r.Inserted, r.Database, r.Total)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo datasets",
		Long: `Insert demo datasets into a SQLite database, creating it if needed.

Examples:
  pageview seed --db ./pageview.db --count 250
  pageview seed --db ./pageview.db --count 10 --prefix extra`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 250, "number of datasets to insert")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "dataset", "dataset name prefix")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	if opts.Count < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("count must be positive, got %d", opts.Count))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	before, err := st.Count(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count datasets", err)
	}

	batch := make([]store.NewDataset, opts.Count)
	for i := range batch {
		n := before + i + 1
		batch[i] = store.NewDataset{
			Name:        fmt.Sprintf("%s-%04d", opts.Prefix, n),
			Description: fmt.Sprintf("Demo dataset %d", n),
			Metadata: map[string]any{
				"index":  n,
				"source": "seed",
			},
		}
	}
	if err := st.InsertDatasets(ctx, batch); err != nil {
		return WrapExitError(ExitFailure, "failed to insert datasets", err)
	}

	total, err := st.Count(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count datasets", err)
	}

	return opts.formatter(cmd).Success(SeedResult{
		Database: opts.Database,
		Inserted: opts.Count,
		Total:    total,
	})
}
