package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xraph/courier/action"
	"github.com/xraph/courier/store/sqlite"
)

// RecordView is one persisted action as printed by records list.
type RecordView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Key        string `json:"key"`
	RetryCount int    `json:"retry_count"`
	RetryLimit int    `json:"retry_limit"`
	Error      string `json:"error,omitempty"`
}

// NewRecordsCommand creates the records command group.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect persisted actions",
	}
	cmd.AddCommand(newRecordsListCommand(rootOpts))
	cmd.AddCommand(newRecordsPurgeCommand(rootOpts))
	return cmd
}

func newRecordsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List actions that have not reached a terminal outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.ListIncomplete(ctx)
			if err != nil {
				return err
			}
			views := make([]RecordView, 0, len(records))
			for _, rec := range records {
				view := RecordView{ID: rec.ID}
				snap, err := action.JSONCodec{}.Decode(rec.Data)
				if err != nil {
					view.Error = err.Error()
				} else {
					view.Name, view.Key = snap.Name, snap.Key
					view.RetryCount, view.RetryLimit = snap.RetryCount, snap.RetryLimit
				}
				views = append(views, view)
			}
			return printRecords(cmd, opts.Format, views)
		},
	}
}

func newRecordsPurgeCommand(opts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every persisted action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("refusing to purge %s without --force", opts.Database)
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteAll(ctx); err != nil {
				return err
			}
			opts.logger.Info("persisted actions purged", slog.String("db", opts.Database))
			fmt.Fprintln(cmd.OutOrStdout(), "purged")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion")
	return cmd
}

func openStore(ctx context.Context, opts *RootOptions) (*sqlite.Store, error) {
	return sqlite.Open(ctx, opts.Database, sqlite.WithLogger(opts.logger))
}

func printRecords(cmd *cobra.Command, format string, views []RecordView) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	if len(views) == 0 {
		fmt.Fprintln(out, "no persisted actions")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKEY\tRETRIES\tERROR")
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%s\n", v.ID, v.Name, v.Key, v.RetryCount, v.RetryLimit, v.Error)
	}
	return tw.Flush()
}
