package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/LerianStudio/payments-engine/payments/codec"
	"github.com/LerianStudio/payments-engine/payments/snapshot/sqlite"
	"github.com/spf13/cobra"
)

func newSnapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots DB",
		Short: "List snapshots saved with --snapshot-db",
		Long: `List the runs saved in a snapshot database, newest first. With --run, print
that run's accounts in the same format as the main command.`,
		Args: cobra.ExactArgs(1),
		RunE: runSnapshots,
	}

	cmd.Flags().String("run", "", "Print the accounts saved under this run id")
	cmd.Flags().StringP(flagFormat, "f", codec.FormatCSV, "Output format for --run: csv or json")

	return cmd
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	runID, _ := cmd.Flags().GetString("run")
	format, _ := cmd.Flags().GetString(flagFormat)

	store, err := sqlite.Open(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	if runID != "" {
		enc, err := codec.NewEncoder(format, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		accounts, err := store.Accounts(ctx, runID)
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			return fmt.Errorf("run %q not found in %s", runID, args[0])
		}

		return enc.Encode(accounts)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tACCOUNTS\tCREATED")

	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", run.ID, run.Accounts, run.CreatedAt.Format(time.RFC3339))
	}

	return tw.Flush()
}
