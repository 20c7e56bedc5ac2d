package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

const (
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagFormat      = "format"
	flagWorkers     = "workers"
	flagChunkSize   = "chunk-size"
	flagRejections  = "rejections"
	flagSnapshotDB  = "snapshot-db"
	flagPreallocate = "preallocate"
)

// NewRootCommand returns a fresh command tree. Each call owns its flag set,
// so tests can build as many as they need.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments-engine [flags] [transactions.csv]",
		Short: "Replay a transaction log and print final account balances",
		Long: `Replay an ordered CSV log of deposits, withdrawals, disputes, resolves and
chargebacks, then print one row per client with available, held and total
balances and the lock flag.

The input is read from the given path, or from stdin when the path is "-"
or omitted. Events the ledger refuses are dropped and can be reported with
--rejections. Malformed input or amount overflow aborts the run.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runProcess,
	}

	flags := cmd.Flags()
	flags.StringP(flagConfig, "c", "", "Path to a TOML config file")
	flags.String(flagLogLevel, "", "Log level: error, warn, info or debug")
	flags.StringP(flagFormat, "f", "", "Output format: csv or json")
	flags.IntP(flagWorkers, "w", 0, "Decode workers; 0 uses one per CPU, 1 decodes inline")
	flags.Int(flagChunkSize, 0, "Records per decode chunk")
	flags.String(flagRejections, "", "Write dropped events as CSV to this path")
	flags.String(flagSnapshotDB, "", "Save the final accounts to this SQLite file")
	flags.Bool(flagPreallocate, false, "Reserve the full client id range up front")

	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newSnapshotsCommand())

	return cmd
}
