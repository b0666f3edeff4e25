package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfoundry/mlgit/pkg/table"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Log and fetch model backtest series",
}

var backtestGetCmd = &cobra.Command{
	Use:   "get <model>",
	Short: "Fetch the stored backtest series as CSV on stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient()
		if err != nil {
			return err
		}
		backtest, err := client.GetModelBacktest(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return table.Encode(os.Stdout, backtest, table.WriteOptions{})
	},
}

var backtestLogCmd = &cobra.Command{
	Use:   "log <model> <csv-file>",
	Short: "Merge a CSV backtest series into the stored one",
	Long: `Merge a CSV backtest series into the stored one.

The first column of the CSV is the time index. Unless --version-timestamp
is given, the series' newest index value is recorded as the version
timestamp on every row.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, token, err := buildClient()
		if err != nil {
			return err
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open backtest file: %w", err)
		}
		defer f.Close()
		backtest, err := table.Decode(f, table.ReadOptions{})
		if err != nil {
			return err
		}
		if len(backtest.Columns) == 0 {
			return fmt.Errorf("backtest file has no columns")
		}
		if err := backtest.PromoteIndex(backtest.Columns[0]); err != nil {
			return err
		}

		var versionTimestamp time.Time
		raw, err := cmd.Flags().GetString("version-timestamp")
		if err != nil {
			return err
		}
		if raw != "" {
			versionTimestamp, err = table.ParseTime(raw)
			if err != nil {
				return err
			}
		}
		return client.LogModelBacktest(cmd.Context(), token, args[0], backtest, versionTimestamp)
	},
}

func init() {
	backtestLogCmd.Flags().String("version-timestamp", "", "Version timestamp recorded on the logged rows")

	backtestCmd.AddCommand(backtestGetCmd)
	backtestCmd.AddCommand(backtestLogCmd)
}
