package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/zvmconnector-go/internal/metering"
)

const defaultInspectInterval = 10 * time.Second

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show guest performance data",
		Long: `Query CPU/memory or virtual NIC statistics for one or more guests.

With cache_enabled and a non-zero cache_interval, the first request loads data
for every defined guest and later requests within the interval are answered
from memory. Use --count to sample repeatedly from one process.`,
	}

	cmd.PersistentFlags().Int("count", 1, "number of samples to take")
	cmd.PersistentFlags().Duration("interval", defaultInspectInterval, "time between samples")

	cmd.AddCommand(newInspectKindCmd("stats", "CPU and memory statistics", metering.KindCPUMem))
	cmd.AddCommand(newInspectKindCmd("vnics", "virtual NIC statistics", metering.KindVNICs))

	return cmd
}

func newInspectKindCmd(use, what string, kind metering.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <userid>...",
		Short: "Show " + what,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, kind, args)
		},
	}
}

func runInspect(cmd *cobra.Command, kind metering.Kind, userIDs []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return err
	}

	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return err
	}

	if count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	client, err := newConnectorClient(cc)
	if err != nil {
		return err
	}

	monitor := newMonitor(cc, client)

	for i := range count {
		if i > 0 {
			if err := sleepCtx(ctx, interval); err != nil {
				return err
			}
		}

		data, err := monitor.Inspect(ctx, kind, userIDs)
		if err != nil {
			return err
		}

		if err := printInspect(cc, data, userIDs); err != nil {
			return err
		}
	}

	return nil
}

func printInspect(cc *CLIContext, data map[string]any, userIDs []string) error {
	if cc.Flags.JSON {
		return printJSON(os.Stdout, data)
	}

	rows := make([][]string, 0, len(userIDs))

	for _, uid := range userIDs {
		v, ok := data[uid]
		if !ok {
			rows = append(rows, []string{uid, "-", "no data"})
			continue
		}

		fields, ok := v.(map[string]any)
		if !ok {
			rows = append(rows, []string{uid, "-", fmt.Sprint(v)})
			continue
		}

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			rows = append(rows, []string{uid, k, renderValue(fields[k])})
		}
	}

	printTable(os.Stdout, []string{"USERID", "FIELD", "VALUE"}, rows)

	return nil
}

// renderValue prints scalars plainly and anything nested as compact JSON.
func renderValue(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// sleepCtx waits for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
