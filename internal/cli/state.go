package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or clear the last notified balance",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the last notified balance and time",
	Args:  cobra.NoArgs,
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the last notified balance so the next check notifies",
	Args:  cobra.NoArgs,
	RunE:  runStateReset,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := store.LoadState(cmd.Context())
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	out := cmd.OutOrStdout()
	if state == nil {
		fmt.Fprintln(out, "No check recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Last value:\t%s\n", state.LastValue.String())
	fmt.Fprintf(w, "Last checked:\t%s\n", state.LastCheckedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Age:\t%s\n", time.Since(state.LastCheckedAt).Truncate(time.Second))
	return w.Flush()
}

func runStateReset(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ResetState(cmd.Context()); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	fmt.Fprintln(os.Stderr, "State cleared.")
	return nil
}
