package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/depot"
	"github.com/xraph/depot/checklog"
)

var checklogCmd = &cobra.Command{
	Use:   "checklog",
	Short: "Inspect the auth audit log",
}

var checklogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, newest first",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		f := cmd.Flags()
		userID, _ := f.GetString("user")
		kind, _ := f.GetString("kind")
		limit, _ := f.GetInt("limit")
		entries, err := rt.store.ListCheckLogs(cmd.Context(), &checklog.QueryFilter{
			UserID: userID,
			Kind:   checklog.Kind(kind),
			Limit:  limit,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), entries)
	}),
}

var checklogPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete audit entries older than a duration",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		age, _ := cmd.Flags().GetDuration("older-than")
		if age <= 0 {
			return fmt.Errorf("%w: --older-than must be positive", depot.ErrValidation)
		}
		n, err := rt.store.PurgeCheckLogs(cmd.Context(), time.Now().UTC().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries\n", n)
		return nil
	}),
}

func init() {
	f := checklogListCmd.Flags()
	f.String("user", "", "filter by user ID")
	f.String("kind", "", "filter by kind (login_failed, permission_denied, ...)")
	f.Int("limit", 50, "maximum entries")

	checklogPurgeCmd.Flags().Duration("older-than", 90*24*time.Hour, "age of the oldest entry kept")

	checklogCmd.AddCommand(checklogListCmd, checklogPurgeCmd)
	rootCmd.AddCommand(checklogCmd)
}
