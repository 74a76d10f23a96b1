package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/depot/transit"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the indexes of every collection",
	Long: `migrate opens every auth and transit collection and declares its indexes.
Existing indexes with the same definition are left alone.`,
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		ctx := cmd.Context()
		if err := rt.store.Migrate(ctx); err != nil {
			return err
		}
		if err := transit.Migrate(ctx, rt.registry); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d collections\n", len(rt.registry.Names()))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
