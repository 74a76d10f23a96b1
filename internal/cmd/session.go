package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/depot"
	"github.com/xraph/depot/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a session and print its token",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		sess, err := rt.provider.Login(cmd.Context(), auth.LoginRequest{Email: email, Password: password})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sess.Token)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete a session",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		tok, err := tokenFlag(cmd)
		if err != nil {
			return err
		}
		return rt.provider.Logout(cmd.Context(), tok)
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the user of a session",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		tok, err := tokenFlag(cmd)
		if err != nil {
			return err
		}
		u, err := rt.provider.GetUser(cmd.Context(), tok)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), u.Public())
	}),
}

var canCmd = &cobra.Command{
	Use:   "can <scope> <action>",
	Short: "Print the merged permission of a session for a scope and action",
	Args:  cobra.ExactArgs(2),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		tok, err := tokenFlag(cmd)
		if err != nil {
			return err
		}
		if args[0] == "" || args[1] == "" {
			return fmt.Errorf("%w: scope and action are required", depot.ErrValidation)
		}
		p, err := rt.provider.GetPermissions(cmd.Context(), tok, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	}),
}

func init() {
	loginCmd.Flags().String("email", "", "login email")
	loginCmd.Flags().String("password", "", "password")
	for _, c := range []*cobra.Command{logoutCmd, whoamiCmd, canCmd} {
		c.Flags().String("token", "", "session token (default $DEPOT_TOKEN)")
	}
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, canCmd)
}
