package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/depot"
	"github.com/xraph/depot/auth"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/user"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		f := cmd.Flags()
		email, _ := f.GetString("email")
		password, _ := f.GetString("password")
		first, _ := f.GetString("first-name")
		last, _ := f.GetString("last-name")
		roles, _ := f.GetStringSlice("role")
		if email == "" || password == "" {
			return fmt.Errorf("%w: --email and --password are required", depot.ErrValidation)
		}

		roleIDs, err := parseRoleIDs(roles)
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		u := &user.User{
			ID:           id.NewUserID(),
			Email:        email,
			PasswordHash: hash,
			Profile:      user.Profile{FirstName: first, LastName: last},
			RoleIDs:      roleIDs,
		}
		if err := rt.store.CreateUser(cmd.Context(), u); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), u.Public())
	}),
}

func parseRoleIDs(raw []string) ([]id.RoleID, error) {
	out := make([]id.RoleID, 0, len(raw))
	for _, s := range raw {
		rid, err := id.ParseRoleID(s)
		if err != nil {
			return nil, fmt.Errorf("%w: role %q: %w", depot.ErrValidation, s, err)
		}
		out = append(out, rid)
	}
	return out, nil
}

func init() {
	f := userCreateCmd.Flags()
	f.String("email", "", "login email")
	f.String("password", "", "initial password")
	f.String("first-name", "", "first name")
	f.String("last-name", "", "last name")
	f.StringSlice("role", nil, "role ID to assign (repeatable)")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
