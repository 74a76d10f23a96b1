package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/depot"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
	"github.com/xraph/depot/role"
	"github.com/xraph/depot/user"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles",
}

var roleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a role",
	Example: `  depot role create --name dispatcher \
    --permissions '[{"scope":"rides","action":"read","agency_ids":["41"]}]'`,
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		f := cmd.Flags()
		name, _ := f.GetString("name")
		desc, _ := f.GetString("description")
		raw, _ := f.GetString("permissions")
		if name == "" {
			return fmt.Errorf("%w: --name is required", depot.ErrValidation)
		}
		grants, err := parseGrants(raw)
		if err != nil {
			return err
		}
		r := &role.Role{ID: id.NewRoleID(), Name: name, Description: desc, Permissions: grants}
		if err := rt.store.CreateRole(cmd.Context(), r); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), r)
	}),
}

var roleAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Add a role to a user",
	RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
		ctx := cmd.Context()
		f := cmd.Flags()
		rawUser, _ := f.GetString("user")
		rawRole, _ := f.GetString("role")

		uid, err := id.ParseUserID(rawUser)
		if err != nil {
			return fmt.Errorf("%w: user: %w", depot.ErrValidation, err)
		}
		rid, err := id.ParseRoleID(rawRole)
		if err != nil {
			return fmt.Errorf("%w: role: %w", depot.ErrValidation, err)
		}
		if _, err := rt.store.GetRole(ctx, rid); err != nil {
			return err
		}
		u, err := rt.store.GetUser(ctx, uid, false)
		if err != nil {
			return err
		}
		if u.HasRole(rid) {
			fmt.Fprintln(cmd.OutOrStdout(), "already assigned")
			return nil
		}
		roles := append(u.RoleIDs, rid)
		if err := rt.store.UpdateUser(ctx, uid, &user.Update{RoleIDs: &roles}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "assigned")
		return nil
	}),
}

func parseGrants(raw string) ([]permission.Grant, error) {
	if raw == "" {
		return []permission.Grant{}, nil
	}
	var grants []permission.Grant
	if err := json.Unmarshal([]byte(raw), &grants); err != nil {
		return nil, fmt.Errorf("%w: permissions: %w", depot.ErrValidation, err)
	}
	for i, g := range grants {
		if g.Scope == "" || g.Action == "" {
			return nil, fmt.Errorf("%w: permissions[%d]: scope and action are required", depot.ErrValidation, i)
		}
	}
	return grants, nil
}

func init() {
	f := roleCreateCmd.Flags()
	f.String("name", "", "unique role name")
	f.String("description", "", "role description")
	f.String("permissions", "", "grants as a JSON array")

	f = roleAssignCmd.Flags()
	f.String("user", "", "user ID")
	f.String("role", "", "role ID")

	roleCmd.AddCommand(roleCreateCmd, roleAssignCmd)
	rootCmd.AddCommand(roleCmd)
}
