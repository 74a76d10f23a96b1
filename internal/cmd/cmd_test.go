package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/depot"
	"github.com/xraph/depot/id"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(depot.ErrValidation))
	assert.Equal(t, 3, ExitCode(depot.ErrUnauthorized))
	assert.Equal(t, 3, ExitCode(depot.ErrForbidden))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}

func TestParseGrants(t *testing.T) {
	grants, err := parseGrants(`[{"scope":"rides","action":"read","agency_ids":["41"]}]`)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "rides", grants[0].Scope)
	assert.Equal(t, []any{"41"}, grants[0].Fields["agency_ids"])

	empty, err := parseGrants("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = parseGrants(`[{"scope":"rides"}]`)
	assert.ErrorIs(t, err, depot.ErrValidation)

	_, err = parseGrants(`{`)
	assert.ErrorIs(t, err, depot.ErrValidation)
}

func TestParseRoleIDs(t *testing.T) {
	rid := id.NewRoleID()
	got, err := parseRoleIDs([]string{rid.String()})
	require.NoError(t, err)
	assert.Equal(t, []id.RoleID{rid}, got)

	_, err = parseRoleIDs([]string{id.NewUserID().String()})
	assert.ErrorIs(t, err, depot.ErrValidation)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"migrate"}, {"user", "create"}, {"role", "create"}, {"role", "assign"},
		{"login"}, {"logout"}, {"whoami"}, {"can"},
		{"checklog", "list"}, {"checklog", "purge"},
	} {
		c, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}
