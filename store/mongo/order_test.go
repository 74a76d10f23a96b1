package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/role"
)

func TestOrderRolesFollowsRequestedIDs(t *testing.T) {
	a := &role.Role{ID: id.NewRoleID(), Name: "a"}
	b := &role.Role{ID: id.NewRoleID(), Name: "b"}
	c := &role.Role{ID: id.NewRoleID(), Name: "c"}
	missing := id.NewRoleID()

	// Natural order from the server is a, b, c.
	ids := id.Strings([]id.RoleID{c.ID, missing, a.ID, c.ID, b.ID})
	got := orderRoles(ids, []*role.Role{a, b, c})

	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}
