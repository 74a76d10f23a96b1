package permission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		grant  Grant
		scope  string
		action string
		want   bool
	}{
		{"exact", Grant{Scope: "fleet", Action: "read"}, "fleet", "read", true},
		{"scope mismatch", Grant{Scope: "stops", Action: "read"}, "fleet", "read", false},
		{"action mismatch", Grant{Scope: "fleet", Action: "write"}, "fleet", "read", false},
		{"missing scope", Grant{Action: "read"}, "", "read", false},
		{"missing action", Grant{Scope: "fleet"}, "fleet", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.grant.Matches(tt.scope, tt.action))
		})
	}
}

func TestFilterKeepsOrder(t *testing.T) {
	grants := []Grant{
		{Scope: "fleet", Action: "read", Fields: map[string]any{"n": 1}},
		{Scope: "fleet", Action: "write", Fields: map[string]any{"n": 2}},
		{Scope: "fleet", Action: "read", Fields: map[string]any{"n": 3}},
	}
	got := Filter(grants, "fleet", "read")
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Fields["n"])
	assert.Equal(t, 3, got[1].Fields["n"])
}

func TestMergeLaterScalarWinsArraysUnion(t *testing.T) {
	role := Grant{Scope: "fleet", Action: "read", Fields: map[string]any{"level": "basic", "tags": []any{"a"}}}
	direct := Grant{Scope: "fleet", Action: "read", Fields: map[string]any{"level": "advanced", "tags": []any{"b"}}}

	p, err := Merge([]Grant{role, direct})
	require.NoError(t, err)
	assert.Equal(t, "fleet", p.Scope)
	assert.Equal(t, "read", p.Action)
	assert.Equal(t, "advanced", p.Fields["level"])
	assert.Equal(t, []any{"a", "b"}, p.Fields["tags"])
}

func TestMergeDedupesStructurally(t *testing.T) {
	a := Grant{Scope: "s", Action: "a", Fields: map[string]any{
		"agencies": []any{map[string]any{"id": "41"}, "x"},
	}}
	b := Grant{Scope: "s", Action: "a", Fields: map[string]any{
		"agencies": bson.A{bson.D{{Key: "id", Value: "41"}}, "x", "y"},
	}}

	p, err := Merge([]Grant{a, b})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"id": "41"}, "x", "y"}, p.Fields["agencies"])
}

func TestMergeDedupesWithinSingleGrant(t *testing.T) {
	p, err := Merge([]Grant{{Scope: "s", Action: "a", Fields: map[string]any{"tags": []string{"a", "a", "b"}}}})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, p.Fields["tags"])
}

func TestMergeNestedObjects(t *testing.T) {
	a := Grant{Scope: "s", Action: "a", Fields: map[string]any{
		"resources": map[string]any{"lines": []any{"1001"}, "mode": "view"},
	}}
	b := Grant{Scope: "s", Action: "a", Fields: map[string]any{
		"resources": map[string]any{"lines": []any{"1002"}, "mode": "edit"},
	}}

	p, err := Merge([]Grant{a, b})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lines": []any{"1001", "1002"}, "mode": "edit"}, p.Fields["resources"])
}

func TestMergeDedupesNewNestedArrays(t *testing.T) {
	a := Grant{Scope: "s", Action: "a", Fields: map[string]any{
		"resources": map[string]any{"mode": "view"},
	}}
	b := Grant{Scope: "s", Action: "a", Fields: map[string]any{
		"resources": map[string]any{"stops": []any{"S1", "S1", "S2"}},
		"depots":    map[string]any{"ids": []any{"D1", "D1"}},
	}}

	p, err := Merge([]Grant{a, b})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"mode": "view", "stops": []any{"S1", "S2"}}, p.Fields["resources"])
	assert.Equal(t, map[string]any{"ids": []any{"D1"}}, p.Fields["depots"])
}

func TestMergeTypeChangeOverwrites(t *testing.T) {
	a := Grant{Scope: "s", Action: "a", Fields: map[string]any{"v": []any{"x"}}}
	b := Grant{Scope: "s", Action: "a", Fields: map[string]any{"v": "scalar"}}

	p, err := Merge([]Grant{a, b})
	require.NoError(t, err)
	assert.Equal(t, "scalar", p.Fields["v"])
}

func TestMergeEmpty(t *testing.T) {
	p, err := Merge(nil)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestMergeRejectsUnsupportedValues(t *testing.T) {
	_, err := Merge([]Grant{{Scope: "s", Action: "a", Fields: map[string]any{"f": func() {}}}})
	require.Error(t, err)
}

func TestGrantJSONFlattened(t *testing.T) {
	g := Grant{Scope: "fleet", Action: "read", Fields: map[string]any{"level": "basic"}}
	data, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scope":"fleet","action":"read","level":"basic"}`, string(data))

	var back Grant
	require.NoError(t, json.Unmarshal([]byte(`{"scope":"fleet","action":42,"level":"basic"}`), &back))
	assert.Equal(t, "fleet", back.Scope)
	assert.Empty(t, back.Action)
	assert.Equal(t, "basic", back.Fields["level"])
}

func TestGrantBSONFlattened(t *testing.T) {
	g := Grant{Scope: "fleet", Action: "read", Fields: map[string]any{"level": "basic"}}
	data, err := bson.Marshal(g)
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))
	assert.Equal(t, "fleet", raw["scope"])
	assert.Equal(t, "basic", raw["level"])

	var back Grant
	require.NoError(t, bson.Unmarshal(data, &back))
	assert.Equal(t, g.Scope, back.Scope)
	assert.Equal(t, g.Action, back.Action)
	assert.Equal(t, "basic", back.Fields["level"])
}

func TestGrantCloneIsDeep(t *testing.T) {
	g := Grant{Scope: "fleet", Action: "read", Fields: map[string]any{
		"lines":  []any{"1001", map[string]any{"depot": "D1"}},
		"codes":  []string{"A"},
		"limits": map[string]int{"max": 5},
		"none":   nil,
	}}
	cp := g.Clone()
	cp.Fields["lines"].([]any)[1].(map[string]any)["depot"] = "D2"
	cp.Fields["codes"].([]string)[0] = "B"
	cp.Fields["limits"].(map[string]int)["max"] = 0

	assert.Equal(t, "D1", g.Fields["lines"].([]any)[1].(map[string]any)["depot"])
	assert.Equal(t, []string{"A"}, g.Fields["codes"])
	assert.Equal(t, map[string]int{"max": 5}, g.Fields["limits"])
	assert.Nil(t, cp.Fields["none"])
}
