// Package permission defines grants and the resolved permission produced by
// merging them.
//
// A Grant is a single permission entry attached to a role or directly to a
// user: a required scope and action plus arbitrary effect fields. Grants are
// stored flat, so {"scope":"fleet","action":"read","level":"basic"} decodes
// to Grant{Scope: "fleet", Action: "read", Fields: {"level": "basic"}}.
package permission

import (
	"encoding/json"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Reserved keys of a flattened grant.
const (
	KeyScope  = "scope"
	KeyAction = "action"
)

// Grant is a single permission entry.
type Grant struct {
	Scope  string
	Action string
	Fields map[string]any
}

// Permission is the effective permission for one scope and action, the
// result of merging every matching grant. It is computed per request and
// never persisted.
type Permission Grant

// Matches reports whether the grant applies to scope and action. A grant
// with an empty scope or action never matches; there is no wildcard.
func (g Grant) Matches(scope, action string) bool {
	if g.Scope == "" || g.Action == "" {
		return false
	}
	return g.Scope == scope && g.Action == action
}

// Clone returns a deep copy of the grant. Maps and slices inside Fields are
// copied at every depth.
func (g Grant) Clone() Grant {
	cp := g
	if g.Fields != nil {
		cp.Fields = make(map[string]any, len(g.Fields))
		for k, v := range g.Fields {
			cp.Fields[k] = cloneValue(v)
		}
	}
	return cp
}

func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := range rv.Len() {
			if c := cloneValue(rv.Index(i).Interface()); c != nil {
				out.Index(i).Set(reflect.ValueOf(c))
			}
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			c := reflect.Zero(rv.Type().Elem())
			if cv := cloneValue(iter.Value().Interface()); cv != nil {
				c = reflect.ValueOf(cv)
			}
			out.SetMapIndex(iter.Key(), c)
		}
		return out.Interface()
	default:
		return v
	}
}

// Map returns the flattened form of the grant.
func (g Grant) Map() map[string]any {
	m := make(map[string]any, len(g.Fields)+2)
	for k, v := range g.Fields {
		m[k] = v
	}
	if g.Scope != "" {
		m[KeyScope] = g.Scope
	}
	if g.Action != "" {
		m[KeyAction] = g.Action
	}
	return m
}

// FromMap builds a grant from its flattened form. Scope and action are
// only taken when they are strings; anything else is treated as missing.
func FromMap(m map[string]any) Grant {
	g := Grant{Fields: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case KeyScope:
			g.Scope, _ = v.(string) //nolint:errcheck // non-string scope is treated as missing
		case KeyAction:
			g.Action, _ = v.(string) //nolint:errcheck // non-string action is treated as missing
		default:
			g.Fields[k] = v
		}
	}
	return g
}

// MarshalJSON implements json.Marshaler.
func (g Grant) MarshalJSON() ([]byte, error) { return json.Marshal(g.Map()) }

// UnmarshalJSON implements json.Unmarshaler.
func (g *Grant) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("permission: decode grant: %w", err)
	}
	*g = FromMap(m)
	return nil
}

// MarshalBSON implements bson.Marshaler.
func (g Grant) MarshalBSON() ([]byte, error) { return bson.Marshal(bson.M(g.Map())) }

// UnmarshalBSON implements bson.Unmarshaler.
func (g *Grant) UnmarshalBSON(data []byte) error {
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("permission: decode grant: %w", err)
	}
	*g = FromMap(m)
	return nil
}

// Get returns the effect field stored under key.
func (p Permission) Get(key string) (any, bool) {
	v, ok := p.Fields[key]
	return v, ok
}

// IsEmpty reports whether the permission carries no fields at all.
func (p Permission) IsEmpty() bool {
	return p.Scope == "" && p.Action == "" && len(p.Fields) == 0
}

// Map returns the flattened form of the permission.
func (p Permission) Map() map[string]any { return Grant(p).Map() }

// MarshalJSON implements json.Marshaler.
func (p Permission) MarshalJSON() ([]byte, error) { return json.Marshal(p.Map()) }
