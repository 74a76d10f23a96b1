package permission

import (
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Filter returns the grants that match scope and action, preserving order.
func Filter(grants []Grant, scope, action string) []Grant {
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		if g.Matches(scope, action) {
			out = append(out, g)
		}
	}
	return out
}

// Merge folds grants left to right into a single permission.
//
//   - scalar fields are overwritten by later grants
//   - array fields are concatenated across all grants and de-duplicated by
//     structural equality, keeping the first occurrence
//   - object fields are merged recursively with the same rules
//
// An empty input yields an empty permission. Values that cannot be
// represented in a document (funcs, channels) are reported as errors.
func Merge(grants []Grant) (p Permission, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = Permission{}, fmt.Errorf("permission: merge: %v", r)
		}
	}()

	if len(grants) == 0 {
		return Permission{}, nil
	}

	fields := make(map[string]any)
	for _, g := range grants {
		if g.Scope != "" {
			p.Scope = g.Scope
		}
		if g.Action != "" {
			p.Action = g.Action
		}
		if err := mergeInto(fields, g.Fields); err != nil {
			return Permission{}, err
		}
	}
	p.Fields = fields
	return p, nil
}

func mergeInto(dst, src map[string]any) error {
	for k, v := range src {
		nv, err := normalize(v)
		if err != nil {
			return fmt.Errorf("permission: field %q: %w", k, err)
		}
		cur, ok := dst[k]
		if !ok {
			dst[k] = fresh(nv)
			continue
		}
		dst[k] = mergeValue(cur, nv)
	}
	return nil
}

func mergeValue(cur, next any) any {
	switch n := next.(type) {
	case []any:
		if c, ok := cur.([]any); ok {
			joined := make([]any, 0, len(c)+len(n))
			joined = append(joined, c...)
			joined = append(joined, n...)
			return dedupe(joined)
		}
		return fresh(n)
	case map[string]any:
		if c, ok := cur.(map[string]any); ok {
			out := make(map[string]any, len(c)+len(n))
			for k, v := range c {
				out[k] = v
			}
			for k, v := range n {
				if existing, ok := out[k]; ok {
					out[k] = mergeValue(existing, v)
				} else {
					out[k] = fresh(v)
				}
			}
			return out
		}
		return fresh(n)
	default:
		return next
	}
}

// fresh prepares a value that has nothing to merge with. Arrays at any
// depth are deduplicated, as they would be when merged.
func fresh(v any) any {
	switch t := v.(type) {
	case []any:
		return dedupe(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fresh(e)
		}
		return out
	default:
		return v
	}
}

// dedupe keeps the first of every structurally equal element.
func dedupe(items []any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		seen := false
		for _, o := range out {
			if equal(o, it) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, it)
		}
	}
	return out
}

func equal(a, b any) bool {
	return cmp.Equal(a, b, cmp.Exporter(func(reflect.Type) bool { return true }))
}

// normalize converts document values into plain []any and map[string]any
// trees so that merging and equality do not depend on the decoder in use.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, []byte:
		return t, nil
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			nv, err := normalize(e.Value)
			if err != nil {
				return nil, err
			}
			m[e.Key] = nv
		}
		return m, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	case reflect.Slice:
		out := make([]any, rv.Len())
		for i := range out {
			nv, err := normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			nv, err := normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}
