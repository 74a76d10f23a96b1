// Package schema maps collection names to their create/update validation
// schemas and checks payloads before they are written.
//
// Create schemas validate whole documents through struct tags
// (go-playground/validator). Update schemas validate partial patches:
// every key is optional, unknown keys are rejected, and each present key is
// checked against its own rule.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/depot"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schema validates a payload.
type Schema interface {
	Validate(v any) error
}

// Pair is the create and update schema of one collection.
type Pair struct {
	Create Schema
	Update Schema
}

// Registry maps collection names to schema pairs. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	pairs map[string]Pair
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pairs: make(map[string]Pair)}
}

// Register sets the schema pair for a collection, replacing any previous one.
func (r *Registry) Register(name string, p Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[name] = p
}

// Lookup returns the schema pair for a collection.
func (r *Registry) Lookup(name string) (Pair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pairs[name]
	return p, ok
}

// Names returns the registered collection names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pairs))
	for n := range r.pairs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateCreate checks a new document against the collection's create
// schema. Collections without a schema accept anything.
func (r *Registry) ValidateCreate(name string, v any) error {
	p, ok := r.Lookup(name)
	if !ok || p.Create == nil {
		return nil
	}
	if err := p.Create.Validate(v); err != nil {
		return fmt.Errorf("%s: create: %w", name, err)
	}
	return nil
}

// ValidateUpdate checks a patch against the collection's update schema.
// Collections without a schema accept anything.
func (r *Registry) ValidateUpdate(name string, patch any) error {
	p, ok := r.Lookup(name)
	if !ok || p.Update == nil {
		return nil
	}
	if err := p.Update.Validate(patch); err != nil {
		return fmt.Errorf("%s: update: %w", name, err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Struct schema
// ──────────────────────────────────────────────────

type structSchema struct{}

// Struct returns a schema that validates documents through their
// `validate` struct tags.
func Struct() Schema { return structSchema{} }

func (structSchema) Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Field schema
// ──────────────────────────────────────────────────

type fieldSchema struct {
	rules map[string]string
}

// Fields returns a strict partial schema for patches. rules maps each
// permitted key to a validator tag; an empty tag permits the key with no
// further checks.
func Fields(rules map[string]string) Schema {
	return fieldSchema{rules: rules}
}

func (s fieldSchema) Validate(v any) error {
	var data map[string]any
	switch t := v.(type) {
	case bson.M:
		data = t
	case map[string]any:
		data = t
	default:
		return fmt.Errorf("%w: patch must be a document, got %T", depot.ErrValidation, v)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty patch", depot.ErrValidation)
	}

	var unknown []string
	rules := make(map[string]any, len(data))
	for k := range data {
		rule, ok := s.rules[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if rule != "" {
			rules[k] = rule
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown fields %s", depot.ErrValidation, strings.Join(unknown, ", "))
	}

	if failed := validate.ValidateMap(data, rules); len(failed) > 0 {
		keys := make([]string, 0, len(failed))
		for k := range failed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, len(keys))
		for i, k := range keys {
			msgs[i] = fmt.Sprintf("%s: %v", k, failed[k])
		}
		return fmt.Errorf("%w: %s", depot.ErrValidation, strings.Join(msgs, "; "))
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %s", depot.ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %w", depot.ErrValidation, err)
}
