// Package schemaprep normalizes caller-supplied JSON Schemas into a
// deterministic shape the generator can drive, and memoizes both the
// normalized schema and its compiled validator.
package schemaprep

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"syntheticdata/internal/cache"
)

// Mode selects the additional-property policy applied during preparation.
type Mode string

const (
	ModeStrict Mode = "strict"
	ModeFuzz   Mode = "fuzz"
)

// DefaultCacheTTL and DefaultCacheSize are the defaults from the data model: 30
// minute soft TTL, bounded LRU.
const (
	DefaultCacheTTL  = 30 * time.Minute
	DefaultCacheSize = 2048
)

// Prepared is a schema that has been deep-cleaned of $id fields and
// had its additionalProperties policy fixed for one mode.
type Prepared struct {
	Mode Mode
	Raw  map[string]any
}

var allowedTypes = map[string]bool{
	"object": true, "array": true, "string": true,
	"number": true, "integer": true, "boolean": true, "null": true,
}

// Preparer owns the schema cache and the compiled-validator cache.
type Preparer struct {
	schemas    *cache.TTLCache[string, *Prepared]
	validators *cache.TTLCache[string, *jsonschema.Schema]
}

// New builds a Preparer with the given cache size/ttl (0 selects the
// package defaults).
func New(size int, ttl time.Duration) *Preparer {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Preparer{
		schemas:    cache.New[string, *Prepared](size, ttl),
		validators: cache.New[string, *jsonschema.Schema](size, ttl),
	}
}

// Stats mirrors the schema/validator cache sizes for §4.1's stats() op.
type Stats struct {
	Schema    cache.Stats `json:"schema"`
	Validator cache.Stats `json:"validator"`
}

func (p *Preparer) Stats() Stats {
	return Stats{Schema: p.schemas.Stats(), Validator: p.validators.Stats()}
}

// Clear empties both caches.
func (p *Preparer) Clear() {
	p.schemas.Clear()
	p.validators.Clear()
}

// canonicalKey returns a deterministic serialization of the schema
// (encoding/json sorts map keys) concatenated with the mode, used as
// the cache key for both caches.
func canonicalKey(schema map[string]any, mode Mode) (string, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("canonicalize schema: %w", err)
	}
	return string(mode) + ":" + string(b), nil
}

// Prepare returns the transformed schema for mode, memoized by
// (mode, canonical-schema-string). Preparation is deterministic and
// idempotent: preparing an already-prepared schema yields an equal
// value (deepTransform is a pure function of its input).
func (p *Preparer) Prepare(schema map[string]any, mode Mode) (*Prepared, error) {
	key, err := canonicalKey(schema, mode)
	if err != nil {
		return nil, err
	}
	if hit, ok := p.schemas.Get(key); ok {
		return hit, nil
	}

	cloned := deepClone(schema)
	transformed := deepTransform(cloned, mode).(map[string]any)
	prepared := &Prepared{Mode: mode, Raw: transformed}
	p.schemas.Add(key, prepared)
	return prepared, nil
}

// deepTransform recurses through a decoded JSON value removing $id
// fields and enforcing the additionalProperties policy at every
// object node with a properties map.
func deepTransform(node any, mode Mode) any {
	switch v := node.(type) {
	case map[string]any:
		delete(v, "$id")
		if _, hasProps := v["properties"]; hasProps {
			switch mode {
			case ModeStrict:
				v["additionalProperties"] = false
			case ModeFuzz:
				if ap, ok := v["additionalProperties"]; !ok || ap == false {
					v["additionalProperties"] = true
				}
			}
			if props, ok := v["properties"].(map[string]any); ok {
				for k, pv := range props {
					props[k] = deepTransform(pv, mode)
				}
			}
		}
		if items, ok := v["items"]; ok {
			v["items"] = deepTransform(items, mode)
		}
		if ap, ok := v["additionalProperties"].(map[string]any); ok {
			v["additionalProperties"] = deepTransform(ap, mode)
		}
		for k, sub := range v {
			if k == "properties" || k == "items" || k == "additionalProperties" || k == "$id" {
				continue
			}
			v[k] = deepTransform(sub, mode)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = deepTransform(e, mode)
		}
		return v
	default:
		return v
	}
}

func deepClone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepClone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepClone(val)
		}
		return out
	default:
		return t
	}
}

// ValidationError describes one well-formedness failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateSchema checks compile-time well-formedness: the root value
// must be an object, any `type` present must be one of the allowed
// JSON Schema primitive types (or an array of them), and the schema
// must compile under the underlying validator. Short-circuits on the
// first error.
func (p *Preparer) ValidateSchema(schema map[string]any) error {
	if schema == nil {
		return &ValidationError{Message: "schema must be a JSON object"}
	}
	if t, ok := schema["type"]; ok {
		if err := validateTypeField(t); err != nil {
			return err
		}
	}
	if _, err := p.compile(schema); err != nil {
		return &ValidationError{Message: fmt.Sprintf("schema compilation failed: %v", err)}
	}
	return nil
}

func validateTypeField(t any) error {
	switch v := t.(type) {
	case string:
		if !allowedTypes[v] {
			return &ValidationError{Message: fmt.Sprintf("invalid type %q: must be one of object, array, string, number, integer, boolean, null", v)}
		}
	case []any:
		for _, e := range v {
			s, ok := e.(string)
			if !ok || !allowedTypes[s] {
				return &ValidationError{Message: fmt.Sprintf("invalid type union member %v", e)}
			}
		}
	default:
		return &ValidationError{Message: "type field must be a string or array of strings"}
	}
	return nil
}

// compile returns a cached compiled validator for the schema's
// canonical string, compiling and caching on miss.
func (p *Preparer) compile(schema map[string]any) (*jsonschema.Schema, error) {
	key, err := canonicalKey(schema, "")
	if err != nil {
		return nil, err
	}
	if hit, ok := p.validators.Get(key); ok {
		return hit, nil
	}

	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(b))); err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, err
	}
	p.validators.Add(key, compiled)
	return compiled, nil
}

// ValidateData runs a cached compiled validator against a produced
// record. There is no cache for the validation result itself, only
// for the compiled validator.
func (p *Preparer) ValidateData(record map[string]any, schema map[string]any) error {
	compiled, err := p.compile(schema)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("schema compilation failed: %v", err)}
	}
	if err := compiled.Validate(record); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}
