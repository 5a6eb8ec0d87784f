package generator

import (
	"fmt"
	"math/rand"
)

// Faker is the pluggable primitive the spec treats as an external
// collaborator: fake(schema) -> record. The HTTP/worker-pool layers
// of this service never depend on a specific faker implementation,
// only on this interface, so a production deployment can swap in a
// richer schema-driven faker library without touching the engine.
//
// No JSON-Schema-driven faker package turned up anywhere in the
// retrieval pack (checked for gofakeit/brianvoe and similar), so the
// default implementation below is a small stdlib math/rand-based
// walker over the JSON Schema `type`/`properties`/`items` keywords —
// see DESIGN.md for why this stays on the standard library instead of
// an unvetted dependency.
type Faker interface {
	Generate(schema map[string]any, rng *rand.Rand) (any, error)
}

// BuiltinFaker walks a JSON Schema node and produces a structurally
// matching value: objects recurse into every declared property
// (required and optional alike, per strict mode's "generate all
// declared properties" requirement), arrays produce items between
// minItems/maxItems, and scalars are drawn from their declared type
// and constraints.
type BuiltinFaker struct{}

func (BuiltinFaker) Generate(schema map[string]any, rng *rand.Rand) (any, error) {
	return generateNode(schema, rng)
}

func schemaType(schema map[string]any) string {
	switch t := schema["type"].(type) {
	case string:
		return t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "null" {
				return s
			}
		}
	}
	if _, ok := schema["properties"]; ok {
		return "object"
	}
	if _, ok := schema["items"]; ok {
		return "array"
	}
	return "string"
}

func generateNode(schema map[string]any, rng *rand.Rand) (any, error) {
	switch schemaType(schema) {
	case "object":
		return generateObject(schema, rng)
	case "array":
		return generateArray(schema, rng)
	case "string":
		return generateString(schema, rng), nil
	case "integer":
		return generateInt(schema, rng), nil
	case "number":
		return generateFloat(schema, rng), nil
	case "boolean":
		return rng.Intn(2) == 0, nil
	case "null":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported schema type %v", schema["type"])
	}
}

func generateObject(schema map[string]any, rng *rand.Rand) (map[string]any, error) {
	out := map[string]any{}
	props, _ := schema["properties"].(map[string]any)
	for name, raw := range props {
		sub, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		v, err := generateNode(sub, rng)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func generateArray(schema map[string]any, rng *rand.Rand) ([]any, error) {
	minItems := intOr(schema["minItems"], 1)
	maxItems := intOr(schema["maxItems"], minItems+2)
	if maxItems < minItems {
		maxItems = minItems
	}
	n := minItems
	if maxItems > minItems {
		n += rng.Intn(maxItems - minItems + 1)
	}
	items, _ := schema["items"].(map[string]any)
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := generateNode(items, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func generateString(schema map[string]any, rng *rand.Rand) string {
	if format, ok := schema["format"].(string); ok {
		switch format {
		case "uuid":
			return randomUUID(rng)
		case "date-time":
			return "2024-01-01T00:00:00Z"
		case "email":
			return loremWord(rng) + "@example.com"
		}
	}
	if enum, ok := schema["enum"].([]any); ok && len(enum) > 0 {
		if s, ok := enum[rng.Intn(len(enum))].(string); ok {
			return s
		}
	}
	n := 1 + rng.Intn(3)
	out := loremWord(rng)
	for i := 1; i < n; i++ {
		out += " " + loremWord(rng)
	}
	return out
}

func generateInt(schema map[string]any, rng *rand.Rand) int {
	min := intOr(schema["minimum"], 0)
	max := intOr(schema["maximum"], min+1000)
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

func generateFloat(schema map[string]any, rng *rand.Rand) float64 {
	min := floatOr(schema["minimum"], 0)
	max := floatOr(schema["maximum"], min+1000)
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func floatOr(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func randomUUID(rng *rand.Rand) string {
	b := make([]byte, 16)
	rng.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing",
	"elit", "sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore",
	"et", "dolore", "magna", "aliqua", "enim", "ad", "minim", "veniam",
	"quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi",
	"aliquip", "ex", "ea", "commodo", "consequat",
}

func loremWord(rng *rand.Rand) string {
	return loremWords[rng.Intn(len(loremWords))]
}
