// Package generator produces one record from a prepared schema in
// strict or fuzz mode.
package generator

import (
	"fmt"
	"math/rand"

	"syntheticdata/internal/schemaprep"
)

// Mutation probabilities (§4.2 of the spec). These are load-bearing
// for downstream fuzz tests — pinned constants, not configuration,
// per the spec's design notes.
const (
	probMutateExisting = 0.5
	probDeleteExisting  = 0.4
	probAppendExtra     = 0.7
	maxAppended         = 5

	distInt   = 0.30
	distBool  = 0.20
	distLorem = 0.20
	distFloat = 0.15
	distNull  = 0.15
)

// One generates a single record from a prepared schema. Strict mode
// drives the faker to produce every declared property and then trims
// anything the faker over-generated; fuzz mode generates the same
// baseline and then mutates/deletes/appends keys. Generation never
// mutates the prepared schema — the faker only reads it.
func One(prepared *schemaprep.Prepared, fuzz bool, faker Faker, rng *rand.Rand) (map[string]any, error) {
	if faker == nil {
		faker = BuiltinFaker{}
	}
	v, err := faker.Generate(prepared.Raw, rng)
	if err != nil {
		return nil, fmt.Errorf("generate record: %w", err)
	}
	record, ok := v.(map[string]any)
	if !ok {
		record = map[string]any{}
	}

	if fuzz {
		mutate(record, rng)
		return record, nil
	}

	trimToDeclared(record, prepared.Raw)
	return record, nil
}

// trimToDeclared recursively drops any property not declared in the
// schema's `properties` map — defense in depth against the faker
// over-generating beyond additionalProperties=false. Union type
// fields (e.g. ["object","null"]) are only treated as the object
// branch when the value itself is a non-nil map.
func trimToDeclared(record map[string]any, schema map[string]any) {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		return
	}
	for key := range record {
		if _, declared := props[key]; !declared {
			delete(record, key)
		}
	}
	for key, sub := range props {
		subSchema, ok := sub.(map[string]any)
		if !ok {
			continue
		}
		val, present := record[key]
		if !present {
			continue
		}
		trimValue(val, subSchema)
	}
}

func trimValue(val any, schema map[string]any) {
	switch v := val.(type) {
	case map[string]any:
		if isObjectBranch(schema) {
			trimToDeclared(v, schema)
		}
	case []any:
		items, ok := schema["items"].(map[string]any)
		if !ok {
			return
		}
		for _, e := range v {
			trimValue(e, items)
		}
	}
}

// isObjectBranch reports whether a schema node's declared type
// includes "object" (directly, or as one branch of a union), which is
// the only case §4.2 asks us to recurse into for a non-nil map value.
func isObjectBranch(schema map[string]any) bool {
	switch t := schema["type"].(type) {
	case string:
		return t == "object"
	case []any:
		for _, e := range t {
			if s, _ := e.(string); s == "object" {
				return true
			}
		}
		return false
	default:
		_, hasProps := schema["properties"]
		return hasProps
	}
}

// mutate applies the fuzz-mode randomized mutations described in
// §4.2: per existing key, 0.5 replace / 0.4 delete (else untouched),
// then with probability 0.7 append 0-5 fresh properties.
func mutate(record map[string]any, rng *rand.Rand) {
	for key := range record {
		roll := rng.Float64()
		switch {
		case roll < probMutateExisting:
			record[key] = randomPrimitive(rng)
		case roll < probMutateExisting+probDeleteExisting:
			delete(record, key)
		}
	}

	if rng.Float64() < probAppendExtra {
		n := rng.Intn(maxAppended + 1)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s%d", loremWord(rng), i)
			record[name] = randomPrimitive(rng)
		}
	}
}

// randomPrimitive draws from the fixed distribution: int, bool, lorem
// words, float, null.
func randomPrimitive(rng *rand.Rand) any {
	roll := rng.Float64()
	switch {
	case roll < distInt:
		return rng.Intn(200_000_001) - 100_000_000
	case roll < distInt+distBool:
		return rng.Intn(2) == 0
	case roll < distInt+distBool+distLorem:
		n := 1 + rng.Intn(3)
		out := loremWord(rng)
		for i := 1; i < n; i++ {
			out += " " + loremWord(rng)
		}
		return out
	case roll < distInt+distBool+distLorem+distFloat:
		return (rng.Float64()*2 - 1) * 100_000_000
	default:
		return nil
	}
}
