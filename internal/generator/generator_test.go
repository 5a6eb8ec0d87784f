package generator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntheticdata/internal/schemaprep"
)

func objectSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"age":  map[string]any{"type": "integer"},
		},
		"additionalProperties": false,
	}
}

func TestOneStrictModeOnlyHasDeclaredProperties(t *testing.T) {
	prepared := &schemaprep.Prepared{Mode: schemaprep.ModeStrict, Raw: objectSchema()}
	rng := rand.New(rand.NewSource(1))

	rec, err := One(prepared, false, BuiltinFaker{}, rng)
	require.NoError(t, err)

	for key := range rec {
		assert.Contains(t, []string{"name", "age"}, key)
	}
}

func TestStrictModeTrimIsIdempotent(t *testing.T) {
	schema := objectSchema()
	prepared := &schemaprep.Prepared{Mode: schemaprep.ModeStrict, Raw: schema}
	record := map[string]any{"name": "x", "age": 1, "extra": "should not survive a trim"}
	trimToDeclared(record, prepared.Raw)
	trimmedOnce := map[string]any{}
	for k, v := range record {
		trimmedOnce[k] = v
	}
	trimToDeclared(record, prepared.Raw)
	assert.Equal(t, trimmedOnce, record)
}

func TestMutateAppliesFixedDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	record := map[string]any{"a": 1, "b": 2, "c": 3}
	mutate(record, rng)
	// mutate only ever replaces, deletes, or appends keys — it never
	// introduces a type outside the pinned distribution.
	for _, v := range record {
		switch v.(type) {
		case int, bool, string, float64, nil:
		default:
			t.Fatalf("unexpected mutated value type %T", v)
		}
	}
}

func TestIsObjectBranchHandlesUnionTypes(t *testing.T) {
	assert.True(t, isObjectBranch(map[string]any{"type": []any{"object", "null"}}))
	assert.False(t, isObjectBranch(map[string]any{"type": []any{"string", "null"}}))
	assert.True(t, isObjectBranch(map[string]any{"type": "object"}))
}
