package schemaprep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() map[string]any {
	return map[string]any{
		"$id":  "https://example.com/schema.json",
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"address": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"city": map[string]any{"type": "string"},
				},
			},
		},
	}
}

func TestPrepareStrictSetsAdditionalPropertiesFalse(t *testing.T) {
	p := New(16, time.Minute)
	prepared, err := p.Prepare(sampleSchema(), ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, false, prepared.Raw["additionalProperties"])

	props := prepared.Raw["properties"].(map[string]any)
	addr := props["address"].(map[string]any)
	assert.Equal(t, false, addr["additionalProperties"])
}

func TestPrepareFuzzLeavesAdditionalPropertiesOpen(t *testing.T) {
	p := New(16, time.Minute)
	prepared, err := p.Prepare(sampleSchema(), ModeFuzz)
	require.NoError(t, err)
	assert.Equal(t, true, prepared.Raw["additionalProperties"])
}

func TestPrepareRemovesIDFieldsRecursively(t *testing.T) {
	p := New(16, time.Minute)
	prepared, err := p.Prepare(sampleSchema(), ModeStrict)
	require.NoError(t, err)
	_, hasID := prepared.Raw["$id"]
	assert.False(t, hasID)
}

func TestPrepareIsIdempotent(t *testing.T) {
	p := New(16, time.Minute)
	first, err := p.Prepare(sampleSchema(), ModeStrict)
	require.NoError(t, err)

	second, err := p.Prepare(first.Raw, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, first.Raw, second.Raw)
}

func TestPrepareIsMemoized(t *testing.T) {
	p := New(16, time.Minute)
	schema := sampleSchema()
	first, err := p.Prepare(schema, ModeStrict)
	require.NoError(t, err)
	second, err := p.Prepare(sampleSchema(), ModeStrict)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestValidateSchemaRejectsUnknownType(t *testing.T) {
	p := New(16, time.Minute)
	err := p.ValidateSchema(map[string]any{"type": "weird"})
	assert.Error(t, err)
}

func TestValidateDataCatchesMismatch(t *testing.T) {
	p := New(16, time.Minute)
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"age": map[string]any{"type": "integer"}},
		"required":   []any{"age"},
	}
	err := p.ValidateData(map[string]any{"age": "not a number"}, schema)
	assert.Error(t, err)

	err = p.ValidateData(map[string]any{"age": 5}, schema)
	assert.NoError(t, err)
}

func TestClearEmptiesCaches(t *testing.T) {
	p := New(16, time.Minute)
	_, err := p.Prepare(sampleSchema(), ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stats().Schema.Size)

	p.Clear()
	assert.Equal(t, 0, p.Stats().Schema.Size)
}
