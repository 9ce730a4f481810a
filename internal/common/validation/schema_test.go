// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flightSchema = `{
	"type": "object",
	"required": ["origin", "destination"],
	"properties": {
		"origin": {"type": "string", "pattern": "^[A-Z]{3}$"},
		"destination": {"type": "string", "pattern": "^[A-Z]{3}$"},
		"outbound_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
	}
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompileJSON(flightSchema)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		badField  string
	}{
		{
			name:      "valid",
			doc:       map[string]interface{}{"origin": "SFO", "destination": "HND", "outbound_date": "2026-11-19"},
			wantValid: true,
		},
		{
			name:     "missing destination",
			doc:      map[string]interface{}{"origin": "SFO"},
			badField: "(root)",
		},
		{
			name:     "lowercase code",
			doc:      map[string]interface{}{"origin": "sfo", "destination": "HND"},
			badField: "origin",
		},
		{
			name:     "bad date",
			doc:      map[string]interface{}{"origin": "SFO", "destination": "HND", "outbound_date": "next month"},
			badField: "outbound_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantValid {
				assert.NoError(t, result.Err())
				return
			}
			assert.True(t, result.HasErrors(tt.badField), result.GetErrorMessages())
			assert.Error(t, result.Err())
		})
	}
}

func TestSchema_ValidateJSON_RejectsGarbage(t *testing.T) {
	schema := MustCompileJSON(flightSchema)
	_, err := schema.ValidateJSON([]byte("```json {}```"))
	assert.Error(t, err)
}

func TestCompile_FromMap(t *testing.T) {
	schema, err := Compile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"conversationText"},
	})
	require.NoError(t, err)

	result, err := schema.Validate(map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, result.Valid)

	_, err = Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}

func TestValidateStageName(t *testing.T) {
	assert.NoError(t, ValidateStageName("search-flights"))
	assert.NoError(t, ValidateStageName("plan-trip"))
	assert.Error(t, ValidateStageName("Search_Flights"))
	assert.Error(t, ValidateStageName("-plan"))
}
