// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"
	"time"

	apperrors "travel-planner/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

func flightStage() Stage {
	return Stage{
		ID:                   "search-flights",
		DisplayName:          "Search Flights",
		TaskType:             "search-flights",
		ImplementationStatus: StatusCompleted,
		Timeout:              "60s",
		Retries:              3,
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"flightRequest"},
			"properties": map[string]interface{}{
				"flightRequest": map[string]interface{}{"type": "object"},
			},
		},
	}
}

func TestShippedRegistryIsValid(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "stage-registry.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{"search-flights", "search-hotels", "parse-conversation", "plan-trip"} {
		stage, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.Equal(t, StatusCompleted, stage.ImplementationStatus)
	}

	planTrip, _ := reg.Find("plan-trip")
	assert.Equal(t, 5*time.Minute, planTrip.TimeoutOr(time.Second))
	assert.NoError(t, planTrip.ValidateInput([]byte(`{"conversationText":"Tokyo next month"}`)))
	assert.NoError(t, planTrip.ValidateInput([]byte(`{"flightRequest":{"origin":"SFO"},"hotelRequest":null}`)))
	assert.Error(t, planTrip.ValidateInput([]byte(`{"hotelRequest":{}}`)))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	reg := New(fixedNow)
	require.NoError(t, reg.Add(flightStage(), fixedNow))
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", loaded.Version)
	assert.Equal(t, "2025-05-20T12:00:00Z", loaded.LastUpdated)
	require.Len(t, loaded.Stages, 1)
	assert.Equal(t, "search-flights", loaded.Stages[0].TaskType)
	assert.NoError(t, loaded.Validate())
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAdd_Duplicate(t *testing.T) {
	reg := New(fixedNow)
	require.NoError(t, reg.Add(flightStage(), fixedNow))

	err := reg.Add(flightStage(), fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUpdate(t *testing.T) {
	later := fixedNow.Add(time.Hour)

	tests := []struct {
		name    string
		field   string
		value   string
		wantErr string
		check   func(t *testing.T, s *Stage)
	}{
		{"status", "status", StatusVerified, "", func(t *testing.T, s *Stage) {
			assert.Equal(t, StatusVerified, s.ImplementationStatus)
		}},
		{"bad status", "status", "shipped", "invalid status", nil},
		{"timeout", "timeout", "2m", "", func(t *testing.T, s *Stage) {
			assert.Equal(t, 2*time.Minute, s.TimeoutOr(0))
		}},
		{"bad timeout", "timeout", "soon", "invalid timeout", nil},
		{"retries", "retries", "5", "", func(t *testing.T, s *Stage) {
			assert.Equal(t, 5, s.Retries)
		}},
		{"bad retries", "retries", "many", "invalid retries", nil},
		{"description", "description", "flights", "", func(t *testing.T, s *Stage) {
			assert.Equal(t, "flights", s.Description)
		}},
		{"unknown field", "owner", "x", "unknown field", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New(fixedNow)
			require.NoError(t, reg.Add(flightStage(), fixedNow))

			err := reg.Update("search-flights", tt.field, tt.value, later)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, fixedNow.Format(time.RFC3339), reg.LastUpdated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, later.Format(time.RFC3339), reg.LastUpdated)
			stage, _ := reg.Find("search-flights")
			tt.check(t, stage)
		})
	}

	t.Run("unknown stage", func(t *testing.T) {
		reg := New(fixedNow)
		err := reg.Update("plan-trip", "status", StatusVerified, later)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestValidate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.EqualError(t, New(fixedNow).Validate(), "registry contains no stages")
	})

	t.Run("collects every problem", func(t *testing.T) {
		reg := New(fixedNow)
		dup := flightStage()
		bad := flightStage()
		bad.ID = "bad"
		bad.TaskType = "Search_Flights"
		bad.ImplementationStatus = "shipped"
		bad.Timeout = "soon"
		bad.InputSchema = map[string]interface{}{"type": 12}
		reg.Stages = []Stage{flightStage(), dup, bad, {TaskType: "no-id"}}

		err := reg.Validate()
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, "duplicate stage ID: search-flights")
		assert.Contains(t, msg, "duplicate taskType: search-flights")
		assert.Contains(t, msg, "must be kebab-case")
		assert.Contains(t, msg, `invalid status "shipped"`)
		assert.Contains(t, msg, `invalid timeout "soon"`)
		assert.Contains(t, msg, "stage bad: inputSchema")
		assert.Contains(t, msg, "missing required field: id")
	})
}

func TestValidateInput(t *testing.T) {
	stage := flightStage()

	assert.NoError(t, stage.ValidateInput([]byte(`{"flightRequest":{"origin":"SFO"}}`)))

	err := stage.ValidateInput([]byte(`{"hotelRequest":{}}`))
	require.Error(t, err)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, stdErr.Code)

	err = stage.ValidateInput([]byte(`{not json`))
	stdErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, stdErr.Code)

	open := Stage{ID: "open"}
	assert.NoError(t, open.ValidateInput([]byte(`{"anything":true}`)))
}

func TestTimeoutOr(t *testing.T) {
	assert.Equal(t, 30*time.Second, (&Stage{}).TimeoutOr(30*time.Second))
	assert.Equal(t, 30*time.Second, (&Stage{Timeout: "bogus"}).TimeoutOr(30*time.Second))
	assert.Equal(t, 90*time.Second, (&Stage{Timeout: "90s"}).TimeoutOr(30*time.Second))
}
