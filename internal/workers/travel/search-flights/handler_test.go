// internal/workers/travel/search-flights/handler_test.go
package searchflights

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/models"
	"travel-planner/internal/orchestrator"
	"travel-planner/pkg/registry"
)

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: map[string]interface{}{}}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

type stubSearcher struct {
	resp *models.AIResponse
	err  error
	got  []models.FlightRequest
}

func (s *stubSearcher) SearchFlights(_ context.Context, req models.FlightRequest) (*models.AIResponse, error) {
	s.got = append(s.got, req)
	return s.resp, s.err
}

var fixedNow = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		Now:     func() time.Time { return fixedNow },
	}
}

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                1,
		Type:               TaskType,
		ProcessInstanceKey: 10,
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func loadStage(t *testing.T) *registry.Stage {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", "..", "configs", "stage-registry.json"))
	require.NoError(t, err)
	stage, ok := reg.Find(TaskType)
	require.True(t, ok)
	return stage
}

func TestHandler_Execute_Success(t *testing.T) {
	searcher := &stubSearcher{resp: &models.AIResponse{
		Flights:                []models.FlightInfo{{Airline: "ANA", Price: "1200"}},
		AIFlightRecommendation: "Take ANA",
	}}
	h := NewHandler(createTestConfig(), searcher, nil, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{FlightRequest: models.FlightRequest{
		Origin:       "SFO",
		Destination:  "NRT",
		OutboundDate: "2025-07-01",
		ReturnDate:   "2025-07-08",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Take ANA", out.AIFlightRecommendation)
	require.Len(t, out.Flights, 1)
	assert.Equal(t, "ANA", out.Flights[0].Airline)
	require.Len(t, searcher.got, 1)
	assert.Equal(t, "NRT", searcher.got[0].Destination)
}

func TestHandler_Execute_AppliesDefaults(t *testing.T) {
	searcher := &stubSearcher{resp: &models.AIResponse{AIFlightRecommendation: "none"}}
	h := NewHandler(createTestConfig(), searcher, nil, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, models.FlightRequest{
		Origin:       "SFO",
		Destination:  "JFK",
		OutboundDate: "2025-06-20",
		ReturnDate:   "2025-07-04",
	}, searcher.got[0])

	assert.NotNil(t, out.Flights)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"flights":[],"aiFlightRecommendation":"none"}`, string(raw))
}

func TestHandler_Execute_Error(t *testing.T) {
	cause := apperrors.NewSearchProviderError("flights", errors.New("invalid api key"))
	searcher := &stubSearcher{err: &orchestrator.Error{Detail: "Flight search error: invalid api key", Err: cause}}
	h := NewHandler(createTestConfig(), searcher, nil, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, apperrors.ErrCodeSearchProviderError, apperrors.Normalize(err).Code)
}

func TestHandler_ParseInput(t *testing.T) {
	stage := loadStage(t)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
		want      models.FlightRequest
	}{
		{
			name: "valid",
			variables: map[string]interface{}{"flightRequest": map[string]interface{}{
				"origin": "SFO", "destination": "NRT", "outbound_date": "2025-07-01",
			}},
			want: models.FlightRequest{Origin: "SFO", Destination: "NRT", OutboundDate: "2025-07-01"},
		},
		{
			name:      "empty request uses defaults later",
			variables: map[string]interface{}{"flightRequest": map[string]interface{}{}},
		},
		{
			name:      "missing flight request",
			variables: map[string]interface{}{"hotelRequest": map[string]interface{}{}},
			wantErr:   true,
		},
		{
			name:      "bad airport code",
			variables: map[string]interface{}{"flightRequest": map[string]interface{}{"origin": "SFOX"}},
			wantErr:   true,
		},
		{
			name:      "bad date",
			variables: map[string]interface{}{"flightRequest": map[string]interface{}{"return_date": "July 8"}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), &stubSearcher{}, stage, NewTestLogger(t))

			input, err := h.parseInput(createMockJob(tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.Normalize(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input.FlightRequest)
		})
	}
}

func TestHandler_ParseInput_WithoutStage(t *testing.T) {
	h := NewHandler(createTestConfig(), &stubSearcher{}, nil, NewTestLogger(t))

	input, err := h.parseInput(createMockJob(map[string]interface{}{"other": true}))
	require.NoError(t, err)
	assert.Equal(t, models.FlightRequest{}, input.FlightRequest)

	job := createMockJob(nil)
	job.Variables = `{"flightRequest": "SFO"}`
	_, err = h.parseInput(job)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.Normalize(err).Code)
}

func TestLoadConfig(t *testing.T) {
	stage := &registry.Stage{Timeout: "90s"}

	assert.Equal(t, 60*time.Second, LoadConfig(config.WorkerConfig{}, nil).Timeout)
	assert.Equal(t, 90*time.Second, LoadConfig(config.WorkerConfig{}, stage).Timeout)
	assert.Equal(t, 2*time.Second, LoadConfig(config.WorkerConfig{Timeout: 2000}, stage).Timeout)
	assert.NotNil(t, LoadConfig(config.WorkerConfig{}, nil).Now)
}
