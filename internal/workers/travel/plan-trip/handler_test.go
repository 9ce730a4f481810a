// internal/workers/travel/plan-trip/handler_test.go
package plantrip

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/genai/genaitest"
	"travel-planner/internal/models"
	"travel-planner/internal/orchestrator"
	"travel-planner/internal/synthesis"
	"travel-planner/pkg/registry"
)

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }
func (l *TestLogger) With(fields map[string]interface{}) Logger       { return l }

// ==========================
// Mock Planner Implementation
// ==========================

type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) CompleteSearch(ctx context.Context, req models.CompleteSearchRequest) (*models.AIResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AIResponse), args.Error(1)
}

func (m *MockPlanner) PlanFromConversation(ctx context.Context, text string) (*models.AIResponse, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AIResponse), args.Error(1)
}

func createTestConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Now:     func() time.Time { return time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC) },
	}
}

func TestHandler_Execute_Structured(t *testing.T) {
	planner := new(MockPlanner)
	want := &models.AIResponse{Itinerary: "Day 1: arrive"}
	planner.On("CompleteSearch", mock.Anything, models.CompleteSearchRequest{
		FlightRequest: models.FlightRequest{Origin: "SFO", Destination: "CDG", OutboundDate: "2025-06-20", ReturnDate: "2025-07-04"},
	}).Return(want, nil)

	h := NewHandler(createTestConfig(), planner, nil, &TestLogger{t: t})
	out, err := h.Execute(context.Background(), &Input{FlightRequest: &models.FlightRequest{Destination: "CDG"}})

	require.NoError(t, err)
	assert.Same(t, want, out.TravelPlan)
	planner.AssertExpectations(t)
	planner.AssertNotCalled(t, "PlanFromConversation", mock.Anything, mock.Anything)
}

func TestHandler_Execute_ExplicitHotelGetsDefaults(t *testing.T) {
	planner := new(MockPlanner)
	planner.On("CompleteSearch", mock.Anything, mock.MatchedBy(func(req models.CompleteSearchRequest) bool {
		return req.HotelRequest != nil &&
			req.HotelRequest.Location == "Montmartre" &&
			req.HotelRequest.CheckInDate == "2025-06-20" &&
			req.HotelRequest.CheckOutDate == "2025-07-04"
	})).Return(&models.AIResponse{}, nil)

	h := NewHandler(createTestConfig(), planner, nil, &TestLogger{t: t})
	_, err := h.Execute(context.Background(), &Input{
		FlightRequest: &models.FlightRequest{Destination: "CDG"},
		HotelRequest:  &models.HotelRequest{Location: "Montmartre"},
	})

	require.NoError(t, err)
	planner.AssertExpectations(t)
}

func TestHandler_Execute_Conversation(t *testing.T) {
	planner := new(MockPlanner)
	plan := &models.AIResponse{
		Itinerary:     "Day 1: Shibuya",
		ItineraryJSON: &models.ConversationPlan{ArrivalLocation: "Tokyo"},
	}
	planner.On("PlanFromConversation", mock.Anything, "A week in Tokyo").Return(plan, nil)

	h := NewHandler(createTestConfig(), planner, nil, &TestLogger{t: t})
	out, err := h.Execute(context.Background(), &Input{
		FlightRequest:    &models.FlightRequest{Destination: "CDG"},
		ConversationText: "A week in Tokyo",
	})

	require.NoError(t, err)
	assert.Equal(t, "Tokyo", out.TravelPlan.ItineraryJSON.ArrivalLocation)
	planner.AssertNotCalled(t, "CompleteSearch", mock.Anything, mock.Anything)
}

func TestHandler_Execute_PropagatesWorkflowError(t *testing.T) {
	planner := new(MockPlanner)
	wfErr := &orchestrator.Error{
		Detail: "Unable to generate itinerary",
		Err:    apperrors.NewConversationParseFailedError(errors.New("no json")),
	}
	planner.On("PlanFromConversation", mock.Anything, "gibberish").Return(nil, wfErr)

	h := NewHandler(createTestConfig(), planner, nil, &TestLogger{t: t})
	out, err := h.Execute(context.Background(), &Input{ConversationText: "gibberish"})

	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, apperrors.ErrCodeConversationParseFailed, apperrors.Normalize(err).Code)
}

type gatewayFunc struct {
	flights []models.FlightInfo
	hotels  []models.HotelInfo
}

func (g gatewayFunc) SearchFlights(context.Context, models.FlightRequest) ([]models.FlightInfo, error) {
	return g.flights, nil
}

func (g gatewayFunc) SearchHotels(context.Context, models.HotelRequest) ([]models.HotelInfo, error) {
	return g.hotels, nil
}

func TestHandler_Execute_WithOrchestrator(t *testing.T) {
	log := logger.NewTestLogger(t)
	gw := gatewayFunc{
		flights: []models.FlightInfo{{Airline: "Air France", Price: "850"}},
		hotels:  []models.HotelInfo{{Name: "Hotel Lutetia", Price: "$600", Rating: 4.8}},
	}
	synth := synthesis.New(&genaitest.Stub{Text: "generated"}, config.DayRangePassThrough, log)
	o := orchestrator.New(gw, synth, nil, nil, log)

	h := NewHandler(createTestConfig(), o, nil, &TestLogger{t: t})
	out, err := h.Execute(context.Background(), &Input{FlightRequest: &models.FlightRequest{Destination: "CDG"}})

	require.NoError(t, err)
	assert.Len(t, out.TravelPlan.Flights, 1)
	assert.Len(t, out.TravelPlan.Hotels, 1)
	assert.Equal(t, "generated", out.TravelPlan.AIFlightRecommendation)
	assert.Equal(t, "generated", out.TravelPlan.Itinerary)
}

func TestHandler_ParseInput(t *testing.T) {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", "..", "configs", "stage-registry.json"))
	require.NoError(t, err)
	stage, ok := reg.Find(TaskType)
	require.True(t, ok)

	job := func(vars string) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 4, Type: TaskType, Retries: 1, Variables: vars}}
	}

	tests := []struct {
		name    string
		vars    string
		wantErr bool
	}{
		{"structured", `{"flightRequest":{"destination":"CDG"}}`, false},
		{"structured with null hotel", `{"flightRequest":{},"hotelRequest":null}`, false},
		{"conversation", `{"conversationText":"Rome for a long weekend"}`, false},
		{"neither", `{"hotelRequest":{"location":"Rome"}}`, true},
		{"blank conversation", `{"conversationText":""}`, true},
		{"malformed", `[]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), new(MockPlanner), stage, &TestLogger{t: t})

			_, err := h.parseInput(job(tt.vars))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.Normalize(err).Code)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("whitespace conversation without stage", func(t *testing.T) {
		h := NewHandler(createTestConfig(), new(MockPlanner), nil, &TestLogger{t: t})
		_, err := h.parseInput(job(`{"conversationText":"   "}`))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.Normalize(err).Code)
	})
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 5*time.Minute, LoadConfig(config.WorkerConfig{}, nil).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{}, &registry.Stage{Timeout: "30s"}).Timeout)
	assert.Equal(t, time.Minute, LoadConfig(config.WorkerConfig{Timeout: 60000}, &registry.Stage{Timeout: "30s"}).Timeout)
}
