// internal/api/router_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-planner/internal/chat"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/genai/genaitest"
	"travel-planner/internal/models"
	"travel-planner/internal/orchestrator"
)

var testNow = time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

type stubPlanner struct {
	resp *models.AIResponse
	err  error

	flightReq   models.FlightRequest
	hotelReq    models.HotelRequest
	completeReq models.CompleteSearchRequest
	itinReq     models.ItineraryRequest
	text        string
	panicWith   interface{}
}

func (p *stubPlanner) result() (*models.AIResponse, error) {
	if p.panicWith != nil {
		panic(p.panicWith)
	}
	return p.resp, p.err
}

func (p *stubPlanner) SearchFlights(ctx context.Context, req models.FlightRequest) (*models.AIResponse, error) {
	p.flightReq = req
	return p.result()
}

func (p *stubPlanner) SearchHotels(ctx context.Context, req models.HotelRequest) (*models.AIResponse, error) {
	p.hotelReq = req
	return p.result()
}

func (p *stubPlanner) CompleteSearch(ctx context.Context, req models.CompleteSearchRequest) (*models.AIResponse, error) {
	p.completeReq = req
	return p.result()
}

func (p *stubPlanner) GenerateItinerary(ctx context.Context, req models.ItineraryRequest) (*models.AIResponse, error) {
	p.itinReq = req
	return p.result()
}

func (p *stubPlanner) PlanFromConversation(ctx context.Context, text string) (*models.AIResponse, error) {
	p.text = text
	return p.result()
}

func newTestRouter(t *testing.T, p Planner, c ChatService, opts Options) http.Handler {
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return NewRouter(p, c, opts, logger.NewTestLogger(t))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestSearchFlights_AppliesDefaultsAndEncodesResponse(t *testing.T) {
	resp := models.NewAIResponse()
	resp.AIFlightRecommendation = "take the morning flight"
	p := &stubPlanner{resp: resp}
	h := newTestRouter(t, p, nil, Options{})

	rec := do(t, h, http.MethodPost, "/search_flights/", `{"origin": "LAX"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	assert.Equal(t, models.FlightRequest{Origin: "LAX", Destination: "JFK", OutboundDate: "2025-06-20", ReturnDate: "2025-07-04"}, p.flightReq)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []interface{}{}, got["flights"])
	assert.Equal(t, []interface{}{}, got["hotels"])
	assert.Equal(t, "take the morning flight", got["ai_flight_recommendation"])
	assert.Equal(t, "", got["itinerary"])
	assert.NotContains(t, got, "itinerary_json")
}

func TestCompleteSearch_HotelRequestOptional(t *testing.T) {
	p := &stubPlanner{resp: models.NewAIResponse()}
	h := newTestRouter(t, p, nil, Options{})

	rec := do(t, h, http.MethodPost, "/complete_search/", `{"flight_request": {"origin": "SFO", "destination": "NRT", "outbound_date": "2025-07-01", "return_date": "2025-07-08"}, "hotel_request": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, p.completeReq.HotelRequest)
	assert.Equal(t, "NRT", p.completeReq.FlightRequest.Destination)

	rec = do(t, h, http.MethodPost, "/complete_search/", `{"flight_request": {}, "hotel_request": {"location": "Kyoto"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, p.completeReq.HotelRequest)
	assert.Equal(t, "Kyoto", p.completeReq.HotelRequest.Location)
	assert.Equal(t, "2025-06-20", p.completeReq.HotelRequest.CheckInDate)
}

func TestMalformedBodyIs422(t *testing.T) {
	h := newTestRouter(t, &stubPlanner{}, nil, Options{})

	for _, path := range []string{"/search_flights/", "/search_hotels/", "/complete_search/", "/generate_itinerary/", "/generate_itinerary_from_conversation/"} {
		rec := do(t, h, http.MethodPost, path, `{"origin": `)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
		assert.Contains(t, detailOf(t, rec), "Invalid request body", path)
	}
}

func TestWorkflowErrorsMapToDetail(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "flight search failure",
			path:       "/search_flights/",
			body:       `{}`,
			err:        &orchestrator.Error{Detail: "Flight search error: Invalid API key", Err: apperrors.NewSearchProviderError("flights", errors.New("Invalid API key"))},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Flight search error: Invalid API key",
		},
		{
			name:       "conversation parse failure",
			path:       "/generate_itinerary_from_conversation/",
			body:       `{"conversation_text": "??"}`,
			err:        &orchestrator.Error{Detail: "Unable to generate itinerary", Err: apperrors.NewConversationParseFailedError(errors.New("bad"))},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Unable to generate itinerary",
		},
		{
			name:       "rejected day range",
			path:       "/generate_itinerary/",
			body:       `{"destination": "Paris", "check_in_date": "2025-06-05", "check_out_date": "2025-06-01"}`,
			err:        &orchestrator.Error{Detail: "Itinerary generation error: x", Err: apperrors.NewInvalidDayRangeError("2025-06-05", "2025-06-01", -4)},
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "Itinerary generation error: x",
		},
		{
			name:       "plain error",
			path:       "/search_hotels/",
			body:       `{}`,
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "unexpected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &stubPlanner{err: tt.err}, nil, Options{})
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, detailOf(t, rec))
		})
	}
}

func TestPanicIsRecoveredAs500(t *testing.T) {
	h := newTestRouter(t, &stubPlanner{panicWith: "boom"}, nil, Options{})

	rec := do(t, h, http.MethodPost, "/search_hotels/", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", detailOf(t, rec))
}

func TestMethodAndPathRouting(t *testing.T) {
	h := newTestRouter(t, &stubPlanner{resp: models.NewAIResponse()}, nil, Options{})

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/search_flights/", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/search_flights/extra", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/chat/", `{}`).Code, "chat routes need a chat service")
}

func TestHealthReadyMetrics(t *testing.T) {
	ready := errors.New("redis down")
	h := newTestRouter(t, &stubPlanner{}, nil, Options{Ready: func(ctx context.Context) error { return ready }})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/ready", "").Code)

	ready = nil
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "").Code)

	do(t, h, http.MethodPost, "/search_flights/", `{`)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `planner_requests_total{route="POST /search_flights/{$}",status="422"}`)
}

func TestCORS(t *testing.T) {
	h := newTestRouter(t, &stubPlanner{resp: models.NewAIResponse()}, nil, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	pre := httptest.NewRequest(http.MethodOptions, "/complete_search/", nil)
	pre.Header.Set("Origin", "http://localhost:5173")
	pre.Header.Set("Access-Control-Request-Method", "POST")
	pre.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pre)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))

	other := httptest.NewRequest(http.MethodPost, "/search_flights/", strings.NewReader(`{}`))
	other.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatRoutes(t *testing.T) {
	svc := chat.NewService(chat.NewMemoryStore(), &genaitest.Stub{Text: "Try the bakery on Rue Cler."}, logger.NewTestLogger(t))
	h := newTestRouter(t, &stubPlanner{}, svc, Options{})

	rec := do(t, h, http.MethodPost, "/chat/", `{"itinerary": "Day 1: Eiffel Tower", "human_message": "Breakfast ideas?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var started models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started.ChatID)
	assert.Equal(t, models.RoleAssistant, started.Response.Role)
	assert.Equal(t, "Try the bakery on Rue Cler.", started.Response.Content)

	rec = do(t, h, http.MethodPost, "/chat/keep/", `{"chat_id": "`+started.ChatID+`", "human_message": "And lunch?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/chat/"+started.ChatID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history models.ChatHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history.Messages, 5)

	rec = do(t, h, http.MethodGet, "/chat/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Chat not found", detailOf(t, rec))

	rec = do(t, h, http.MethodPost, "/chat/keep/", `{"chat_id": "", "human_message": "hi"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
