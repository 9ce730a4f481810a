// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/models"
	"travel-planner/internal/orchestrator"
)

func (s *server) searchFlights(w http.ResponseWriter, r *http.Request) {
	var req models.FlightRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.ApplyDefaults(s.now())

	resp, err := s.planner.SearchFlights(r.Context(), req)
	s.respond(w, r, resp, err)
}

func (s *server) searchHotels(w http.ResponseWriter, r *http.Request) {
	var req models.HotelRequest
	if !s.decode(w, r, &req) {
		return
	}
	req.ApplyDefaults(s.now())

	resp, err := s.planner.SearchHotels(r.Context(), req)
	s.respond(w, r, resp, err)
}

func (s *server) completeSearch(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteSearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	now := s.now()
	req.FlightRequest.ApplyDefaults(now)
	if req.HotelRequest != nil {
		req.HotelRequest.ApplyDefaults(now)
	}

	resp, err := s.planner.CompleteSearch(r.Context(), req)
	s.respond(w, r, resp, err)
}

func (s *server) generateItinerary(w http.ResponseWriter, r *http.Request) {
	var req models.ItineraryRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.planner.GenerateItinerary(r.Context(), req)
	s.respond(w, r, resp, err)
}

func (s *server) planFromConversation(w http.ResponseWriter, r *http.Request) {
	var req models.ConversationRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.planner.PlanFromConversation(r.Context(), req.ConversationText)
	s.respond(w, r, resp, err)
}

func (s *server) startChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.HumanMessage) == "" {
		writeDetail(w, r, http.StatusUnprocessableEntity, "human_message is required")
		return
	}

	resp, err := s.chat.Start(r.Context(), req.Itinerary, req.HumanMessage)
	s.respond(w, r, resp, err)
}

func (s *server) keepChat(w http.ResponseWriter, r *http.Request) {
	var req models.KeepChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ChatID == "" || strings.TrimSpace(req.HumanMessage) == "" {
		writeDetail(w, r, http.StatusUnprocessableEntity, "chat_id and human_message are required")
		return
	}

	resp, err := s.chat.Keep(r.Context(), req.ChatID, req.HumanMessage)
	s.respond(w, r, resp, err)
}

func (s *server) getChat(w http.ResponseWriter, r *http.Request) {
	history, err := s.chat.Get(r.Context(), r.PathValue("chat_id"))
	s.respond(w, r, history, err)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *server) readiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			logger.FromContext(r.Context(), s.logger).Warn("not ready", map[string]interface{}{
				"error": err.Error(),
			})
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// decode reads a single JSON object. A malformed body is answered with 422.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %s", err.Error()))
		return false
	}
	return true
}

// respond writes v, or maps err onto a status and a detail message.
func (s *server) respond(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if err == nil {
		writeJSON(w, r, http.StatusOK, v)
		return
	}

	status := http.StatusInternalServerError
	detail := err.Error()

	var wfErr *orchestrator.Error
	stdErr, isStd := apperrors.As(err)
	switch {
	case errors.As(err, &wfErr):
		detail = wfErr.Detail
	case isStd:
		detail = stdErr.Message
	}
	if isStd {
		status = apperrors.HTTPStatus(stdErr.Code)
	}

	fields := map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
		"error":  err.Error(),
	}
	if isStd {
		fields["errorCode"] = string(stdErr.Code)
	}
	logger.FromContext(r.Context(), s.logger).Error("request failed", fields)

	writeDetail(w, r, status, detail)
}
