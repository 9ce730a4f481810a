// internal/synthesis/synthesizer.go
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/genai"
	"travel-planner/internal/models"
)

// ItineraryApology replaces an itinerary that could not be generated.
const ItineraryApology = "Unable to generate itinerary due to an error. Please try again later."

// ErrInvalidDayRange is returned by Itinerary under the reject policy.
var ErrInvalidDayRange = apperrors.ErrInvalidDayRange

var errMissingItineraryFields = errors.New("destination, flight information, check_in_date and check_out_date are required")

// RecommendationApology replaces a recommendation that could not be generated.
func RecommendationApology(k Kind) string {
	return fmt.Sprintf("Unable to generate %s recommendation due to an error.", k)
}

type ItineraryInput struct {
	Destination  string
	FlightsText  string
	HotelsText   string
	CheckInDate  string
	CheckOutDate string
}

// Synthesizer degrades every backend failure to an apology string.
type Synthesizer struct {
	gen    genai.Generator
	policy string
	logger logger.Logger
}

// New builds a synthesizer. policy is one of the config.DayRange* values; empty means passthrough.
func New(gen genai.Generator, policy string, log logger.Logger) *Synthesizer {
	if policy == "" {
		policy = config.DayRangePassThrough
	}
	return &Synthesizer{
		gen:    gen,
		policy: policy,
		logger: log.With(map[string]interface{}{
			"component": "synthesizer",
		}),
	}
}

// Recommend asks the backend to pick the best listing out of formatted.
func (s *Synthesizer) Recommend(ctx context.Context, kind Kind, formatted string) string {
	s.logger.Info("getting recommendation", map[string]interface{}{"kind": kind.String()})

	profile := ProfileFor(kind)
	prompt, err := render(kind, recommendationData{Kind: kind.String(), Data: formatted})
	if err != nil {
		s.logger.Error("render recommendation prompt", map[string]interface{}{
			"kind":  kind.String(),
			"error": err.Error(),
		})
		return RecommendationApology(kind)
	}

	text, err := s.gen.Generate(ctx, genai.Prompt(profile.System(), prompt))
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Error("recommendation failed", map[string]interface{}{
			"kind":  kind.String(),
			"error": errString(err),
		})
		return RecommendationApology(kind)
	}
	return text
}

// Itinerary writes a day-by-day plan. The only error it returns is an INVALID_DAY_RANGE
// under the reject policy; every other failure yields ItineraryApology.
func (s *Synthesizer) Itinerary(ctx context.Context, in ItineraryInput) (string, error) {
	if in.Destination == "" || in.FlightsText == "" || in.CheckInDate == "" || in.CheckOutDate == "" {
		s.logger.Error("itinerary input incomplete", map[string]interface{}{
			"destination": in.Destination,
			"checkIn":     in.CheckInDate,
			"checkOut":    in.CheckOutDate,
			"error":       errMissingItineraryFields.Error(),
		})
		return ItineraryApology, nil
	}

	days, err := DayCount(in.CheckInDate, in.CheckOutDate)
	if err != nil {
		s.logger.Error("itinerary dates unparsable", map[string]interface{}{
			"checkIn":  in.CheckInDate,
			"checkOut": in.CheckOutDate,
			"error":    err.Error(),
		})
		return ItineraryApology, nil
	}

	if days < 1 {
		switch s.policy {
		case config.DayRangeReject:
			s.logger.Warn("rejecting non-positive day range", map[string]interface{}{
				"checkIn":  in.CheckInDate,
				"checkOut": in.CheckOutDate,
				"days":     days,
			})
			return "", apperrors.NewInvalidDayRangeError(in.CheckInDate, in.CheckOutDate, days)
		case config.DayRangeClamp:
			days = 1
		}
	}

	prompt, err := render(KindTravel, itineraryData{
		Days:         days,
		FlightsText:  in.FlightsText,
		HotelsText:   in.HotelsText,
		Destination:  in.Destination,
		CheckInDate:  in.CheckInDate,
		CheckOutDate: in.CheckOutDate,
	})
	if err != nil {
		s.logger.Error("render itinerary prompt", map[string]interface{}{"error": err.Error()})
		return ItineraryApology, nil
	}

	text, err := s.gen.Generate(ctx, genai.Prompt(ProfileFor(KindTravel).System(), prompt))
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Error("itinerary generation failed", map[string]interface{}{
			"destination": in.Destination,
			"error":       errString(err),
		})
		return ItineraryApology, nil
	}
	return text, nil
}

// DayCount returns check-out minus check-in in whole days.
func DayCount(checkIn, checkOut string) (int, error) {
	in, err := time.Parse(models.DateLayout, checkIn)
	if err != nil {
		return 0, fmt.Errorf("check_in_date: %w", err)
	}
	out, err := time.Parse(models.DateLayout, checkOut)
	if err != nil {
		return 0, fmt.Errorf("check_out_date: %w", err)
	}
	return int(out.Sub(in).Hours() / 24), nil
}

func errString(err error) string {
	if err == nil {
		return "empty response"
	}
	return err.Error()
}
