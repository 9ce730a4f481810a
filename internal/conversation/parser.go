// Package conversation extracts a structured trip from free-form text.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/validation"
	"travel-planner/internal/genai"
	"travel-planner/internal/models"
)

// PlanSchemaJSON is the shape the backend must answer with.
const PlanSchemaJSON = `{
  "type": "object",
  "properties": {
    "departure_location": {"type": "string"},
    "departure_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "arrival_location": {"type": "string", "minLength": 1},
    "arrival_date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "departure_flight_airport_code": {"type": "string", "pattern": "^[A-Z]{3}$"},
    "arrival_flight_airport_code": {"type": "string", "pattern": "^[A-Z]{3}$"}
  },
  "required": ["arrival_location", "arrival_flight_airport_code"]
}`

const returnAfterDays = 7

var (
	planSchema    = validation.MustCompileJSON(PlanSchemaJSON)
	planSchemaMap = mustDecode(PlanSchemaJSON)

	codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

	errEmptyConversation = errors.New("conversation text is empty")
)

// Parser turns conversation text into a ConversationPlan with one constrained generation call.
type Parser struct {
	gen          genai.Generator
	homeLocation string
	homeAirport  string
	now          func() time.Time
	logger       logger.Logger
}

type Option func(*Parser)

// WithClock overrides the clock used for "today" and date defaults.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

func NewParser(gen genai.Generator, cfg config.PlannerConfig, log logger.Logger, opts ...Option) *Parser {
	p := &Parser{
		gen:          gen,
		homeLocation: cfg.HomeLocation,
		homeAirport:  cfg.HomeAirport,
		now:          time.Now,
		logger: log.With(map[string]interface{}{
			"component": "conversation-parser",
		}),
	}
	if p.homeLocation == "" {
		p.homeLocation = "San Francisco"
	}
	if p.homeAirport == "" {
		p.homeAirport = "SFO"
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns nil and a CONVERSATION_PARSE_FAILED error when the text cannot be turned into a plan.
func (p *Parser) Parse(ctx context.Context, text string) (*models.ConversationPlan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewConversationParseFailedError(errEmptyConversation)
	}

	today := p.now()
	req := genai.Prompt("", p.prompt(text, today))
	req.Schema = planSchemaMap

	raw, err := p.gen.Generate(ctx, req)
	if err != nil {
		p.logger.Error("conversation parse generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, apperrors.NewConversationParseFailedError(err)
	}

	plan, err := decodePlan(raw)
	if err != nil {
		p.logger.Error("conversation parse output rejected", map[string]interface{}{
			"error":  err.Error(),
			"output": raw,
		})
		return nil, apperrors.NewConversationParseFailedError(err)
	}

	p.fillDefaults(plan, today)
	p.logger.Info("conversation parsed", map[string]interface{}{
		"from": plan.DepartureFlightAirportCode,
		"to":   plan.ArrivalFlightAirportCode,
	})
	return plan, nil
}

func (p *Parser) prompt(text string, today time.Time) string {
	return fmt.Sprintf(`We want to create an itinerary based on the conversation.
The conversation is: %s
Today's date is %s.

The output JSON schema is:
%s

If the conversation does not provide enough information do the following:
1. The default departure location is %s.
2. Pick a common destination from the conversation.
3. Pick a departure date in 1 month from today's date.
4. If not mentioned, pick a return date 1 week after the departure date.

The output should be a JSON object with the following fields:
- departure_location: The departure location.
- departure_date: The departure date.
- arrival_location: The arrival location.
- arrival_date: The arrival date.
- departure_flight_airport_code: The departure flight airport code closest to the departure location.
- arrival_flight_airport_code: The arrival flight airport code closest to the arrival location.

Do not return the json in markdown code blocks.`,
		text, today.Format(models.DateLayout), PlanSchemaJSON, p.homeLocation)
}

// fillDefaults completes whatever optional fields the backend left out.
func (p *Parser) fillDefaults(plan *models.ConversationPlan, today time.Time) {
	if plan.DepartureLocation == "" {
		plan.DepartureLocation = p.homeLocation
	}
	if plan.DepartureFlightAirportCode == "" {
		plan.DepartureFlightAirportCode = p.homeAirport
	}
	if plan.DepartureDate == "" {
		plan.DepartureDate = today.AddDate(0, 1, 0).Format(models.DateLayout)
	}
	if plan.ArrivalDate == "" {
		// decodePlan guarantees DepartureDate is a real calendar date.
		dep, _ := time.Parse(models.DateLayout, plan.DepartureDate)
		plan.ArrivalDate = dep.AddDate(0, 0, returnAfterDays).Format(models.DateLayout)
	}
}

// decodePlan strips code fences, drops empty optional fields and validates the rest.
func decodePlan(raw string) (*models.ConversationPlan, error) {
	body := StripCodeFences(raw)

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("output is not a JSON object: %w", err)
	}
	for k, v := range doc {
		if v == nil || v == "" {
			delete(doc, k)
		}
	}

	result, err := planSchema.Validate(doc)
	if err != nil {
		return nil, err
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	var plan models.ConversationPlan
	if err := json.Unmarshal([]byte(body), &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	// The schema only checks the date shape.
	for field, v := range map[string]string{"departure_date": plan.DepartureDate, "arrival_date": plan.ArrivalDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, v); err != nil {
			return nil, fmt.Errorf("%s %q is not a calendar date", field, v)
		}
	}
	return &plan, nil
}

// StripCodeFences removes a surrounding ``` or ```json fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func mustDecode(schemaJSON string) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(schemaJSON), &m); err != nil {
		panic(err)
	}
	return m
}
