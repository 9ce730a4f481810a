// Package orchestrator composes search, synthesis and conversation parsing into the planner workflows.
//
// Single-domain searches fail fast. Combined searches fork one branch per domain,
// join both, and degrade a failed branch to placeholder text instead of failing.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/common/observability"
	"travel-planner/internal/models"
	"travel-planner/internal/search"
	"travel-planner/internal/synthesis"
)

// Placeholders substituted for a combined-search branch that produced nothing.
const (
	FlightsPlaceholder = "Could not retrieve flights."
	HotelsPlaceholder  = "Could not retrieve hotels."
)

// Workflow names reported to the workflow counter.
const (
	WorkflowSearchFlights     = "search_flights"
	WorkflowSearchHotels      = "search_hotels"
	WorkflowCompleteSearch    = "complete_search"
	WorkflowGenerateItinerary = "generate_itinerary"
	WorkflowConversation      = "conversation"
)

// Stage names used for spans and stage metrics.
const (
	StageSearchFlights    = "search_flights"
	StageSearchHotels     = "search_hotels"
	StageRecommendFlights = "recommend_flights"
	StageRecommendHotels  = "recommend_hotels"
	StageItinerary        = "itinerary"
	StageParse            = "parse_conversation"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFailed   = "failed"
)

var errNoListings = errors.New("search returned no listings")

// Synthesizer produces recommendation and itinerary text.
type Synthesizer interface {
	Recommend(ctx context.Context, kind synthesis.Kind, formatted string) string
	Itinerary(ctx context.Context, in synthesis.ItineraryInput) (string, error)
}

// ConversationParser extracts a trip plan from free text.
type ConversationParser interface {
	Parse(ctx context.Context, text string) (*models.ConversationPlan, error)
}

// Error is a fatal workflow failure. Detail is the message shown to the caller and
// Err carries the classified StandardError.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Err }

type Orchestrator struct {
	search search.Gateway
	synth  Synthesizer
	parser ConversationParser
	obs    *observability.Observability
	logger logger.Logger
}

func New(gw search.Gateway, synth Synthesizer, parser ConversationParser, obs *observability.Observability, log logger.Logger) *Orchestrator {
	if obs == nil {
		obs = observability.Noop()
	}
	return &Orchestrator{
		search: gw,
		synth:  synth,
		parser: parser,
		obs:    obs,
		logger: log.With(map[string]interface{}{
			"component": "orchestrator",
		}),
	}
}

// SearchFlights searches flights and recommends one. A search failure is fatal.
func (o *Orchestrator) SearchFlights(ctx context.Context, req models.FlightRequest) (*models.AIResponse, error) {
	start := time.Now()

	flights, err := o.searchFlights(ctx, req)
	if err != nil {
		o.logger.Error("flight search failed", map[string]interface{}{
			"domain":  string(search.DomainFlights),
			"request": req,
			"error":   err.Error(),
		})
		o.obs.RecordWorkflow(ctx, WorkflowSearchFlights, statusFailed, time.Since(start))
		return nil, &Error{
			Detail: fmt.Sprintf("Flight search error: %s", err.Error()),
			Err:    search.Classify(search.DomainFlights, err),
		}
	}

	resp := models.NewAIResponse()
	resp.Flights = flights
	resp.AIFlightRecommendation = o.recommend(ctx, synthesis.KindFlight, synthesis.FormatFlights(flights))

	o.obs.RecordWorkflow(ctx, WorkflowSearchFlights, statusOf(resp.AIFlightRecommendation == synthesis.RecommendationApology(synthesis.KindFlight)), time.Since(start))
	return resp.Normalize(), nil
}

// SearchHotels searches hotels and recommends one. A search failure is fatal.
func (o *Orchestrator) SearchHotels(ctx context.Context, req models.HotelRequest) (*models.AIResponse, error) {
	start := time.Now()

	hotels, err := o.searchHotels(ctx, req)
	if err != nil {
		o.logger.Error("hotel search failed", map[string]interface{}{
			"domain":  string(search.DomainHotels),
			"request": req,
			"error":   err.Error(),
		})
		o.obs.RecordWorkflow(ctx, WorkflowSearchHotels, statusFailed, time.Since(start))
		return nil, &Error{
			Detail: fmt.Sprintf("Hotel search error: %s", err.Error()),
			Err:    search.Classify(search.DomainHotels, err),
		}
	}

	resp := models.NewAIResponse()
	resp.Hotels = hotels
	resp.AIHotelRecommendation = o.recommend(ctx, synthesis.KindHotel, synthesis.FormatHotels(hotels))

	o.obs.RecordWorkflow(ctx, WorkflowSearchHotels, statusOf(resp.AIHotelRecommendation == synthesis.RecommendationApology(synthesis.KindHotel)), time.Since(start))
	return resp.Normalize(), nil
}

// CompleteSearch runs the flight and hotel branches concurrently and writes an itinerary
// when both produced listings. A nil hotel request is derived from the flight request.
func (o *Orchestrator) CompleteSearch(ctx context.Context, req models.CompleteSearchRequest) (resp *models.AIResponse, err error) {
	defer o.recoverWorkflow(ctx, WorkflowCompleteSearch, "Travel search error", &resp, &err)
	start := time.Now()

	hotelReq := models.HotelRequestFor(req.FlightRequest)
	if req.HotelRequest != nil {
		hotelReq = *req.HotelRequest
	}

	resp, degraded := o.searchBoth(ctx, req.FlightRequest, hotelReq)
	o.obs.RecordWorkflow(ctx, WorkflowCompleteSearch, statusOf(degraded), time.Since(start))
	return resp, nil
}

// PlanFromConversation parses the conversation once and runs the combined search on the
// requests it implies. A parse failure is fatal.
func (o *Orchestrator) PlanFromConversation(ctx context.Context, text string) (resp *models.AIResponse, err error) {
	defer o.recoverWorkflow(ctx, WorkflowConversation, "Travel search error", &resp, &err)
	start := time.Now()

	plan, err := stage(ctx, o, StageParse, func(ctx context.Context) (*models.ConversationPlan, error) {
		plan, err := o.parser.Parse(ctx, text)
		if err == nil && plan == nil {
			err = apperrors.NewConversationParseFailedError(errors.New("parser returned no plan"))
		}
		return plan, err
	})
	if err != nil {
		o.logger.Error("conversation parse failed", map[string]interface{}{
			"conversationLength": len(text),
			"error":              err.Error(),
		})
		o.obs.RecordWorkflow(ctx, WorkflowConversation, statusFailed, time.Since(start))
		cause := err
		if _, ok := apperrors.As(err); !ok {
			cause = apperrors.NewConversationParseFailedError(err)
		}
		return nil, &Error{Detail: "Unable to generate itinerary", Err: cause}
	}

	o.logger.Info("conversation plan derived", map[string]interface{}{
		"flightRequest": plan.FlightRequest(),
		"hotelRequest":  plan.HotelRequest(),
	})

	resp, degraded := o.searchBoth(ctx, plan.FlightRequest(), plan.HotelRequest())
	resp.ItineraryJSON = plan
	o.obs.RecordWorkflow(ctx, WorkflowConversation, statusOf(degraded), time.Since(start))
	return resp, nil
}

// GenerateItinerary writes an itinerary from caller-supplied listing text.
func (o *Orchestrator) GenerateItinerary(ctx context.Context, req models.ItineraryRequest) (resp *models.AIResponse, err error) {
	defer o.recoverWorkflow(ctx, WorkflowGenerateItinerary, "Itinerary generation error", &resp, &err)
	start := time.Now()

	itinerary, err := o.itinerary(ctx, synthesis.ItineraryInput{
		Destination:  req.Destination,
		FlightsText:  req.Flights,
		HotelsText:   req.Hotels,
		CheckInDate:  req.CheckInDate,
		CheckOutDate: req.CheckOutDate,
	})
	if err != nil {
		o.logger.Warn("itinerary rejected", map[string]interface{}{
			"request": req,
			"error":   err.Error(),
		})
		o.obs.RecordWorkflow(ctx, WorkflowGenerateItinerary, statusFailed, time.Since(start))
		return nil, &Error{
			Detail: fmt.Sprintf("Itinerary generation error: %s", err.Error()),
			Err:    err,
		}
	}

	resp = models.NewAIResponse()
	resp.Itinerary = itinerary
	o.obs.RecordWorkflow(ctx, WorkflowGenerateItinerary, statusOf(itinerary == synthesis.ItineraryApology), time.Since(start))
	return resp, nil
}

type branchOutcome[T any] struct {
	listings       []T
	recommendation string
}

// searchBoth forks both branches before awaiting either and merges whatever they produced.
func (o *Orchestrator) searchBoth(ctx context.Context, flightReq models.FlightRequest, hotelReq models.HotelRequest) (*models.AIResponse, bool) {
	// Branches outlive a caller disconnect; their results are then discarded.
	branchCtx := context.WithoutCancel(ctx)

	flightBranch := Fork(branchCtx, func(ctx context.Context) (branchOutcome[models.FlightInfo], error) {
		flights, err := o.searchFlights(ctx, flightReq)
		if err != nil {
			return branchOutcome[models.FlightInfo]{}, err
		}
		if len(flights) == 0 {
			return branchOutcome[models.FlightInfo]{}, errNoListings
		}
		return branchOutcome[models.FlightInfo]{
			listings:       flights,
			recommendation: o.recommend(ctx, synthesis.KindFlight, synthesis.FormatFlights(flights)),
		}, nil
	})
	hotelBranch := Fork(branchCtx, func(ctx context.Context) (branchOutcome[models.HotelInfo], error) {
		hotels, err := o.searchHotels(ctx, hotelReq)
		if err != nil {
			return branchOutcome[models.HotelInfo]{}, err
		}
		if len(hotels) == 0 {
			return branchOutcome[models.HotelInfo]{}, errNoListings
		}
		return branchOutcome[models.HotelInfo]{
			listings:       hotels,
			recommendation: o.recommend(ctx, synthesis.KindHotel, synthesis.FormatHotels(hotels)),
		}, nil
	})

	flightRes := flightBranch.Await()
	hotelRes := hotelBranch.Await()

	resp := models.NewAIResponse()
	resp.AIFlightRecommendation = FlightsPlaceholder
	resp.AIHotelRecommendation = HotelsPlaceholder
	degraded := false

	if flightRes.OK() {
		resp.Flights = flightRes.Value.listings
		resp.AIFlightRecommendation = flightRes.Value.recommendation
	} else {
		degraded = true
		o.logBranchFailure(search.DomainFlights, flightReq, flightRes.Err)
	}

	if hotelRes.OK() {
		resp.Hotels = hotelRes.Value.listings
		resp.AIHotelRecommendation = hotelRes.Value.recommendation
	} else {
		degraded = true
		o.logBranchFailure(search.DomainHotels, hotelReq, hotelRes.Err)
	}

	if len(resp.Flights) > 0 && len(resp.Hotels) > 0 {
		itinerary, err := o.itinerary(branchCtx, synthesis.ItineraryInput{
			Destination:  flightReq.Destination,
			FlightsText:  synthesis.FormatFlights(resp.Flights),
			HotelsText:   synthesis.FormatHotels(resp.Hotels),
			CheckInDate:  flightReq.OutboundDate,
			CheckOutDate: flightReq.ReturnDate,
		})
		if err != nil {
			degraded = true
			o.logger.Warn("itinerary skipped", map[string]interface{}{
				"destination": flightReq.Destination,
				"error":       err.Error(),
			})
			itinerary = ""
		}
		if itinerary == synthesis.ItineraryApology {
			degraded = true
		}
		resp.Itinerary = itinerary
	}

	return resp.Normalize(), degraded
}

func (o *Orchestrator) logBranchFailure(domain search.Domain, req interface{}, err error) {
	fields := map[string]interface{}{
		"domain":  string(domain),
		"request": req,
		"error":   err.Error(),
	}
	if errors.Is(err, errNoListings) {
		o.logger.Warn("search branch returned no listings", fields)
		return
	}
	if stdErr := search.Classify(domain, err); stdErr != nil {
		fields["errorCode"] = string(stdErr.Code)
	}
	o.logger.Error("search branch failed", fields)
}

func (o *Orchestrator) searchFlights(ctx context.Context, req models.FlightRequest) ([]models.FlightInfo, error) {
	return stage(ctx, o, StageSearchFlights, func(ctx context.Context) ([]models.FlightInfo, error) {
		return o.search.SearchFlights(ctx, req)
	}, attribute.String("origin", req.Origin), attribute.String("destination", req.Destination))
}

func (o *Orchestrator) searchHotels(ctx context.Context, req models.HotelRequest) ([]models.HotelInfo, error) {
	return stage(ctx, o, StageSearchHotels, func(ctx context.Context) ([]models.HotelInfo, error) {
		return o.search.SearchHotels(ctx, req)
	}, attribute.String("location", req.Location))
}

func (o *Orchestrator) recommend(ctx context.Context, kind synthesis.Kind, formatted string) string {
	name := StageRecommendFlights
	if kind == synthesis.KindHotel {
		name = StageRecommendHotels
	}

	ctx, span := o.obs.StartSpan(ctx, name, attribute.String("kind", kind.String()))
	start := time.Now()
	text := o.synth.Recommend(ctx, kind, formatted)

	outcome := metrics.OutcomeSuccess
	if text == synthesis.RecommendationApology(kind) {
		outcome = metrics.OutcomeDegraded
		span.SetAttributes(attribute.Bool("degraded", true))
	}
	metrics.ObserveStage(name, outcome, time.Since(start))
	observability.EndSpan(span, nil)
	return text
}

func (o *Orchestrator) itinerary(ctx context.Context, in synthesis.ItineraryInput) (string, error) {
	ctx, span := o.obs.StartSpan(ctx, StageItinerary, attribute.String("destination", in.Destination))
	start := time.Now()
	text, err := o.synth.Itinerary(ctx, in)

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case text == synthesis.ItineraryApology:
		outcome = metrics.OutcomeDegraded
	}
	metrics.ObserveStage(StageItinerary, outcome, time.Since(start))
	observability.EndSpan(span, err)
	return text, err
}

// stage runs fn inside a span and records its outcome.
func stage[T any](ctx context.Context, o *Orchestrator, name string, fn func(ctx context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := o.obs.StartSpan(ctx, name, attrs...)
	start := time.Now()
	v, err := fn(ctx)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailed
	}
	metrics.ObserveStage(name, outcome, time.Since(start))
	observability.EndSpan(span, err)
	return v, err
}

// recoverWorkflow turns a panic outside the branch capture into a fatal workflow error.
func (o *Orchestrator) recoverWorkflow(ctx context.Context, workflow, prefix string, resp **models.AIResponse, err *error) {
	r := recover()
	if r == nil {
		return
	}
	o.logger.Error("workflow panicked", map[string]interface{}{
		"workflow": workflow,
		"panic":    fmt.Sprintf("%v", r),
	})
	o.obs.RecordWorkflow(ctx, workflow, statusFailed, 0)
	*resp = nil
	*err = &Error{
		Detail: fmt.Sprintf("%s: %v", prefix, r),
		Err:    apperrors.NewInternalError(fmt.Errorf("%v", r)),
	}
}

func statusOf(degraded bool) string {
	if degraded {
		return statusDegraded
	}
	return statusOK
}
