// internal/models/travel.go
package models

import "time"

// DateLayout is the wire format of every date in the API.
const DateLayout = "2006-01-02"

// Request defaults applied to fields missing from a request body.
const (
	DefaultOrigin        = "SFO"
	DefaultDestination   = "JFK"
	DefaultHotelLocation = "New York"
	defaultStayDays      = 14
)

type FlightRequest struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	OutboundDate string `json:"outbound_date"`
	ReturnDate   string `json:"return_date"`
}

// ApplyDefaults fills empty fields. Dates default to one month from now for a two week stay.
func (r *FlightRequest) ApplyDefaults(now time.Time) {
	if r.Origin == "" {
		r.Origin = DefaultOrigin
	}
	if r.Destination == "" {
		r.Destination = DefaultDestination
	}
	in, out := defaultDates(now)
	if r.OutboundDate == "" {
		r.OutboundDate = in
	}
	if r.ReturnDate == "" {
		r.ReturnDate = out
	}
}

type HotelRequest struct {
	Location     string `json:"location"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
}

func (r *HotelRequest) ApplyDefaults(now time.Time) {
	if r.Location == "" {
		r.Location = DefaultHotelLocation
	}
	in, out := defaultDates(now)
	if r.CheckInDate == "" {
		r.CheckInDate = in
	}
	if r.CheckOutDate == "" {
		r.CheckOutDate = out
	}
}

// HotelRequestFor derives the hotel leg of a trip from its flight leg.
func HotelRequestFor(f FlightRequest) HotelRequest {
	return HotelRequest{
		Location:     f.Destination,
		CheckInDate:  f.OutboundDate,
		CheckOutDate: f.ReturnDate,
	}
}

func defaultDates(now time.Time) (string, string) {
	start := now.AddDate(0, 1, 0)
	return start.Format(DateLayout), start.AddDate(0, 0, defaultStayDays).Format(DateLayout)
}

// CompleteSearchRequest is the body of /complete_search/. A nil HotelRequest is derived from the flight leg.
type CompleteSearchRequest struct {
	FlightRequest FlightRequest `json:"flight_request"`
	HotelRequest  *HotelRequest `json:"hotel_request"`
}

// ItineraryRequest carries preformatted listings straight to the itinerary synthesizer.
type ItineraryRequest struct {
	Destination  string `json:"destination"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Flights      string `json:"flights"`
	Hotels       string `json:"hotels"`
}

type ConversationRequest struct {
	ConversationText string `json:"conversation_text"`
}

type FlightInfo struct {
	Airline     string `json:"airline"`
	Price       string `json:"price"`
	Duration    string `json:"duration"`
	Stops       string `json:"stops"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`
	TravelClass string `json:"travel_class"`
	ReturnDate  string `json:"return_date"`
	AirlineLogo string `json:"airline_logo"`
}

type HotelInfo struct {
	Name     string  `json:"name"`
	Price    string  `json:"price"`
	Rating   float64 `json:"rating"`
	Location string  `json:"location"`
	Link     string  `json:"link"`
}

// ConversationPlan is the structured trip extracted from free text.
type ConversationPlan struct {
	DepartureLocation          string `json:"departure_location"`
	DepartureDate              string `json:"departure_date"`
	ArrivalLocation            string `json:"arrival_location"`
	ArrivalDate                string `json:"arrival_date"`
	DepartureFlightAirportCode string `json:"departure_flight_airport_code"`
	ArrivalFlightAirportCode   string `json:"arrival_flight_airport_code"`
}

// FlightRequest converts the plan into the flight search it implies.
func (p ConversationPlan) FlightRequest() FlightRequest {
	return FlightRequest{
		Origin:       p.DepartureFlightAirportCode,
		Destination:  p.ArrivalFlightAirportCode,
		OutboundDate: p.DepartureDate,
		ReturnDate:   p.ArrivalDate,
	}
}

func (p ConversationPlan) HotelRequest() HotelRequest {
	return HotelRequest{
		Location:     p.ArrivalLocation,
		CheckInDate:  p.DepartureDate,
		CheckOutDate: p.ArrivalDate,
	}
}

// AIResponse is the aggregated result of every planner workflow.
type AIResponse struct {
	Flights                []FlightInfo      `json:"flights"`
	Hotels                 []HotelInfo       `json:"hotels"`
	AIFlightRecommendation string            `json:"ai_flight_recommendation"`
	AIHotelRecommendation  string            `json:"ai_hotel_recommendation"`
	Itinerary              string            `json:"itinerary"`
	ItineraryJSON          *ConversationPlan `json:"itinerary_json,omitempty"`
}

// NewAIResponse returns a response whose lists encode as [] rather than null.
func NewAIResponse() *AIResponse {
	return &AIResponse{
		Flights: []FlightInfo{},
		Hotels:  []HotelInfo{},
	}
}

// Normalize replaces nil lists so the response never encodes null.
func (r *AIResponse) Normalize() *AIResponse {
	if r.Flights == nil {
		r.Flights = []FlightInfo{}
	}
	if r.Hotels == nil {
		r.Hotels = []HotelInfo{}
	}
	return r
}
