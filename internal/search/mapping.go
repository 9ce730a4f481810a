// internal/search/mapping.go
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"travel-planner/internal/models"
)

const notAvailable = "N/A"

var errNoLegs = errors.New("flight has no legs")

type serpAirport struct {
	Name *string `json:"name"`
	ID   *string `json:"id"`
	Time *string `json:"time"`
}

type serpLeg struct {
	Airline          *string      `json:"airline"`
	TravelClass      *string      `json:"travel_class"`
	AirlineLogo      string       `json:"airline_logo"`
	DepartureAirport *serpAirport `json:"departure_airport"`
	ArrivalAirport   *serpAirport `json:"arrival_airport"`
}

type serpFlight struct {
	Flights       []serpLeg   `json:"flights"`
	Price         interface{} `json:"price"`
	TotalDuration interface{} `json:"total_duration"`
}

type serpHotel struct {
	Name         *string `json:"name"`
	RatePerNight *struct {
		Lowest *string `json:"lowest"`
	} `json:"rate_per_night"`
	OverallRating *float64 `json:"overall_rating"`
	Location      *string  `json:"location"`
	Link          *string  `json:"link"`
}

// mapFlight builds a listing from the first leg of one best_flights entry.
func mapFlight(raw json.RawMessage, returnDate string) (models.FlightInfo, error) {
	var f serpFlight
	if err := json.Unmarshal(raw, &f); err != nil {
		return models.FlightInfo{}, fmt.Errorf("decode flight: %w", err)
	}
	if len(f.Flights) == 0 {
		return models.FlightInfo{}, errNoLegs
	}

	first := f.Flights[0]
	stops := "Nonstop"
	if n := len(f.Flights); n > 1 {
		stops = fmt.Sprintf("%d stop(s)", n-1)
	}

	return models.FlightInfo{
		Airline:     stringOr(first.Airline, "Unknown Airline"),
		Price:       scalarString(f.Price, notAvailable),
		Duration:    scalarString(f.TotalDuration, notAvailable) + " min",
		Stops:       stops,
		Departure:   describeAirport(first.DepartureAirport),
		Arrival:     describeAirport(first.ArrivalAirport),
		TravelClass: stringOr(first.TravelClass, "Economy"),
		ReturnDate:  returnDate,
		AirlineLogo: first.AirlineLogo,
	}, nil
}

func mapHotel(raw json.RawMessage) (models.HotelInfo, error) {
	var h serpHotel
	if err := json.Unmarshal(raw, &h); err != nil {
		return models.HotelInfo{}, fmt.Errorf("decode hotel: %w", err)
	}

	price := notAvailable
	if h.RatePerNight != nil {
		price = stringOr(h.RatePerNight.Lowest, notAvailable)
	}
	rating := 0.0
	if h.OverallRating != nil {
		rating = *h.OverallRating
	}

	return models.HotelInfo{
		Name:     stringOr(h.Name, "Unknown Hotel"),
		Price:    price,
		Rating:   rating,
		Location: stringOr(h.Location, notAvailable),
		Link:     stringOr(h.Link, notAvailable),
	}, nil
}

// describeAirport renders "{name} ({id}) at {time}".
func describeAirport(a *serpAirport) string {
	if a == nil {
		a = &serpAirport{}
	}
	return fmt.Sprintf("%s (%s) at %s",
		stringOr(a.Name, "Unknown"),
		stringOr(a.ID, "???"),
		stringOr(a.Time, notAvailable),
	)
}

func stringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// scalarString renders a JSON scalar the way it appeared on the wire.
func scalarString(v interface{}, def string) string {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
