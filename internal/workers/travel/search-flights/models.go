// internal/workers/travel/search-flights/models.go
package searchflights

import "travel-planner/internal/models"

type Input struct {
	FlightRequest models.FlightRequest `json:"flightRequest"`
}

type Output struct {
	Flights                []models.FlightInfo `json:"flights"`
	AIFlightRecommendation string              `json:"aiFlightRecommendation"`
}
