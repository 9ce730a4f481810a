// internal/workers/travel/plan-trip/models.go
package plantrip

import "travel-planner/internal/models"

// Input selects the conversational pipeline when ConversationText is set and the structured one otherwise.
type Input struct {
	FlightRequest    *models.FlightRequest `json:"flightRequest"`
	HotelRequest     *models.HotelRequest  `json:"hotelRequest"`
	ConversationText string                `json:"conversationText"`
}

type Output struct {
	TravelPlan *models.AIResponse `json:"travelPlan"`
}
