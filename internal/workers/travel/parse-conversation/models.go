// internal/workers/travel/parse-conversation/models.go
package parseconversation

import "travel-planner/internal/models"

type Input struct {
	ConversationText string `json:"conversationText"`
}

// Output carries the extracted plan plus the searches it implies, ready for the search stages.
type Output struct {
	ItineraryJSON *models.ConversationPlan `json:"itineraryJson"`
	FlightRequest models.FlightRequest     `json:"flightRequest"`
	HotelRequest  models.HotelRequest      `json:"hotelRequest"`
}
