// internal/workers/travel/search-hotels/models.go
package searchhotels

import "travel-planner/internal/models"

type Input struct {
	HotelRequest models.HotelRequest `json:"hotelRequest"`
}

type Output struct {
	Hotels                []models.HotelInfo `json:"hotels"`
	AIHotelRecommendation string             `json:"aiHotelRecommendation"`
}
