// internal/synthesis/format.go
package synthesis

import (
	"fmt"
	"strconv"
	"strings"

	"travel-planner/internal/models"
)

const (
	NoFlightsText = "No flights available."
	NoHotelsText  = "No hotels available."
)

// FormatFlights renders flight listings as the markdown block fed to prompts.
func FormatFlights(flights []models.FlightInfo) string {
	if len(flights) == 0 {
		return NoFlightsText
	}

	var b strings.Builder
	b.WriteString("✈️ **Available flight options**:\n\n")
	for i, f := range flights {
		fmt.Fprintf(&b, "**Flight %d:**\n", i+1)
		fmt.Fprintf(&b, "✈️ **Airline:** %s\n", f.Airline)
		fmt.Fprintf(&b, "💰 **Price:** $%s\n", f.Price)
		fmt.Fprintf(&b, "⏱️ **Duration:** %s\n", f.Duration)
		fmt.Fprintf(&b, "🛑 **Stops:** %s\n", f.Stops)
		fmt.Fprintf(&b, "🕔 **Departure:** %s\n", f.Departure)
		fmt.Fprintf(&b, "🕖 **Arrival:** %s\n", f.Arrival)
		fmt.Fprintf(&b, "💺 **Class:** %s\n\n", f.TravelClass)
	}
	return strings.TrimSpace(b.String())
}

func FormatHotels(hotels []models.HotelInfo) string {
	if len(hotels) == 0 {
		return NoHotelsText
	}

	var b strings.Builder
	b.WriteString("🏨 **Available Hotel Options**:\n\n")
	for i, h := range hotels {
		fmt.Fprintf(&b, "**Hotel %d:**\n", i+1)
		fmt.Fprintf(&b, "🏨 **Name:** %s\n", h.Name)
		fmt.Fprintf(&b, "💰 **Price:** $%s\n", h.Price)
		fmt.Fprintf(&b, "⭐ **Rating:** %s\n", formatRating(h.Rating))
		fmt.Fprintf(&b, "📍 **Location:** %s\n", h.Location)
		fmt.Fprintf(&b, "🔗 **More Info:** [Link](%s)\n\n", h.Link)
	}
	return strings.TrimSpace(b.String())
}

// formatRating keeps one decimal for whole numbers, so 4 renders as "4.0".
func formatRating(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
