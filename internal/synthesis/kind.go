// Package synthesis turns formatted listings into recommendations and itineraries.
package synthesis

import "fmt"

// Kind is the workflow a synthesis call belongs to.
type Kind int

const (
	KindFlight Kind = iota
	KindHotel
	KindTravel
)

func (k Kind) String() string {
	switch k {
	case KindFlight:
		return "flight"
	case KindHotel:
		return "hotel"
	case KindTravel:
		return "travel"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Profile is the persona and task text used for one Kind.
type Profile struct {
	Role           string
	Goal           string
	Backstory      string
	PromptTemplate string
}

// System renders the persona as a system prompt.
func (p Profile) System() string {
	return fmt.Sprintf("You are the %s. %s\nYour goal: %s", p.Role, p.Backstory, p.Goal)
}

// ProfileFor returns the profile of k. Every Kind has one.
func ProfileFor(k Kind) Profile {
	switch k {
	case KindFlight:
		return Profile{
			Role:           "AI Flight Analyst",
			Goal:           "Analyze flight options and recommend the best one considering price, duration, stops, and overall convenience.",
			Backstory:      "AI expert that provides in-depth analysis comparing flight options based on multiple factors.",
			PromptTemplate: flightTaskTemplate,
		}
	case KindHotel:
		return Profile{
			Role:           "AI Hotel Analyst",
			Goal:           "Analyze hotel options and recommend the best one considering price, rating, location, and amenities.",
			Backstory:      "AI expert that provides in-depth analysis comparing hotel options based on multiple factors.",
			PromptTemplate: hotelTaskTemplate,
		}
	case KindTravel:
		return Profile{
			Role:           "AI Travel Planner",
			Goal:           "Create a detailed itinerary for the user based on flight and hotel information",
			Backstory:      "AI travel expert generating a day-by-day itinerary including flight details, hotel stays, and must-visit locations in the destination.",
			PromptTemplate: itineraryTaskTemplate,
		}
	default:
		panic(fmt.Sprintf("synthesis: no profile for %s", k))
	}
}
