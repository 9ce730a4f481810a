// internal/synthesis/prompts.go
package synthesis

import (
	"strings"
	"text/template"
)

const flightTaskTemplate = `Recommend the best flight from the available options, based on the details provided below:

**Reasoning for Recommendation:**
- **💰 Price:** Provide a detailed explanation about why this flight offers the best value compared to others.
- **⏱️ Duration:** Explain why this flight has the best duration in comparison to others.
- **🛑 Stops:** Discuss why this flight has minimal or optimal stops.
- **💺 Travel Class:** Describe why this flight provides the best comfort and amenities.

Use the provided flight data as the basis for your recommendation. Be sure to justify your choice using clear reasoning for each attribute. Do not repeat the flight details in your response.

Data to analyze:
{{.Data}}

Expected output: A structured recommendation explaining the best {{.Kind}} choice based on the analysis of provided details.`

const hotelTaskTemplate = `Based on the following analysis, generate a detailed recommendation for the best hotel. Your response should include clear reasoning based on price, rating, location, and amenities.

**🏆 AI Hotel Recommendation**
We recommend the best hotel based on the following analysis:

**Reasoning for Recommendation**:
- **💰 Price:** The recommended hotel is the best option for the price compared to others, offering the best value for the amenities and services provided.
- **⭐ Rating:** With a higher rating compared to the alternatives, it ensures a better overall guest experience. Explain why this makes it the best choice.
- **📍 Location:** The hotel is in a prime location, close to important attractions, making it convenient for travelers.
- **🛋️ Amenities:** The hotel offers amenities like Wi-Fi, pool, fitness center, free breakfast, etc. Discuss how these amenities enhance the experience, making it suitable for different types of travelers.

📝 **Reasoning Requirements**:
- Ensure that each section clearly explains why this hotel is the best option based on the factors of price, rating, location, and amenities.
- Compare it against the other options and explain why this one stands out.
- Provide concise, well-structured reasoning to make the recommendation clear to the traveler.
- Your recommendation should help a traveler make an informed decision based on multiple factors, not just one.

Data to analyze:
{{.Data}}

Expected output: A structured recommendation explaining the best {{.Kind}} choice based on the analysis of provided details.`

const itineraryTaskTemplate = `Based on the following details, create a {{.Days}}-day itinerary for the user:

**Flight Details**:
{{.FlightsText}}

**Hotel Details**:
{{.HotelsText}}

**Destination**: {{.Destination}}

**Travel Dates**: {{.CheckInDate}} to {{.CheckOutDate}} ({{.Days}} days)

The itinerary should include:
- Flight arrival and departure information
- Hotel check-in and check-out details
- Day-by-day breakdown of activities
- Must-visit attractions and estimated visit times
- Restaurant recommendations for meals
- Tips for local transportation

📝 **Format Requirements**:
- Use markdown formatting with clear headings (# for main headings, ## for days, ### for sections)
- Include emojis for different types of activities (🏛️ for landmarks, 🍽️ for restaurants, etc.)
- Use bullet points for listing activities
- Include estimated timings for each activity
- Format the itinerary to be visually appealing and easy to read`

// templates are parsed once from each profile; a parse error is a programming error.
var templates = map[Kind]*template.Template{
	KindFlight: mustParse(KindFlight),
	KindHotel:  mustParse(KindHotel),
	KindTravel: mustParse(KindTravel),
}

func mustParse(k Kind) *template.Template {
	return template.Must(template.New(k.String()).Parse(ProfileFor(k).PromptTemplate))
}

type recommendationData struct {
	Kind string
	Data string
}

type itineraryData struct {
	Days         int
	FlightsText  string
	HotelsText   string
	Destination  string
	CheckInDate  string
	CheckOutDate string
}

func render(k Kind, data interface{}) (string, error) {
	var b strings.Builder
	if err := templates[k].Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
