// internal/search/serpapi.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travel-planner/internal/common/config"
	commonhttp "travel-planner/internal/common/http"
	"travel-planner/internal/common/logger"
	"travel-planner/internal/models"
)

const (
	engineFlights = "google_flights"
	engineHotels  = "google_hotels"
)

// serpResponse holds the fields read from a SerpAPI search. Records stay raw so one bad entry cannot fail the batch.
type serpResponse struct {
	Error       string            `json:"error"`
	BestFlights []json.RawMessage `json:"best_flights"`
	Properties  []json.RawMessage `json:"properties"`
}

// SerpAPIProvider implements Gateway against serpapi.com.
type SerpAPIProvider struct {
	cfg    config.SearchAPIConfig
	client *commonhttp.Client
	logger logger.Logger
}

func NewSerpAPIProvider(cfg config.SearchAPIConfig, client *commonhttp.Client, log logger.Logger) *SerpAPIProvider {
	if client == nil {
		client = commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond)
	}
	return &SerpAPIProvider{
		cfg:    cfg,
		client: client,
		logger: log.With(map[string]interface{}{
			"component": "serpapi",
		}),
	}
}

func (p *SerpAPIProvider) SearchFlights(ctx context.Context, req models.FlightRequest) ([]models.FlightInfo, error) {
	p.logger.Info("searching flights", map[string]interface{}{
		"origin":      req.Origin,
		"destination": req.Destination,
	})

	resp, err := p.run(ctx, DomainFlights, p.flightParams(req))
	if err != nil {
		return nil, err
	}
	if len(resp.BestFlights) == 0 {
		p.logger.Warn("no flights found in search results", nil)
		return []models.FlightInfo{}, nil
	}

	flights := make([]models.FlightInfo, 0, len(resp.BestFlights))
	for i, raw := range resp.BestFlights {
		flight, err := mapFlight(raw, req.ReturnDate)
		if err != nil {
			p.logger.Warn("skipping malformed flight", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			continue
		}
		flights = append(flights, flight)
	}

	p.logger.Info("flights found", map[string]interface{}{"count": len(flights)})
	return flights, nil
}

func (p *SerpAPIProvider) SearchHotels(ctx context.Context, req models.HotelRequest) ([]models.HotelInfo, error) {
	p.logger.Info("searching hotels", map[string]interface{}{
		"location": req.Location,
	})

	resp, err := p.run(ctx, DomainHotels, p.hotelParams(req))
	if err != nil {
		return nil, err
	}
	if len(resp.Properties) == 0 {
		p.logger.Warn("no hotels found in search results", nil)
		return []models.HotelInfo{}, nil
	}

	hotels := make([]models.HotelInfo, 0, len(resp.Properties))
	for i, raw := range resp.Properties {
		hotel, err := mapHotel(raw)
		if err != nil {
			p.logger.Warn("skipping malformed hotel", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			continue
		}
		hotels = append(hotels, hotel)
	}

	p.logger.Info("hotels found", map[string]interface{}{"count": len(hotels)})
	return hotels, nil
}

func (p *SerpAPIProvider) flightParams(req models.FlightRequest) url.Values {
	return url.Values{
		"api_key":       {p.cfg.APIKey},
		"engine":        {engineFlights},
		"hl":            {p.cfg.Language},
		"gl":            {p.cfg.Country},
		"departure_id":  {strings.ToUpper(strings.TrimSpace(req.Origin))},
		"arrival_id":    {strings.ToUpper(strings.TrimSpace(req.Destination))},
		"outbound_date": {req.OutboundDate},
		"return_date":   {req.ReturnDate},
		"currency":      {p.cfg.Currency},
	}
}

func (p *SerpAPIProvider) hotelParams(req models.HotelRequest) url.Values {
	return url.Values{
		"api_key":        {p.cfg.APIKey},
		"engine":         {engineHotels},
		"q":              {req.Location},
		"hl":             {p.cfg.Language},
		"gl":             {p.cfg.Country},
		"check_in_date":  {req.CheckInDate},
		"check_out_date": {req.CheckOutDate},
		"currency":       {p.cfg.Currency},
		"sort_by":        {strconv.Itoa(p.cfg.HotelSortBy)},
		"rating":         {strconv.Itoa(p.cfg.HotelMinRating)},
	}
}

func (p *SerpAPIProvider) run(ctx context.Context, domain Domain, params url.Values) (*serpResponse, error) {
	var resp serpResponse
	err := p.client.GetJSON(ctx, p.cfg.BaseURL, params, &resp)
	if err != nil {
		resp.Error = providerMessage(err)
	}
	if err != nil && resp.Error == "" {
		p.logger.Error("search request failed", map[string]interface{}{
			"domain": string(domain),
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%s search: %w", domain, err)
	}

	if resp.Error != "" {
		p.logger.Error("search provider returned an error", map[string]interface{}{
			"domain": string(domain),
			"error":  resp.Error,
		})
		return nil, &ProviderError{Domain: domain, Message: resp.Error}
	}
	return &resp, nil
}

// providerMessage extracts the SerpAPI error message from a non-2xx response. SerpAPI reports
// bad keys, bad parameters and exhausted quota that way.
func providerMessage(err error) string {
	var statusErr *commonhttp.StatusError
	if !errors.As(err, &statusErr) {
		return ""
	}
	var body serpResponse
	if json.Unmarshal([]byte(statusErr.Body), &body) != nil {
		return ""
	}
	return body.Error
}
