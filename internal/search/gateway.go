// internal/search/gateway.go
package search

import (
	"context"
	"errors"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/models"
)

// Domain names one kind of listing search.
type Domain string

const (
	DomainFlights Domain = "flights"
	DomainHotels  Domain = "hotels"
)

// Gateway runs one blocking search per call against the listing provider.
type Gateway interface {
	SearchFlights(ctx context.Context, req models.FlightRequest) ([]models.FlightInfo, error)
	SearchHotels(ctx context.Context, req models.HotelRequest) ([]models.HotelInfo, error)
}

// ProviderError is an error the search provider reported in its response body.
type ProviderError struct {
	Domain  Domain
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Classify maps a search failure onto the shared error codes.
func Classify(domain Domain, err error) *apperrors.StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := apperrors.As(err); ok {
		return stdErr
	}

	var providerErr *ProviderError
	switch {
	case errors.As(err, &providerErr):
		return apperrors.NewSearchProviderError(string(domain), err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewSearchTimeoutError(string(domain), err)
	default:
		return apperrors.NewSearchRequestFailedError(string(domain), err)
	}
}
