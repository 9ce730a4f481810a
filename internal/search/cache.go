// internal/search/cache.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"travel-planner/internal/common/logger"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/models"
)

const cacheKeyPrefix = "travel:"

// CachedGateway is a read-through Redis cache in front of another Gateway.
// Only successful listing sets are stored; cache failures fall through to the provider.
type CachedGateway struct {
	next   Gateway
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedGateway(next Gateway, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedGateway {
	return &CachedGateway{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		logger: log.With(map[string]interface{}{
			"component": "search-cache",
		}),
	}
}

func (c *CachedGateway) SearchFlights(ctx context.Context, req models.FlightRequest) ([]models.FlightInfo, error) {
	key := FlightCacheKey(req)

	var cached []models.FlightInfo
	if c.lookup(ctx, DomainFlights, key, &cached) {
		return cached, nil
	}

	flights, err := c.next.SearchFlights(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(flights) > 0 {
		c.store(ctx, key, flights)
	}
	return flights, nil
}

func (c *CachedGateway) SearchHotels(ctx context.Context, req models.HotelRequest) ([]models.HotelInfo, error) {
	key := HotelCacheKey(req)

	var cached []models.HotelInfo
	if c.lookup(ctx, DomainHotels, key, &cached) {
		return cached, nil
	}

	hotels, err := c.next.SearchHotels(ctx, req)
	if err != nil {
		return nil, err
	}
	// An empty answer is often transient and must not pin a failed branch for the whole TTL.
	if len(hotels) > 0 {
		c.store(ctx, key, hotels)
	}
	return hotels, nil
}

// FlightCacheKey normalises a flight request the same way the provider query does.
func FlightCacheKey(req models.FlightRequest) string {
	return fmt.Sprintf("%sflights:%s:%s:%s:%s", cacheKeyPrefix,
		strings.ToUpper(strings.TrimSpace(req.Origin)),
		strings.ToUpper(strings.TrimSpace(req.Destination)),
		req.OutboundDate, req.ReturnDate)
}

func HotelCacheKey(req models.HotelRequest) string {
	return fmt.Sprintf("%shotels:%s:%s:%s", cacheKeyPrefix,
		strings.ToLower(strings.TrimSpace(req.Location)),
		req.CheckInDate, req.CheckOutDate)
}

func (c *CachedGateway) lookup(ctx context.Context, domain Domain, key string, out interface{}) bool {
	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.SearchCacheTotal.WithLabelValues(string(domain), "miss").Inc()
		return false
	case err != nil:
		metrics.SearchCacheTotal.WithLabelValues(string(domain), "error").Inc()
		c.logger.Warn("cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.SearchCacheTotal.WithLabelValues(string(domain), "error").Inc()
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	metrics.SearchCacheTotal.WithLabelValues(string(domain), "hit").Inc()
	return true
}

func (c *CachedGateway) store(ctx context.Context, key string, listings interface{}) {
	data, err := json.Marshal(listings)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
