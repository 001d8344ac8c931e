package maps

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"time"

	"googlemaps.github.io/maps"
)

// ErrNoRoute is returned when the routing provider finds no drivable
// route between the two points. Callers treat it differently from a
// provider outage: there is nothing to retry.
var ErrNoRoute = errors.New("no route between points")

// Route is a drivable route between two coordinates.
type Route struct {
	DistanceMeters  float64
	DurationSeconds int64
}

// Router resolves driving routes between coordinates.
type Router interface {
	Route(ctx context.Context, originLat, originLng, destLat, destLng float64) (Route, error)
}

// GoogleRouter implements Router using the Google Maps Directions API.
type GoogleRouter struct {
	client *maps.Client
}

// NewGoogleRouter creates a Router backed by Google Maps with the given API key.
func NewGoogleRouter(apiKey string) (*GoogleRouter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleRouter{client: client}, nil
}

const maxRetries = 2

// Route resolves the driving route between origin and destination.
// Transport failures are retried with jittered backoff; API-level
// failures (bad key, quota, no route) are not.
func (r *GoogleRouter) Route(ctx context.Context, originLat, originLng, destLat, destLng float64) (Route, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", originLat, originLng),
		Destination: fmt.Sprintf("%f,%f", destLat, destLng),
		Mode:        maps.TravelModeDriving,
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Route{}, ctx.Err()
			case <-time.After(retryDelay()):
			}
		}

		routes, _, err := r.client.Directions(ctx, req)
		if err != nil {
			lastErr = fmt.Errorf("maps api error: %w", err)
			if isTransportError(err) {
				continue
			}
			return Route{}, lastErr
		}

		if len(routes) == 0 || len(routes[0].Legs) == 0 {
			return Route{}, ErrNoRoute
		}

		var distance float64
		var duration time.Duration
		for _, leg := range routes[0].Legs {
			distance += float64(leg.Distance.Meters)
			duration += leg.Duration
		}
		return Route{
			DistanceMeters:  distance,
			DurationSeconds: int64(duration / time.Second),
		}, nil
	}

	return Route{}, lastErr
}

// retryDelay returns a jittered delay between 300ms and 700ms.
func retryDelay() time.Duration {
	return 300*time.Millisecond + time.Duration(rand.Int63n(int64(400*time.Millisecond)))
}

// isTransportError reports whether err is a network-level failure, as
// opposed to an API status the provider returned deliberately.
func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Ensure GoogleRouter implements Router.
var _ Router = (*GoogleRouter)(nil)
