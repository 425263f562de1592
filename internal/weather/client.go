package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	currentURL  = "https://api.openweathermap.org/data/2.5/weather"
	forecastURL = "https://api.openweathermap.org/data/2.5/forecast"
)

// API is the provider contract consumed by the record service and the
// session controller.
type API interface {
	Current(ctx context.Context, location string) (Observation, error)
	Forecast(ctx context.Context, location string) ([]ForecastEntry, error)
}

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errNoAPIKey     = errors.New("openweather api key is not configured")
)

// Client fetches current conditions and the 5-day/3-hour forecast from
// OpenWeatherMap, with retries, exponential backoff, and a circuit breaker
// around outbound calls.
type Client struct {
	apiKey      string
	currentURL  string
	forecastURL string
	httpClient  *http.Client
	backoff     BackoffConfig
	circuit     *gobreaker.CircuitBreaker
}

// NewClient creates a Client using the given HTTP client for outbound calls.
func NewClient(httpClient *http.Client, apiKey string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:      apiKey,
		currentURL:  currentURL,
		forecastURL: forecastURL,
		httpClient:  httpClient,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
}

// Current fetches current conditions for a free-text location.
func (c *Client) Current(ctx context.Context, location string) (Observation, error) {
	resp, err := c.get(ctx, c.currentURL, location)
	if err != nil {
		return Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Observation{}, err
	}

	desc := ""
	if len(payload.Weather) > 0 {
		desc = payload.Weather[0].Description
	}

	return Observation{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Temp:        payload.Main.Temp,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		Description: desc,
	}, nil
}

// Forecast fetches the raw forecast list for a location and aggregates it
// into daily entries.
func (c *Client) Forecast(ctx context.Context, location string) ([]ForecastEntry, error) {
	resp, err := c.get(ctx, c.forecastURL, location)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []RawForecastItem `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return DailyForecast(payload.List), nil
}

func (c *Client) get(ctx context.Context, baseURL, location string) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, errNoAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := ResolveLocation(location)
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	return c.doWithResilience(ctx, buildRequest)
}

// doWithResilience executes the HTTP request with retries, exponential
// backoff, and the circuit breaker.
func (c *Client) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if c.httpClient == nil {
		return nil, errNoHTTPClient
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			// Handle rate limiting and server errors explicitly.
			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		// Backoff with exponential delay.
		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.backoff.MaxInterval && c.backoff.MaxInterval > 0 {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
			// continue to next attempt
		}

		attempt++
	}
}
