package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// OWMClient fetches current conditions from OpenWeather for a fixed
// coordinate pair. Calls go through a circuit breaker so a flapping upstream
// stops costing the polling cycle its timeout every 10 seconds.
type OWMClient struct {
	baseURL string
	apiKey  string
	lat     float64
	lon     float64
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

var _ WeatherClient = (*OWMClient)(nil)

func NewOWMClient(apiKey string, lat, lon float64) *OWMClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openweather",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &OWMClient{
		baseURL: "https://api.openweathermap.org",
		apiKey:  apiKey,
		lat:     lat,
		lon:     lon,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: cb,
	}
}

type owmCurrent struct {
	Name    string `json:"name"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Current returns current conditions. The rain flag is set when any reported
// condition group mentions "Rain", matching what the mobile client checked.
func (c *OWMClient) Current(ctx context.Context) (WeatherConditions, error) {
	if c.apiKey == "" {
		return WeatherConditions{}, fmt.Errorf("weather: missing api key")
	}

	out, err := c.breaker.Execute(func() (any, error) {
		url := fmt.Sprintf(
			"%s/data/2.5/weather?lat=%f&lon=%f&units=metric&appid=%s",
			c.baseURL, c.lat, c.lon, c.apiKey)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return nil, fmt.Errorf("weather: status %d: %s", resp.StatusCode, string(b))
		}
		var cur owmCurrent
		if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
			return nil, err
		}
		return cur, nil
	})
	if err != nil {
		return WeatherConditions{}, err
	}

	cur := out.(owmCurrent)
	cond := WeatherConditions{City: cur.Name, TempC: cur.Main.Temp}
	if len(cur.Weather) > 0 {
		cond.Main = cur.Weather[0].Main
	}
	for _, w := range cur.Weather {
		if strings.Contains(w.Main, "Rain") {
			cond.Raining = true
			break
		}
	}
	return cond, nil
}
