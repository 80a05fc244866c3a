package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type WeatherConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// WeatherTool reports current conditions (or a short forecast) from
// weatherapi.com.
type WeatherTool struct {
	config WeatherConfig
	client *http.Client
}

func NewWeatherTool(config WeatherConfig) *WeatherTool {
	if config.BaseURL == "" {
		config.BaseURL = "http://api.weatherapi.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &WeatherTool{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (t *WeatherTool) Name() string {
	return "weather"
}

func (t *WeatherTool) Description() string {
	return "Get current weather information for any location. Input should be a city name, optionally followed by '|<days>' for a forecast."
}

func (t *WeatherTool) Invoke(ctx context.Context, input string) (string, error) {
	if t.config.APIKey == "" {
		return "Weather API key not configured. Please set WEATHER_API_KEY.", nil
	}

	location := strings.TrimSpace(input)
	days := 0
	if i := strings.IndexByte(location, '|'); i >= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(location[i+1:])); err == nil {
			days = n
		}
		location = strings.TrimSpace(location[:i])
	}
	if location == "" {
		location = "Dhaka"
	}

	if days > 0 {
		return t.forecast(ctx, location, days)
	}
	return t.current(ctx, location)
}

type weatherReply struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		TempF     float64 `json:"temp_f"`
		FeelsLike float64 `json:"feelslike_c"`
		Humidity  int     `json:"humidity"`
		WindKPH   float64 `json:"wind_kph"`
		UV        float64 `json:"uv"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC     float64 `json:"maxtemp_c"`
				MinTempC     float64 `json:"mintemp_c"`
				ChanceOfRain string  `json:"daily_chance_of_rain"`
				MaxWindKPH   float64 `json:"maxwind_kph"`
				Condition    struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (t *WeatherTool) current(ctx context.Context, location string) (string, error) {
	reply, err := t.fetch(ctx, "/current.json", url.Values{
		"key": {t.config.APIKey},
		"q":   {location},
		"aqi": {"yes"},
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Current weather in %s, %s:\n"+
			"- Temperature: %.1f°C (%.1f°F)\n"+
			"- Feels like: %.1f°C\n"+
			"- Condition: %s\n"+
			"- Humidity: %d%%\n"+
			"- Wind: %.1f km/h\n"+
			"- UV Index: %.1f",
		reply.Location.Name, reply.Location.Country,
		reply.Current.TempC, reply.Current.TempF,
		reply.Current.FeelsLike,
		reply.Current.Condition.Text,
		reply.Current.Humidity,
		reply.Current.WindKPH,
		reply.Current.UV,
	), nil
}

func (t *WeatherTool) forecast(ctx context.Context, location string, days int) (string, error) {
	if days > 10 {
		days = 10
	}

	reply, err := t.fetch(ctx, "/forecast.json", url.Values{
		"key":  {t.config.APIKey},
		"q":    {location},
		"days": {strconv.Itoa(days)},
		"aqi":  {"yes"},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather forecast for %s, %s:\n", reply.Location.Name, reply.Location.Country)
	for _, day := range reply.Forecast.ForecastDay {
		fmt.Fprintf(&b, "%s: %.1f°C / %.1f°C, %s, rain %s%%, wind up to %.1f km/h\n",
			day.Date,
			day.Day.MaxTempC, day.Day.MinTempC,
			day.Day.Condition.Text,
			day.Day.ChanceOfRain,
			day.Day.MaxWindKPH)
	}
	return b.String(), nil
}

func (t *WeatherTool) fetch(ctx context.Context, endpoint string, params url.Values) (*weatherReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.config.BaseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("invalid weather API key")
	case http.StatusBadRequest:
		return nil, fmt.Errorf("location %q not found", params.Get("q"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var reply weatherReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("failed to decode weather reply: %w", err)
	}
	return &reply, nil
}
