package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-lookup/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"
	Units                 = "imperial"

	forecastTimeLayout = "2006-01-02 15:04:05"
)

// Endpoint is an OpenWeatherMap route below the base URL.
type Endpoint string

const (
	EndpointWeather  Endpoint = "/weather"
	EndpointForecast Endpoint = "/forecast"
)

var ErrMalformedForecast = errors.New("malformed forecast sample")

type OpenWeatherClient struct {
	*BaseClient
	apiKey  string
	baseURL string
}

// Message is the provider's "message" field: text on errors, a number on
// forecast successes.
type Message string

func (m *Message) UnmarshalJSON(data []byte) error {
	var s models.StatusCode
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Message(s)
	return nil
}

type WeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type CurrentWeatherResponse struct {
	Cod     models.StatusCode `json:"cod"`
	Message Message           `json:"message"`
	ID      int64             `json:"id"`
	Name    string            `json:"name"`
	Coord   struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []WeatherCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Dt int64 `json:"dt"`
}

type ForecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []WeatherCondition `json:"weather"`
	DtTxt   string             `json:"dt_txt"`
}

type ForecastResponse struct {
	Cod     models.StatusCode `json:"cod"`
	Message Message           `json:"message"`
	Cnt     int               `json:"cnt"`
	List    []ForecastItem    `json:"list"`
	City    struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Country string `json:"country"`
	} `json:"city"`
}

func NewOpenWeatherClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	baseClient := NewBaseClient("openweather", config, logger)
	return &OpenWeatherClient{
		BaseClient: baseClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BuildURL returns the request URL for endpoint at loc. A ZIP code wins over
// coordinates when both are present.
func (c *OpenWeatherClient) BuildURL(endpoint Endpoint, loc models.Location) (string, error) {
	var suffix string
	switch {
	case loc.Zipcode != "":
		suffix = "zip=" + url.QueryEscape(loc.Zipcode)
	case loc.Coords != nil:
		suffix = "lat=" + strconv.FormatFloat(loc.Coords.Latitude, 'f', -1, 64) +
			"&lon=" + strconv.FormatFloat(loc.Coords.Longitude, 'f', -1, 64)
	default:
		return "", fmt.Errorf("%w: no zipcode or coordinates", models.ErrInvalidLocation)
	}

	params := url.Values{}
	params.Set("appid", c.apiKey)
	params.Set("units", Units)

	return fmt.Sprintf("%s%s?%s&%s", c.baseURL, endpoint, params.Encode(), suffix), nil
}

// Fetch calls endpoint for loc and decodes the JSON body into out. The
// embedded "cod" status is left for the caller to interpret.
func (c *OpenWeatherClient) Fetch(ctx context.Context, endpoint Endpoint, loc models.Location, out interface{}) error {
	reqURL, err := c.BuildURL(endpoint, loc)
	if err != nil {
		return err
	}

	resp, err := c.Get(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to parse %s response (HTTP %d): %w", endpoint, resp.StatusCode, err)
	}

	return nil
}

func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, loc models.Location) (*CurrentWeatherResponse, error) {
	var response CurrentWeatherResponse
	if err := c.Fetch(ctx, EndpointWeather, loc, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *OpenWeatherClient) GetForecast(ctx context.Context, loc models.Location) (*ForecastResponse, error) {
	var response ForecastResponse
	if err := c.Fetch(ctx, EndpointForecast, loc, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Entry is the recent-search record for this response.
func (r *CurrentWeatherResponse) Entry() models.RecentSearchEntry {
	return models.RecentSearchEntry{
		ID:   r.ID,
		Name: r.Name,
		Lat:  r.Coord.Lat,
		Lon:  r.Coord.Lon,
	}
}

func (r *CurrentWeatherResponse) Conditions() models.Conditions {
	conditions := models.Conditions{
		Temperature: r.Main.Temp,
		FeelsLike:   r.Main.FeelsLike,
		TempMin:     r.Main.TempMin,
		TempMax:     r.Main.TempMax,
		Humidity:    r.Main.Humidity,
		WindSpeed:   r.Wind.Speed,
	}
	if len(r.Weather) > 0 {
		conditions.Description = r.Weather[0].Description
		conditions.Icon = r.Weather[0].Icon
	}
	return conditions
}

// Samples converts the forecast list, rejecting any item whose dt_txt is not
// "YYYY-MM-DD HH:MM:SS".
func (r *ForecastResponse) Samples() ([]models.ForecastSample, error) {
	samples := make([]models.ForecastSample, 0, len(r.List))
	for i, item := range r.List {
		if _, err := time.Parse(forecastTimeLayout, item.DtTxt); err != nil {
			return nil, fmt.Errorf("%w: item %d has dt_txt %q", ErrMalformedForecast, i, item.DtTxt)
		}
		samples = append(samples, models.ForecastSample{
			Timestamp: item.DtTxt,
			TempMin:   item.Main.TempMin,
			TempMax:   item.Main.TempMax,
		})
	}
	return samples, nil
}
