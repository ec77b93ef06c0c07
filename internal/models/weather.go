package models

import (
	"encoding/json"
	"fmt"
)

// StatusCode is the "cod" field embedded in OpenWeatherMap bodies. The API
// sends it as a number on current-weather successes and as a string
// everywhere else, so both forms decode into the same string value.
type StatusCode string

const (
	StatusOK       StatusCode = "200"
	StatusNotFound StatusCode = "404"
)

func (s *StatusCode) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = StatusCode(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid status code %s: %w", data, err)
	}
	*s = StatusCode(n.String())
	return nil
}

func (s StatusCode) IsOK() bool {
	return s == StatusOK
}

func (s StatusCode) IsNotFound() bool {
	return s == StatusNotFound
}

// ForecastSample is one 3-hour forecast slot.
type ForecastSample struct {
	Timestamp string  `json:"dt_txt"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
}

// DaySummary holds the temperature range observed across all samples of a
// calendar day.
type DaySummary struct {
	Day     string  `json:"day"`
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`
}

// RecentSearchEntry is a remembered successful lookup.
type RecentSearchEntry struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type Conditions struct {
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// WeatherReport is the combined result of one lookup.
type WeatherReport struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Lat      float64      `json:"lat"`
	Lon      float64      `json:"lon"`
	Current  Conditions   `json:"current"`
	Forecast []DaySummary `json:"forecast"`
}
