package api

import (
	"fmt"
	"math"
	"time"

	"github.com/bobby-s-dev/weather-lookup/internal/models"
)

const dayLabelLayout = "Monday, Jan 2"

type currentView struct {
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
	Temperature int     `json:"temperature"`
	Low         int     `json:"low"`
	High        int     `json:"high"`
	Humidity    float64 `json:"humidity"`
	Headline    string  `json:"headline"`
	Range       string  `json:"range"`
}

type dayView struct {
	Day   string `json:"day"`
	Label string `json:"label"`
	Low   int    `json:"low"`
	High  int    `json:"high"`
}

type reportView struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Lat      float64     `json:"lat"`
	Lon      float64     `json:"lon"`
	Current  currentView `json:"current"`
	Forecast []dayView   `json:"forecast"`
}

func present(r *models.WeatherReport) reportView {
	view := reportView{
		ID:    r.ID,
		Title: r.Name,
		Lat:   r.Lat,
		Lon:   r.Lon,
		Current: currentView{
			Icon:        r.Current.Icon,
			Description: r.Current.Description,
			Temperature: roundTemp(r.Current.Temperature),
			Low:         roundTemp(r.Current.TempMin),
			High:        roundTemp(r.Current.TempMax),
			Humidity:    r.Current.Humidity,
			Headline:    fmt.Sprintf("%d°F", roundTemp(r.Current.Temperature)),
			Range:       fmt.Sprintf("Low: %d°F High: %d°F", roundTemp(r.Current.TempMin), roundTemp(r.Current.TempMax)),
		},
		Forecast: make([]dayView, 0, len(r.Forecast)),
	}

	for _, d := range r.Forecast {
		view.Forecast = append(view.Forecast, dayView{
			Day:   d.Day,
			Label: dayLabel(d.Day),
			Low:   roundTemp(d.TempMin),
			High:  roundTemp(d.TempMax),
		})
	}

	return view
}

// roundTemp rounds halves up, so -2.5 becomes -2.
func roundTemp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func dayLabel(day string) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day
	}
	return t.Format(dayLabelLayout)
}
