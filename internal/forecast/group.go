package forecast

import (
	"strings"

	"github.com/bobby-s-dev/weather-lookup/internal/models"
)

// GroupByDay folds 3-hour samples into one summary per calendar day, keeping
// the lowest minimum and highest maximum seen. Days appear in the order they
// are first encountered. The day is the timestamp up to its first space; a
// timestamp without a space is used whole.
func GroupByDay(samples []models.ForecastSample) []models.DaySummary {
	days := make([]models.DaySummary, 0)
	index := make(map[string]int)

	for _, s := range samples {
		day, _, _ := strings.Cut(s.Timestamp, " ")

		i, seen := index[day]
		if !seen {
			index[day] = len(days)
			days = append(days, models.DaySummary{
				Day:     day,
				TempMin: s.TempMin,
				TempMax: s.TempMax,
			})
			continue
		}

		if s.TempMin < days[i].TempMin {
			days[i].TempMin = s.TempMin
		}
		if s.TempMax > days[i].TempMax {
			days[i].TempMax = s.TempMax
		}
	}

	return days
}
