package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-lookup/internal/forecast"
	"github.com/bobby-s-dev/weather-lookup/internal/models"
	"github.com/bobby-s-dev/weather-lookup/pkg/client"
	"go.uber.org/zap"
)

var (
	ErrLocationNotFound = errors.New("no location data found")
	ErrUpstream         = errors.New("weather provider unavailable")
	ErrSearchNotFound   = errors.New("recent search not found")
)

type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, loc models.Location) (*client.CurrentWeatherResponse, error)
	GetForecast(ctx context.Context, loc models.Location) (*client.ForecastResponse, error)
}

type SearchLog interface {
	List(ctx context.Context) ([]models.RecentSearchEntry, error)
	Add(ctx context.Context, entry models.RecentSearchEntry) error
	Find(ctx context.Context, id int64) (models.RecentSearchEntry, bool, error)
}

// Lookup resolves a location into a WeatherReport and remembers successful
// searches.
type Lookup struct {
	client  WeatherClient
	history SearchLog
	logger  *zap.Logger

	mu           sync.RWMutex
	lastLookup   time.Time
	successCount int
	failureCount int
}

func NewLookup(weatherClient WeatherClient, history SearchLog, logger *zap.Logger) *Lookup {
	return &Lookup{
		client:  weatherClient,
		history: history,
		logger:  logger,
	}
}

// Lookup fetches current conditions and the forecast for loc concurrently.
// The search is recorded as soon as current conditions resolve, even if the
// forecast later fails.
func (l *Lookup) Lookup(ctx context.Context, loc models.Location) (*models.WeatherReport, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	report, err := l.lookup(ctx, loc)

	l.mu.Lock()
	l.lastLookup = time.Now()
	if err != nil {
		l.failureCount++
	} else {
		l.successCount++
	}
	l.mu.Unlock()

	return report, err
}

func (l *Lookup) lookup(ctx context.Context, loc models.Location) (*models.WeatherReport, error) {
	startTime := time.Now()

	var (
		wg          sync.WaitGroup
		current     *client.CurrentWeatherResponse
		forecastRes *client.ForecastResponse
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = l.client.GetCurrentWeather(ctx, loc)
	}()
	go func() {
		defer wg.Done()
		forecastRes, forecastErr = l.client.GetForecast(ctx, loc)
	}()
	wg.Wait()

	if currentErr != nil {
		l.logger.Error("Current weather fetch failed",
			zap.String("location", loc.String()),
			zap.Error(currentErr))
		return nil, fmt.Errorf("%w: current weather: %w", ErrUpstream, currentErr)
	}
	if err := l.checkStatus("current weather", loc, current.Cod, current.Message); err != nil {
		return nil, err
	}

	if err := l.history.Add(ctx, current.Entry()); err != nil {
		l.logger.Warn("Failed to record recent search",
			zap.Int64("id", current.ID),
			zap.Error(err))
	}

	if forecastErr != nil {
		l.logger.Error("Forecast fetch failed",
			zap.String("location", loc.String()),
			zap.Error(forecastErr))
		return nil, fmt.Errorf("%w: forecast: %w", ErrUpstream, forecastErr)
	}
	if err := l.checkStatus("forecast", loc, forecastRes.Cod, forecastRes.Message); err != nil {
		return nil, err
	}

	samples, err := forecastRes.Samples()
	if err != nil {
		return nil, fmt.Errorf("%w: forecast: %w", ErrUpstream, err)
	}

	report := &models.WeatherReport{
		ID:       current.ID,
		Name:     current.Name,
		Lat:      current.Coord.Lat,
		Lon:      current.Coord.Lon,
		Current:  current.Conditions(),
		Forecast: forecast.GroupByDay(samples),
	}

	l.logger.Info("Lookup completed",
		zap.String("location", loc.String()),
		zap.String("name", report.Name),
		zap.Int("days", len(report.Forecast)),
		zap.Duration("duration", time.Since(startTime)))

	return report, nil
}

// checkStatus maps the embedded "cod" of a decoded body. Only "200" is a
// success; "404" means the location is unknown and anything else is an
// upstream rejection such as a bad API key.
func (l *Lookup) checkStatus(what string, loc models.Location, cod models.StatusCode, message client.Message) error {
	switch {
	case cod.IsOK():
		return nil
	case cod.IsNotFound():
		l.logger.Info("Location not found",
			zap.String("location", loc.String()),
			zap.String("message", string(message)))
		return fmt.Errorf("%w: %s", ErrLocationNotFound, loc)
	default:
		l.logger.Error("Provider rejected request",
			zap.String("location", loc.String()),
			zap.String("endpoint", what),
			zap.String("cod", string(cod)),
			zap.String("message", string(message)))
		return fmt.Errorf("%w: %s: cod %q: %s", ErrUpstream, what, cod, message)
	}
}

// LookupRecent repeats a lookup using the coordinates remembered for id.
func (l *Lookup) LookupRecent(ctx context.Context, id int64) (*models.WeatherReport, error) {
	entry, found, err := l.history.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrSearchNotFound, id)
	}

	return l.Lookup(ctx, models.CoordLocation(entry.Lat, entry.Lon))
}

func (l *Lookup) RecentSearches(ctx context.Context) ([]models.RecentSearchEntry, error) {
	return l.history.List(ctx)
}

func (l *Lookup) GetStats() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return map[string]interface{}{
		"last_lookup_time": l.lastLookup,
		"success_count":    l.successCount,
		"failure_count":    l.failureCount,
	}
}
