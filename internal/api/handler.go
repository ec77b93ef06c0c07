package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weather-lookup/internal/models"
	"github.com/bobby-s-dev/weather-lookup/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

var startTime = time.Now()

type Handler struct {
	lookup *services.Lookup
	logger *zap.Logger
}

func NewHandler(lookup *services.Lookup, logger *zap.Logger) *Handler {
	return &Handler{
		lookup: lookup,
		logger: logger,
	}
}

// locationQuery is either zip or a lat/lon pair.
type locationQuery struct {
	Zip string `validate:"required_without_all=Lat Lon,excluded_with=Lat Lon"`
	Lat string `validate:"required_with=Lon,omitempty,latitude"`
	Lon string `validate:"required_with=Lat,omitempty,longitude"`
}

func parseLocationQuery(c *fiber.Ctx) (models.Location, error) {
	q := locationQuery{
		Zip: c.Query("zip"),
		Lat: c.Query("lat"),
		Lon: c.Query("lon"),
	}
	if err := validate.Struct(q); err != nil {
		return models.Location{}, err
	}

	if q.Zip != "" {
		return models.ZipLocation(q.Zip), nil
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return models.Location{}, err
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return models.Location{}, err
	}
	return models.CoordLocation(lat, lon), nil
}

// GetWeather handles GET /api/v1/weather
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Provide either zip or both lat and lon",
			"details": err.Error(),
		})
	}

	h.logger.Info("Looking up weather", zap.String("location", loc.String()))

	report, err := h.lookup.Lookup(c.UserContext(), loc)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(present(report))
}

// GetSearches handles GET /api/v1/searches
func (h *Handler) GetSearches(c *fiber.Ctx) error {
	entries, err := h.lookup.RecentSearches(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list recent searches", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to read recent searches",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"searches": entries,
	})
}

// GetSearchWeather handles GET /api/v1/searches/:id/weather
func (h *Handler) GetSearchWeather(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Search id must be an integer",
		})
	}

	report, err := h.lookup.LookupRecent(c.UserContext(), id)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(present(report))
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
		"stats":     h.lookup.GetStats(),
	})
}

func (h *Handler) lookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidLocation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid location",
			"details": err.Error(),
		})
	case errors.Is(err, services.ErrLocationNotFound), errors.Is(err, services.ErrSearchNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "No location data found!",
			"details": "Please try again",
		})
	case errors.Is(err, services.ErrUpstream):
		h.logger.Error("Weather lookup failed upstream", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to fetch weather data",
			"details": err.Error(),
		})
	default:
		h.logger.Error("Weather lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fetch weather data",
			"details": err.Error(),
		})
	}
}
