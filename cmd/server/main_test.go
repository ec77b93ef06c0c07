package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobby-s-dev/weather-lookup/internal/config"
	"github.com/bobby-s-dev/weather-lookup/internal/history"
	"github.com/bobby-s-dev/weather-lookup/internal/services"
	"github.com/bobby-s-dev/weather-lookup/internal/storage"
	"github.com/bobby-s-dev/weather-lookup/pkg/client"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestNewAppServesHealth(t *testing.T) {
	cfg := config.Defaults()
	weatherClient := client.NewOpenWeatherClient("KEY", "http://127.0.0.1:0", client.ClientConfig{}, zap.NewNop())
	searches := history.NewRecentSearches(storage.NewMemoryStore(), cfg.RecentSearch.Limit, zap.NewNop())
	app := newApp(cfg, services.NewLookup(weatherClient, searches, zap.NewNop()), zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestErrorHandlerUsesFiberCode(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != fiber.StatusTeapot {
		t.Fatalf("expected status %d, got %d", fiber.StatusTeapot, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] != "short and stout" || out["success"] != false {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := newLogger("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
