package http_server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

func newTestApp() *fiber.App {
	app := NewApp(StatusError{Err: errMissing, Code: fiber.StatusNotFound})

	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("%w: thing 7", errMissing)
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return errors.New("database password is hunter2")
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, ErrorResponse) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(body, &response))

	return resp.StatusCode, response
}

func TestErrorHandlerMapsSentinels(t *testing.T) {
	app := newTestApp()

	code, response := get(t, app, "/missing")
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "missing: thing 7", response.Error)
}

func TestErrorHandlerKeepsFiberCodes(t *testing.T) {
	app := newTestApp()

	code, response := get(t, app, "/teapot")
	assert.Equal(t, fiber.StatusTeapot, code)
	assert.Equal(t, "short and stout", response.Error)

	code, _ = get(t, app, "/nowhere")
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := newTestApp()

	code, response := get(t, app, "/broken")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, internalErrorMessage, response.Error)

	code, response = get(t, app, "/panic")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, internalErrorMessage, response.Error)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	app := newTestApp()
	app.Get("/health", HealthHandler("tracker", nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.org")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	app := newTestApp()
	app.Get("/health", HealthHandler("tracker", nil))
	app.Get("/health/polling", HealthHandler("ingest", func() any {
		return map[string]any{"totalPolls": 3}
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"UP","service":"tracker"}`, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health/polling", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"UP","service":"ingest","polling":{"totalPolls":3}}`, string(body))
}

func TestMountMetrics(t *testing.T) {
	app := newTestApp()
	MountMetrics(app, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tracker_polls_total 4\n"))
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "tracker_polls_total 4")
}

func TestLoggerFallsBackWhenErrorHandlerFails(t *testing.T) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			c.Status(fiber.StatusTeapot)
			return errors.New("cannot render error")
		},
	})
	app.Use(NewLogger())
	app.Get("/broken", func(c *fiber.Ctx) error {
		return errors.New("handler broke")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
