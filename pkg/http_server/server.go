package http_server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

const internalErrorMessage = "Internal server error"

// StatusError maps a sentinel error, matched with errors.Is, to an HTTP status
type StatusError struct {
	Err  error
	Code int
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewApp builds a fiber app with CORS open to all origins, panic recovery and the
// request logger. Errors matching one of statuses are returned with that code and
// their message, fiber errors keep their own code, anything else is a 500 with a
// generic body.
func NewApp(statuses ...StatusError) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          NewErrorHandler(statuses...),
	})

	app.Use(NewLogger())
	app.Use(recover.New())
	app.Use(cors.New())

	return app
}

func NewErrorHandler(statuses ...StatusError) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		for _, status := range statuses {
			if errors.Is(err, status.Err) {
				return c.Status(status.Code).JSON(ErrorResponse{Error: err.Error()})
			}
		}

		var fiberError *fiber.Error
		if errors.As(err, &fiberError) {
			return c.Status(fiberError.Code).JSON(ErrorResponse{Error: fiberError.Message})
		}

		log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: internalErrorMessage})
	}
}

type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Polling any    `json:"polling,omitempty"`
}

// HealthHandler reports the service as up. polling may be nil when the process
// does not run the poller.
func HealthHandler(service string, polling func() any) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := Health{
			Status:  "UP",
			Service: service,
		}
		if polling != nil {
			health.Polling = polling()
		}

		return c.JSON(health)
	}
}

func MountMetrics(router fiber.Router, handler http.Handler) {
	router.Get("/metrics", adaptor.HTTPHandler(handler))
}
