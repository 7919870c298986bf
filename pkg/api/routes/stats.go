package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/transittracker/pkg/api/stats"
)

func Stats(sources stats.Sources) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(sources.Current())
	}
}
