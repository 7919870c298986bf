package routes

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/transittracker/pkg/query"
)

func SearchRouter(router fiber.Router, service *query.Service) {
	router.Get("/routes", func(c *fiber.Ctx) error {
		limit, err := limitQuery(c)
		if err != nil {
			return err
		}

		results, err := service.SearchRoutes(c.Query("q"), limit)
		if err != nil {
			return err
		}

		return c.JSON(results)
	})

	router.Get("/stops", func(c *fiber.Ctx) error {
		limit, err := limitQuery(c)
		if err != nil {
			return err
		}

		routeID := c.Query("routeId")
		if routeID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "routeId is required")
		}

		directionID, err := strconv.Atoi(c.Query("directionId"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "directionId must be an integer")
		}

		results, err := service.SearchStops(c.Query("q"), routeID, directionID, limit)
		if err != nil {
			return err
		}

		return c.JSON(results)
	})
}

func limitQuery(c *fiber.Ctx) (int, error) {
	limit, err := query.ParseLimit(c.Query("limit"))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "limit must be an integer")
	}

	return limit, nil
}
