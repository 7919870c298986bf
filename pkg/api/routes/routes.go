package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/transittracker/pkg/query"
)

func RoutesRouter(router fiber.Router, service *query.Service) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(service.ListRoutes())
	})

	router.Get("/:routeId/directions", func(c *fiber.Ctx) error {
		directions, err := service.DirectionsOf(c.Params("routeId"))
		if err != nil {
			return err
		}

		return c.JSON(directions)
	})

	router.Get("/:routeId/directions/:directionId/stops", func(c *fiber.Ctx) error {
		directionID, err := directionParam(c)
		if err != nil {
			return err
		}

		stops, err := service.StopsOf(c.Params("routeId"), directionID)
		if err != nil {
			return err
		}

		return c.JSON(stops)
	})

	router.Get("/:routeId/directions/:directionId/stops/:stopId/arrivals", func(c *fiber.Ctx) error {
		directionID, err := directionParam(c)
		if err != nil {
			return err
		}

		arrivals, err := service.Arrivals(c.Params("routeId"), directionID, c.Params("stopId"))
		if err != nil {
			return err
		}

		return c.JSON(arrivals)
	})

	router.Get("/:routeId/vehicles", func(c *fiber.Ctx) error {
		stats, err := service.VehicleStats(c.Params("routeId"))
		if err != nil {
			return err
		}

		return c.JSON(stats)
	})
}

func directionParam(c *fiber.Ctx) (int, error) {
	directionID, err := c.ParamsInt("directionId")
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "directionId must be an integer")
	}

	return directionID, nil
}
