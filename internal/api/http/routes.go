package httpapi

import (
	"errors"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frankdevcode/lp2-taller3/internal/store"
	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "weather-station-analysis"

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/stations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"stations": service.Stations()})
	})

	v1.Get("/stations/:id/analysis", func(c *fiber.Ctx) error {
		p, err := parseStationParams(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.Report(p.ID)
		if err != nil {
			return toHTTPError(err, "no analysis available for station "+p.ID)
		}
		return c.JSON(report)
	})

	v1.Get("/stations/:id/variables/:variable/chart", func(c *fiber.Ctx) error {
		p, err := parseStationParams(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if p.Variable == "" {
			return fiber.NewError(fiber.StatusBadRequest, "variable is required")
		}

		chart, err := service.Chart(p.ID, p.Variable)
		if err != nil {
			return toHTTPError(err, "no series "+p.Variable+" for station "+p.ID)
		}
		return c.JSON(chart)
	})

	v1.Post("/stations/:id/refresh", func(c *fiber.Ctx) error {
		p, err := parseStationParams(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.RefreshStation(c.UserContext(), p.ID)
		if err != nil {
			if errors.Is(err, weather.ErrUnknownStation) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, "failed to refresh station feed")
		}
		return c.JSON(report)
	})

	v1.Delete("/reports", func(c *fiber.Ctx) error {
		service.ClearReports()
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		summary := service.RefreshAll(c.UserContext())
		status := fiber.StatusOK
		if len(summary.Refreshed) == 0 && len(summary.Failed) > 0 {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(summary)
	})
}

// RegisterOpsRoutes wires the health and Prometheus endpoints.
func RegisterOpsRoutes(app *fiber.App, gatherer prometheus.Gatherer) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": ServiceName,
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// ErrorHandler renders every handler error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// stationParams holds the path parameters identifying a station variable.
type stationParams struct {
	ID       string `validate:"required,numeric"`
	Variable string
}

func parseStationParams(c *fiber.Ctx) (stationParams, error) {
	p := stationParams{ID: c.Params("id")}

	if raw := c.Params("variable"); raw != "" {
		v, err := url.PathUnescape(raw)
		if err != nil {
			return p, err
		}
		p.Variable = v
	}

	if err := validate.Struct(p); err != nil {
		return p, err
	}
	return p, nil
}

func toHTTPError(err error, notFound string) error {
	switch {
	case errors.Is(err, weather.ErrUnknownStation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, notFound)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to analyse station data")
	}
}
