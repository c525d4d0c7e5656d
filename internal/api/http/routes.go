package httpapi

import (
	"errors"
	"log"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-search/internal/common"
	"github.com/i474232898/weather-search/internal/history"
	"github.com/i474232898/weather-search/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, store history.Store) {
	api := app.Group("/api")

	api.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is working")
	})

	// History routes come first so /weather/history is not taken as a city.
	api.Get("/weather/history", func(c *fiber.Ctx) error {
		cities, err := store.GetAll(c.UserContext())
		if err != nil {
			log.Printf("ERROR: read search history: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read search history")
		}
		return c.JSON(cities)
	})

	api.Post("/weather/history", func(c *fiber.Ctx) error {
		name, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		city, err := store.Add(c.UserContext(), name)
		if err != nil {
			return historyError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(city)
	})

	api.Delete("/weather/history/:id", func(c *fiber.Ctx) error {
		if err := store.Remove(c.UserContext(), c.Params("id")); err != nil {
			return historyError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Post("/weather", func(c *fiber.Ctx) error {
		name, err := parseCityRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.GetWeatherForCity(c.UserContext(), name)
		if err != nil {
			return weatherError(err)
		}

		// History is best-effort; a failed write does not fail the lookup.
		if _, err := store.Add(c.UserContext(), result.City); err != nil && !errors.Is(err, history.ErrDuplicateCity) {
			log.Printf("ERROR: record %q in search history: %v", result.City, err)
		}

		return c.JSON(result)
	})

	api.Get("/weather/:city", func(c *fiber.Ctx) error {
		city, err := url.PathUnescape(c.Params("city"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid city in path")
		}

		result, err := service.GetWeatherForCity(c.UserContext(), city)
		if err != nil {
			return weatherError(err)
		}
		return c.JSON(result)
	})
}

// cityRequest is the body of POST /api/weather and POST /api/weather/history.
// `city` is accepted for older clients.
type cityRequest struct {
	CityName string `json:"cityName" validate:"required_without=City"`
	City     string `json:"city" validate:"required_without=CityName"`
}

func parseCityRequest(c *fiber.Ctx) (string, error) {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return "", errors.New("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return "", errors.New("cityName is required")
	}

	if common.NormalizeCity(req.CityName) != "" {
		return req.CityName, nil
	}
	return req.City, nil
}

// weatherError maps a pipeline error kind onto an HTTP status. Provider-side
// details stay in the server log.
func weatherError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, "city name is required")
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "city not found")
	case errors.Is(err, weather.ErrProviderUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, weather.ErrProviderUnavailable.Error())
	case errors.Is(err, weather.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, weather.ErrMalformedResponse.Error())
	case errors.Is(err, weather.ErrInsufficientData):
		return fiber.NewError(fiber.StatusBadGateway, weather.ErrInsufficientData.Error())
	default:
		log.Printf("ERROR: unexpected weather error: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}

func historyError(err error) error {
	switch {
	case errors.Is(err, history.ErrInvalidName):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, history.ErrDuplicateCity):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, history.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		log.Printf("ERROR: search history: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update search history")
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
