package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/skycast-ai/skycast/internal/export"
	"github.com/skycast-ai/skycast/internal/records"
	"github.com/skycast-ai/skycast/internal/session"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *records.Service, controller *session.Controller) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		location, err := requireLocation(c)
		if err != nil {
			return err
		}

		rec, obs, err := service.CreateCurrent(c.UserContext(), location)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch current weather")
		}

		return c.JSON(fiber.Map{
			"error":  false,
			"data":   obs,
			"record": rec,
		})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		location, err := requireLocation(c)
		if err != nil {
			return err
		}

		fc, err := service.Forecast(c.UserContext(), location)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch forecast")
		}

		return c.JSON(fiber.Map{
			"error":    false,
			"forecast": fc,
		})
	})

	v1.Get("/records", func(c *fiber.Ctx) error {
		sortByTemp := c.QueryBool("sort", false)

		recs, err := service.List(c.UserContext(), sortByTemp)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list records")
		}

		return c.JSON(fiber.Map{
			"count":   len(recs),
			"records": recs,
		})
	})

	v1.Put("/records/:id", func(c *fiber.Ctx) error {
		id, err := parseRecordID(c)
		if err != nil {
			return err
		}

		desc := c.Query("desc")
		if desc == "" {
			return fiber.NewError(fiber.StatusBadRequest, "desc query parameter is required")
		}

		if _, err := service.UpdateDescription(c.UserContext(), id, desc); err != nil {
			if errors.Is(err, records.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Record not found.")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update record")
		}

		return c.JSON(fiber.Map{
			"error":   false,
			"message": "Updated successfully.",
		})
	})

	v1.Delete("/records/:id", func(c *fiber.Ctx) error {
		id, err := parseRecordID(c)
		if err != nil {
			return err
		}

		deleted, err := service.DeleteOne(c.UserContext(), id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete record")
		}

		return c.JSON(fiber.Map{"deleted": deleted})
	})

	v1.Post("/records/delete_batch", func(c *fiber.Ctx) error {
		ids, err := parseIDsParam(c.Query("ids"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid ids parameter.")
		}

		result := service.DeleteBatch(c.UserContext(), ids)

		return c.JSON(fiber.Map{
			"error":  false,
			"result": result,
		})
	})

	createRange := func(c *fiber.Ctx) error {
		var req rangeQuery
		req.Location = c.Query("location")
		req.StartDate = c.Query("start_date")
		req.EndDate = c.Query("end_date")

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		count, err := service.CreateRange(c.UserContext(), req.Location, req.StartDate, req.EndDate)
		if err != nil {
			if errors.Is(err, records.ErrInvalidInput) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}

		return c.JSON(fiber.Map{
			"error":   false,
			"message": fmt.Sprintf("Created %d records for %s between %s and %s.", count, req.Location, req.StartDate, req.EndDate),
		})
	}
	v1.Post("/records/range", createRange)
	v1.Get("/records/range", createRange)

	v1.Get("/export/:format", func(c *fiber.Ctx) error {
		exp, err := export.ByFormat(c.Params("format"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		recs, err := service.List(c.UserContext(), false)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list records")
		}
		if len(recs) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "No records found to export.")
		}

		data, err := exp.Encode(recs)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "export failed")
		}

		c.Set(fiber.HeaderContentType, exp.ContentType())
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "weather_records."+exp.Format()))
		return c.Send(data)
	})

	v1.Post("/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sid := req.SessionID
		if sid == "" {
			sid = session.NewID()
		}

		reply := controller.HandleMessage(c.UserContext(), sid, req.Message)
		return c.JSON(chatResponse{SessionID: sid, Reply: reply})
	})

	v1.Post("/chat/action", func(c *fiber.Ctx) error {
		var req actionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reply := controller.HandleAction(c.UserContext(), req.SessionID, session.Action(req.Action))
		return c.JSON(chatResponse{SessionID: req.SessionID, Reply: reply})
	})
}

// chatRequest is one free-text turn. A missing session id starts a new
// conversation.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" validate:"required"`
}

// actionRequest is one explicit menu selection.
type actionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Action    string `json:"action" validate:"required"`
}

type chatResponse struct {
	SessionID string        `json:"session_id"`
	Reply     session.Reply `json:"reply"`
}

// rangeQuery holds query parameters for the range-creation endpoint.
type rangeQuery struct {
	Location  string `validate:"required"`
	StartDate string `validate:"required"`
	EndDate   string `validate:"required"`
}

func requireLocation(c *fiber.Ctx) (string, error) {
	location := c.Query("location")
	if location == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "location query parameter is required")
	}
	return location, nil
}

func parseRecordID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "record id must be an integer")
	}
	return id, nil
}

// parseIDsParam parses the strict comma-separated ids form used by the batch
// endpoint; unlike the chat flow it rejects the whole parameter on any bad
// token.
func parseIDsParam(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("no ids provided")
	}
	return ids, nil
}
