package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stores_api/internal/mykafka"
)

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{
		"code":    code,
		"message": message,
	})
}

// httpError carries the same {code, message} envelope as errorJSON for
// paths that return an error instead of writing the response themselves.
func httpError(status int, code, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, echo.Map{
		"code":    code,
		"message": message,
	})
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, httpError(http.StatusBadRequest, "bad_request", "invalid id")
	}
	return uint(id), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// publish logs delivery failures instead of failing the request; events are
// best-effort.
func publish(c echo.Context, p *mykafka.Producer, topic, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
