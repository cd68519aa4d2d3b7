package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems.  It returns a plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *database.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UserCounter is satisfied by repository.UserStore.
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Ready returns a readiness handler that reports 503 until the database
// answers.  With a non-nil users it also reports how many accounts exist,
// which doubles as a check that the schema is migrated.
func Ready(db Pinger, users UserCounter) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			zap.L().Warn("readiness check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "database unavailable"})
		}
		resp := echo.Map{"status": "ready"}
		if users != nil {
			n, err := users.Count(ctx)
			if err != nil {
				zap.L().Warn("readiness user count failed", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "database unavailable"})
			}
			resp["users"] = n
		}
		return c.JSON(http.StatusOK, resp)
	}
}
