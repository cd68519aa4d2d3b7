package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/contactbook/internal/repository"
	"github.com/iliyamo/contactbook/internal/utils"
)

const msgInternal = "internal server error"

// writeError renders err as {"message": ...} with the status its kind maps
// to.  Anything unrecognised is logged and reported as a generic 500.
func writeError(c echo.Context, err error) error {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"message": ve.msg})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"message": "Email is already registered"})
	case errors.Is(err, repository.ErrPhoneExists):
		return c.JSON(http.StatusConflict, echo.Map{"message": "this number is already registered"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "contact not found"})
	case errors.Is(err, repository.ErrConflictRetry):
		zap.L().Warn("transaction gave up after repeated deadlocks", zap.String("route", c.Path()))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "please try again"})
	case errors.Is(err, repository.ErrTenantRequired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	case errors.Is(err, utils.ErrSigningSecretMissing):
		zap.L().Error("session signing is not configured", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": msgInternal})
	default:
		zap.L().Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": msgInternal})
	}
}

// HTTPErrorHandler renders errors that escape handlers and middleware,
// including echo's own 404 and 405, in the same {"message": ...} shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = writeError(c, err)
		return
	}

	msg := http.StatusText(he.Code)
	switch he.Code {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusMethodNotAllowed:
		msg = "method not allowed"
	default:
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
	}
	if he.Code >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		msg = msgInternal
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, echo.Map{"message": msg})
}
