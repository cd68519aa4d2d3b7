package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request to the global zap
// logger.  Query strings and cookies are not logged.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.String("route", v.RoutePath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if tenant := TenantID(c); tenant != "" {
				fields = append(fields, zap.String("tenant_id", tenant))
			}
			switch {
			case v.Error != nil && v.Status >= 500:
				zap.L().Error("request", append(fields, zap.Error(v.Error))...)
			case v.Status >= 500:
				zap.L().Error("request", fields...)
			default:
				zap.L().Info("request", fields...)
			}
			return nil
		},
	})
}
