package middleware

import (
	"time"

	"merkado/internal/infra/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger はecho.RequestIDの値をctxに載せてアクセスログを出す
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			ctx := logger.WithRequestID(req.Context(), id)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
			}
			if p, ok := PrincipalFrom(c); ok {
				fields = append(fields, zap.Int64("user_id", p.UserID), zap.String("role", string(p.Role)))
			}

			switch {
			case res.Status >= 500:
				logger.Error(ctx, log, "request", fields...)
			case res.Status >= 400:
				logger.Warn(ctx, log, "request", fields...)
			default:
				logger.Info(ctx, log, "request", fields...)
			}
			return nil
		}
	}
}
