package logging

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger derives a per-request logger, stores it in the request's user
// context and writes one line per completed request.
func RequestLogger(base *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := base.With(
			"method", c.Method(),
			"path", c.Path(),
			"remote_ip", c.IP(),
		)
		if rid := c.GetRespHeader(fiber.HeaderXRequestID); rid != "" {
			l = l.With("request_id", rid)
		}
		c.SetUserContext(IntoContext(c.UserContext(), l))

		start := time.Now()
		err := c.Next()
		if err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		dur := time.Since(start).Milliseconds()

		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			l.Error("request completed", "status", status, "duration_ms", dur, "error", errStr(err))
		case status >= fiber.StatusBadRequest:
			l.Warn("request completed", "status", status, "duration_ms", dur)
		default:
			l.Info("request completed", "status", status, "duration_ms", dur, "bytes", len(c.Response().Body()))
		}
		return nil
	}
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
