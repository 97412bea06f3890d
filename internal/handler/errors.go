package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kyiku/caritas-study-back/internal/logger"
)

// NewHTTPErrorHandler renders routing and unhandled errors in the
// {success:false, ...} envelope.
func NewHTTPErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			log.Error("unhandled error", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
			_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"success":   false,
				"error":     "サーバー内部エラー",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		body := map[string]interface{}{"success": false}
		switch he.Code {
		case http.StatusNotFound:
			body["error"] = "エンドポイントが見つかりません"
			body["path"] = c.Request().URL.Path
		case http.StatusInternalServerError:
			log.Error("internal error", "path", c.Request().URL.Path, "error", err)
			body["error"] = "サーバー内部エラー"
		default:
			body["error"] = http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok && msg != "" {
				body["error"] = msg
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, body)
	}
}
