package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const genericErrorText = "internal server error"

func dataBody(data interface{}) echo.Map {
	return echo.Map{"data": data}
}

func errorBody(message interface{}) echo.Map {
	return echo.Map{"error": message}
}

// newAppHTTPErrorHandler handles anything escaping the pipeline (echo routing
// 404/405, binding failures on malformed bodies, stray handler errors).
// signalShutdown is called to gracefully stop the server whenever a
// core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.BusinessError:
			code = origErr.Status
			message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = genericErrorText
			logger.Error(genericErrorText, err)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = errorBody(m)
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
