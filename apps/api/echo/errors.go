package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/calendar"
	"github.com/escolado/escolado/core/discipline"
	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/inventory"
	"github.com/escolado/escolado/core/school"
	"github.com/escolado/escolado/core/staff"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "staff member not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			code, message = statusForDomainError(origErr)
			if code == http.StatusInternalServerError {
				var stf staff.Staff
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					stf.ID = claims.Subject
					stf.Username = claims.Username
					stf.Email = claims.Email
				}
				logger.Error(message.(string), errors.Wrap(err, message.(string)), stf)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
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

// statusForDomainError maps the domain sentinel errors to their HTTP codes:
// conflicting state -> 409, missing record -> 404, anything else is a
// server error.
func statusForDomainError(err error) (int, interface{}) {
	switch err {
	case inventory.ErrInsufficientStock, inventory.ErrAlreadyReturned:
		return http.StatusConflict, err.Error()
	case staff.ErrNotFound,
		school.ErrNotFound,
		inventory.ErrResourceNotFound,
		inventory.ErrLoanNotFound,
		attendance.ErrNotFound,
		discipline.ErrSuspensionNotFound,
		discipline.ErrWarningNotFound,
		gradebook.ErrNotFound,
		calendar.ErrEventNotFound,
		calendar.ErrActivityNotFound,
		calendar.ErrNotificationNotFound:
		return http.StatusNotFound, err.Error()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
