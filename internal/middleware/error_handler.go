package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
)

// CustomErrorHandler creates a custom error handler for Echo. Application
// errors carry their own status mapping; the detail for authentication and
// persistence failures stays in the server log and the client gets a generic
// message.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	if _, ok := apperrors.KindOf(err); ok {
		code = apperrors.HTTPStatus(err)
		message = apperrors.PublicMessage(err)
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			switch code {
			case http.StatusNotFound:
				message = "The resource you're looking for doesn't exist."
			case http.StatusForbidden:
				message = "You don't have permission to access this resource."
			case http.StatusUnauthorized:
				message = "Please log in to continue."
			case http.StatusBadRequest:
				message = "The request could not be processed."
			}
		}
	}

	// Log the error; the response only carries the public message
	c.Logger().Error(err)

	if err := c.JSON(code, map[string]string{"error": message}); err != nil {
		c.Logger().Error(err)
	}
}
