package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tverdal/venue-seat-booking/internal/utils"
)

// NewSession handles GET /v1/session.  It mints an anonymous session
// token a guest presents (via the X-Session-Token header) as their
// hold ownership key.  The token is not stored server-side – holding
// it is the only proof of ownership, which is all the advisory hold
// store needs.
func NewSession(c echo.Context) error {
	token, err := utils.NewSessionToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate session token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_token": token,
	})
}
