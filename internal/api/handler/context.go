package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quickloan/lending-system/internal/api/middleware"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// ctxRequester extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both the subject and
// the role must be present, otherwise the token never went through the
// middleware (or carries no identity) and the request is rejected with 401.
func ctxRequester(c echo.Context) (ports.Requester, error) {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	if userID == "" || role == "" {
		return ports.Requester{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Requester{UserID: userID, Role: role}, nil
}
