package middleware

// identity.go holds helpers that read the caller identity JWTAuth stored in
// the Echo context.  Public routes have no identity; they are keyed as
// "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// StaffID returns the authenticated staff id, if any.
func StaffID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxStaffID).(uint64)
	return id, ok && id != 0
}

// principal is the caller as used in rate-limit keys.
func principal(c echo.Context) string {
	if id, ok := StaffID(c); ok {
		return "staff-" + strconv.FormatUint(id, 10)
	}
	return "anon"
}
