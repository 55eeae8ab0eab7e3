package middleware

// identity.go derives the opaque holder key used for seat hold
// ownership.  Authenticated callers get a stable "user:<id>" key from
// their JWT subject; anonymous guests supply a session token (minted
// by GET /v1/session) in the X-Session-Token header and the raw token
// itself becomes the key.  The hold store never parses holder keys –
// it only compares them byte-for-byte – so the two namespaces cannot
// collide as long as session tokens are hex strings.

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// sessionTokenHeader carries the anonymous guest session token.
const sessionTokenHeader = "X-Session-Token"

// HolderKey extracts the hold ownership key from the request.  The
// JWT context value (set by JWTAuth) wins over the session header; an
// empty string means the caller presented no identity at all and may
// not place or release holds.
func HolderKey(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		switch t := v.(type) {
		case string:
			if t != "" {
				return "user:" + t
			}
		case float64:
			return fmt.Sprintf("user:%.0f", t)
		}
	}
	// Some routes keep the raw parsed token under "user" instead of
	// the flattened claims; honor that form too.
	if u := c.Get("user"); u != nil {
		if tok, ok := u.(*jwt.Token); ok {
			if cl, ok := tok.Claims.(jwt.MapClaims); ok {
				if v, ok := cl["sub"].(string); ok && v != "" {
					return "user:" + v
				}
			}
		}
	}
	return c.Request().Header.Get(sessionTokenHeader)
}
