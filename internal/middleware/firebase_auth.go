package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ContextFirebaseTokenKey holds a Firebase ID token taken from the Authorization header
const ContextFirebaseTokenKey = "firebaseIDToken"

// FirebaseBearer extracts a Firebase ID token sent as "Authorization: Bearer <token>".
// Requests without the header pass through so the token can come in the body instead.
func FirebaseBearer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			c.Set(ContextFirebaseTokenKey, tokenParts[1])
			return next(c)
		}
	}
}
