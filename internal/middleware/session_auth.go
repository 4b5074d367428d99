package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/pkg/session"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Context keys set by SessionAuth
const (
	ContextUserKey    = "user"
	ContextSessionKey = "sessionKey"
)

// LoginURL is where anonymous users are sent
const LoginURL = "/accounts/login"

// SessionResolver returns the owner of a live session
type SessionResolver interface {
	ResolveSession(ctx context.Context, key string) (*models.User, error)
}

// SessionAuth reads the signed session cookie and loads the session owner
type SessionAuth struct {
	resolver   SessionResolver
	codec      *session.Codec
	cookieName string
	secure     bool
	log        *logrus.Logger
}

// NewSessionAuth creates a SessionAuth
func NewSessionAuth(resolver SessionResolver, codec *session.Codec, cookieName string, secure bool, log *logrus.Logger) *SessionAuth {
	return &SessionAuth{
		resolver:   resolver,
		codec:      codec,
		cookieName: cookieName,
		secure:     secure,
		log:        log,
	}
}

// Load attaches the current user to the context when the cookie names a live
// session. Requests without one pass through anonymously.
func (a *SessionAuth) Load() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(a.cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			key, err := a.codec.Decode(cookie.Value)
			if err != nil {
				a.ClearCookie(c)
				return next(c)
			}

			user, err := a.resolver.ResolveSession(c.Request().Context(), key)
			if err != nil {
				if !errors.Is(err, session.ErrInvalidToken) {
					a.log.WithError(err).Debug("Session not resolved")
				}
				a.ClearCookie(c)
				return next(c)
			}

			c.Set(ContextUserKey, user)
			c.Set(ContextSessionKey, key)
			return next(c)
		}
	}
}

// SetCookie writes the session cookie. Sessions without remember get a
// browser-session cookie.
func (a *SessionAuth) SetCookie(c echo.Context, s *models.Session) error {
	value, err := a.codec.Encode(s.Key, s.UserID, s.ExpireAt)
	if err != nil {
		return err
	}
	cookie := &http.Cookie{
		Name:     a.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.Remember {
		cookie.Expires = s.ExpireAt
	}
	c.SetCookie(cookie)
	return nil
}

// ClearCookie expires the session cookie
func (a *SessionAuth) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CurrentUser returns the logged-in user or nil
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(ContextUserKey).(*models.User)
	return user
}

// CurrentSessionKey returns the key of the current session or ""
func CurrentSessionKey(c echo.Context) string {
	key, _ := c.Get(ContextSessionKey).(string)
	return key
}

// RequireLogin redirects anonymous requests to the login page with a next parameter
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request().URL.RequestURI()))
			}
			return next(c)
		}
	}
}

// RequireStaff lets only staff through. Anonymous users are sent to login.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireLogin()(func(c echo.Context) error {
			if !CurrentUser(c).IsStaff {
				return echo.NewHTTPError(http.StatusForbidden, "Staff access required")
			}
			return next(c)
		})
	}
}
