package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/regional-voices/backend/internal/middleware"
	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/anonto42/regional-voices/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	identity *services.IdentityService
	sessions *middleware.SessionAuth
	log      *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(identity *services.IdentityService, sessions *middleware.SessionAuth, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		sessions: sessions,
		log:      log,
	}
}

// RegisterAuthRoutes registers authentication-related routes. limiter guards credential posts.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, limiter echo.MiddlewareFunc) {
	g.GET("/register", h.RegisterPage)
	g.POST("/register", h.Register, limiter)
	g.GET("/accounts/login", h.LoginPage)
	g.POST("/accounts/login", h.Login, limiter)
	g.POST("/accounts/logout", h.Logout)
	if h.identity.FirebaseEnabled() {
		g.POST("/accounts/firebase-login", h.FirebaseLogin, limiter, middleware.FirebaseBearer())
	}
}

// RegisterPage renders the empty registration form
func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, "registration/register", echo.Map{
		"form":   models.RegisterForm{},
		"errors": noErrors(),
	})
}

// Register creates the account and sends the user to the login page
func (h *AuthHandler) Register(c echo.Context) error {
	var form models.RegisterForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if _, err := h.identity.Register(c.Request().Context(), form); err != nil {
		if fields, ok := validationFields(err); ok {
			form.Password, form.Confirm = "", ""
			return c.Render(http.StatusOK, "registration/register", echo.Map{
				"form":   form,
				"errors": fields,
			})
		}
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, middleware.LoginURL)
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "registration/login", h.loginData(c.QueryParam("next"), "", noErrors()))
}

// Login authenticates and sets the session cookie
func (h *AuthHandler) Login(c echo.Context) error {
	var form models.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	_, session, err := h.identity.Authenticate(c.Request().Context(), form.Handle, form.Password, form.RememberMe)
	if err != nil {
		var authErr *services.AuthError
		if errors.As(err, &authErr) {
			return c.Render(http.StatusOK, "registration/login",
				h.loginData(form.Next, form.Handle, map[string]string{"__all__": authErr.Message}))
		}
		return httpError(err)
	}

	if err := h.sessions.SetCookie(c, session); err != nil {
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, safeNext(form.Next, "/profile"))
}

// Logout ends the session and clears the cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.identity.Logout(c.Request().Context(), middleware.CurrentSessionKey(c)); err != nil {
		h.log.WithError(err).Warn("Failed to delete session on logout")
	}
	h.sessions.ClearCookie(c)
	return c.Redirect(http.StatusFound, middleware.LoginURL)
}

// FirebaseLogin exchanges a Firebase ID token for a session cookie
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	idToken, _ := c.Get(middleware.ContextFirebaseTokenKey).(string)
	if idToken == "" {
		var req models.FirebaseLoginRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
		if err := c.Validate(req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "idToken is required")
		}
		idToken = req.IDToken
	}

	_, session, err := h.identity.FirebaseLogin(c.Request().Context(), idToken)
	if err != nil {
		var authErr *services.AuthError
		if errors.As(err, &authErr) {
			return echo.NewHTTPError(http.StatusUnauthorized, authErr.Message)
		}
		return httpError(err)
	}

	if err := h.sessions.SetCookie(c, session); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"redirect": "/"})
}

func (h *AuthHandler) loginData(next, handle string, errs map[string]string) echo.Map {
	return echo.Map{
		"next":     next,
		"username": handle,
		"errors":   errs,
		"firebase": h.identity.FirebaseEnabled(),
	}
}

// safeNext only follows local redirects
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
