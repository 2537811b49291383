package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bassem-o/School/models"
	"github.com/bassem-o/School/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /auth/admin/login
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	return h.login(c, models.DashboardAdmin)
}

// POST /auth/teacher/login
func (h *AuthHandler) TeacherLogin(c echo.Context) error {
	return h.login(c, models.DashboardTeacher)
}

func (h *AuthHandler) login(c echo.Context, dashboard string) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	sess, profile, token, err := h.Auth.SignIn(c.Request().Context(), req.Username, req.Password, dashboard)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, map[string]any{
				"error":   "INVALID_CREDENTIALS",
				"message": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "LOGIN_FAILED"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token":   token,
		"user":    map[string]any{"id": sess.UserID, "email": sess.Email},
		"profile": profile,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if sess, ok := getSession(c); ok {
		h.Auth.SignOut(c.Request().Context(), sess.ID)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// GET /me returns the current profile; is_fallback marks a degraded lookup the client
// should retry, not treat as unauthorized.
func (h *AuthHandler) Me(c echo.Context) error {
	sess, ok := getSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}
	profile, err := h.Auth.GetUserProfile(c.Request().Context(), sess)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "PROFILE_NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "PROFILE_LOAD_FAILED"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"profile":  profile,
		"is_admin": services.IsAdmin(profile),
	})
}

type updateCredentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PUT /teacher/credentials
func (h *AuthHandler) UpdateCredentials(c echo.Context) error {
	sess, ok := getSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}
	var req updateCredentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	profile, err := h.Auth.UpdateCredentials(c.Request().Context(), sess, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			return c.JSON(http.StatusConflict, map[string]any{"error": "USERNAME_TAKEN", "message": err.Error()})
		case errors.Is(err, services.ErrNoChanges):
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "NO_CHANGES", "message": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": "UPDATE_FAILED"})
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "profile": profile})
}
