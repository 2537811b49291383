package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bassem-o/School/models"
	"github.com/bassem-o/School/services"
)

type DelayRequestHandler struct {
	Svc *services.DelayService
}

func NewDelayRequestHandler(svc *services.DelayService) *DelayRequestHandler {
	return &DelayRequestHandler{Svc: svc}
}

// GET /admin/delay-requests?status=&limit=
func (h *DelayRequestHandler) List(c echo.Context) error {
	scope := services.Scope{
		Status: strings.TrimSpace(c.QueryParam("status")),
		Limit:  atoiOr(c.QueryParam("limit"), 0),
	}
	return h.list(c, scope)
}

// GET /teacher/delay-requests
func (h *DelayRequestHandler) ListMine(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}
	scope := services.Scope{
		TeacherID: uid,
		Limit:     atoiOr(c.QueryParam("limit"), 0),
	}
	return h.list(c, scope)
}

func (h *DelayRequestHandler) list(c echo.Context, scope services.Scope) error {
	rows, err := h.Svc.List(c.Request().Context(), scope)
	if err != nil {
		if errors.Is(err, services.ErrTimeout) {
			return c.JSON(http.StatusGatewayTimeout, map[string]any{"error": "TIMEOUT", "message": err.Error()})
		}
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, rows)
}

type createDelayReq struct {
	Subject string   `json:"subject"`
	Classes []string `json:"classes"`
	Reason  string   `json:"reason"`
}

// POST /teacher/delay-requests. Subject and classes arrive already resolved
// by the submitting view.
func (h *DelayRequestHandler) Create(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}
	var req createDelayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	reason := strings.TrimSpace(req.Reason)
	if len([]rune(reason)) < reasonMinLen {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":   "VALIDATION_ERROR",
			"message": "يجب أن يكون سبب التأخير 10 أحرف على الأقل",
		})
	}

	name, _ := c.Get("name").(string)
	row, err := h.Svc.Create(c.Request().Context(), uid, name, strings.TrimSpace(req.Subject), req.Classes, reason)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, row)
}

type decideDelayReq struct {
	Minutes string `json:"minutes"` // minute count or the daily-leave sentinel
}

// POST /admin/delay-requests/:id/approve
func (h *DelayRequestHandler) Approve(c echo.Context) error {
	return h.decide(c, models.StatusApproved)
}

// POST /admin/delay-requests/:id/reject
func (h *DelayRequestHandler) Reject(c echo.Context) error {
	return h.decide(c, models.StatusRejected)
}

func (h *DelayRequestHandler) decide(c echo.Context, status string) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var body decideDelayReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	row, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	if row.Status != models.StatusPending {
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_DECIDED"})
	}

	updated, err := h.Svc.UpdateStatus(c.Request().Context(), id, &status, strings.TrimSpace(body.Minutes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, updated)
}

// PATCH /admin/delay-requests/:id edits minutes in history; status stays.
func (h *DelayRequestHandler) Annotate(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var body decideDelayReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	updated, err := h.Svc.UpdateStatus(c.Request().Context(), id, nil, strings.TrimSpace(body.Minutes))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		case errors.Is(err, services.ErrNoChanges):
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "NO_CHANGES"})
		default:
			return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, updated)
}

// DELETE /teacher/delay-requests/:id
func (h *DelayRequestHandler) Delete(c echo.Context) error {
	uid, _ := getUserID(c)
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	row, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	if row.TeacherID != uid {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}
	if row.Status != models.StatusPending {
		return c.JSON(http.StatusConflict, map[string]any{"error": "NOT_PENDING"})
	}

	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// GET /admin/delay-requests/pending-count
func (h *DelayRequestHandler) PendingCount(c echo.Context) error {
	n, err := h.Svc.PendingCount(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"count": n})
}
