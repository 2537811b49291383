package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bassem-o/School/models"
	"github.com/bassem-o/School/services"
)

const reasonMinLen = 10

type AbsenceRequestHandler struct {
	Svc *services.AbsenceService
}

func NewAbsenceRequestHandler(svc *services.AbsenceService) *AbsenceRequestHandler {
	return &AbsenceRequestHandler{Svc: svc}
}

// GET /admin/absence-requests?status=&limit=
func (h *AbsenceRequestHandler) List(c echo.Context) error {
	scope := services.Scope{
		Status: strings.TrimSpace(c.QueryParam("status")),
		Limit:  atoiOr(c.QueryParam("limit"), 0),
	}
	return h.list(c, scope)
}

// GET /teacher/absence-requests: the caller's own submissions only.
func (h *AbsenceRequestHandler) ListMine(c echo.Context) error {
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

func (h *AbsenceRequestHandler) list(c echo.Context, scope services.Scope) error {
	rows, err := h.Svc.List(c.Request().Context(), scope)
	if err != nil {
		if errors.Is(err, services.ErrTimeout) {
			return c.JSON(http.StatusGatewayTimeout, map[string]any{"error": "TIMEOUT", "message": err.Error()})
		}
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, rows)
}

type createAbsenceReq struct {
	Reason string `json:"reason"`
}

// POST /teacher/absence-requests
func (h *AbsenceRequestHandler) Create(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}
	var req createAbsenceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	reason := strings.TrimSpace(req.Reason)
	if len([]rune(reason)) < reasonMinLen {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":   "VALIDATION_ERROR",
			"message": "يجب أن يكون سبب الغياب 10 أحرف على الأقل",
		})
	}

	name, _ := c.Get("name").(string)
	row, err := h.Svc.Create(c.Request().Context(), uid, name, reason)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "TEACHER_PROFILE_NOT_FOUND"})
		}
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, row)
}

type decideAbsenceReq struct {
	Type string `json:"type"` // optional leave type set alongside the decision
}

// POST /admin/absence-requests/:id/approve
func (h *AbsenceRequestHandler) Approve(c echo.Context) error {
	return h.decide(c, models.StatusApproved)
}

// POST /admin/absence-requests/:id/reject
func (h *AbsenceRequestHandler) Reject(c echo.Context) error {
	return h.decide(c, models.StatusRejected)
}

func (h *AbsenceRequestHandler) decide(c echo.Context, status string) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var body decideAbsenceReq
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
	// transitions only ever leave pending
	if row.Status != models.StatusPending {
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_DECIDED"})
	}

	updated, err := h.Svc.UpdateStatus(c.Request().Context(), id, &status, strings.TrimSpace(body.Type))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, updated)
}

// PATCH /admin/absence-requests/:id is the history edit: change the leave
// type without touching status.
func (h *AbsenceRequestHandler) Annotate(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var body decideAbsenceReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	updated, err := h.Svc.UpdateStatus(c.Request().Context(), id, nil, strings.TrimSpace(body.Type))
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

// DELETE /teacher/absence-requests/:id. Owner only, and only while the
// request is still pending.
func (h *AbsenceRequestHandler) Delete(c echo.Context) error {
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

// GET /admin/absence-requests/pending-count
func (h *AbsenceRequestHandler) PendingCount(c echo.Context) error {
	n, err := h.Svc.PendingCount(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"count": n})
}
