package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bassem-o/School/models"
	"github.com/bassem-o/School/realtime"
	"github.com/bassem-o/School/services"
)

// EventsHandler streams live list snapshots over SSE. Each connection owns a
// collection: the first event is the current state, and every change signal
// on the table produces a fresh snapshot. Closing the connection is the only
// cleanup; it unsubscribes the collection from the hub.
type EventsHandler struct {
	Hub      *realtime.Hub
	Absences *services.AbsenceService
	Delays   *services.DelayService
}

func NewEventsHandler(hub *realtime.Hub, abs *services.AbsenceService, del *services.DelayService) *EventsHandler {
	return &EventsHandler{Hub: hub, Absences: abs, Delays: del}
}

// GET /admin/events/absence-requests?status=
func (h *EventsHandler) AbsenceStream(c echo.Context) error {
	scope := services.Scope{Status: strings.TrimSpace(c.QueryParam("status"))}
	col := realtime.NewCollection(h.Hub, services.AbsenceTable,
		func(ctx context.Context) ([]models.AbsenceRequest, error) {
			return h.Absences.List(ctx, scope)
		},
		func(r models.AbsenceRequest) uint { return r.ID },
	)
	return streamCollection(c, col)
}

// GET /admin/events/delay-requests?status=
func (h *EventsHandler) DelayStream(c echo.Context) error {
	scope := services.Scope{Status: strings.TrimSpace(c.QueryParam("status"))}
	col := realtime.NewCollection(h.Hub, services.DelayTable,
		func(ctx context.Context) ([]models.DelayRequest, error) {
			return h.Delays.List(ctx, scope)
		},
		func(r models.DelayRequest) uint { return r.ID },
	)
	return streamCollection(c, col)
}

// GET /teacher/events/absence-requests, scoped to the caller.
func (h *EventsHandler) MyAbsenceStream(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}
	scope := services.Scope{TeacherID: uid}
	col := realtime.NewCollection(h.Hub, services.AbsenceTable,
		func(ctx context.Context) ([]models.AbsenceRequest, error) {
			return h.Absences.List(ctx, scope)
		},
		func(r models.AbsenceRequest) uint { return r.ID },
	)
	return streamCollection(c, col)
}

// GET /teacher/events/delay-requests
func (h *EventsHandler) MyDelayStream(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}
	scope := services.Scope{TeacherID: uid}
	col := realtime.NewCollection(h.Hub, services.DelayTable,
		func(ctx context.Context) ([]models.DelayRequest, error) {
			return h.Delays.List(ctx, scope)
		},
		func(r models.DelayRequest) uint { return r.ID },
	)
	return streamCollection(c, col)
}

func streamCollection[T any](c echo.Context, col *realtime.Collection[T]) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	ctx := c.Request().Context()
	col.Start(ctx)
	defer col.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-col.Updates():
			var payload any
			if err := col.Err(); err != nil {
				payload = map[string]any{"error": err.Error()}
			} else {
				payload = col.Items()
			}
			data, err := json.Marshal(payload)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
