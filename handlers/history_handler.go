package handlers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bassem-o/School/models"
	"github.com/bassem-o/School/services"
)

// HistoryHandler serves the admin history view: absences and delays merged,
// filtered by kind and time window.
type HistoryHandler struct {
	Absences *services.AbsenceService
	Delays   *services.DelayService
}

func NewHistoryHandler(abs *services.AbsenceService, del *services.DelayService) *HistoryHandler {
	return &HistoryHandler{Absences: abs, Delays: del}
}

type historyItem struct {
	Kind    string                 `json:"kind"` // "absence" | "delay"
	Absence *models.AbsenceRequest `json:"absence,omitempty"`
	Delay   *models.DelayRequest   `json:"delay,omitempty"`
	date    time.Time
}

// GET /admin/history?kind=all|absence|delay&window=all|D|W|M|Y
func (h *HistoryHandler) List(c echo.Context) error {
	kind := c.QueryParam("kind")
	if kind == "" {
		kind = "all"
	}
	cutoff, hasCutoff := windowCutoff(c.QueryParam("window"))

	var items []historyItem

	if kind == "all" || kind == "absence" {
		rows, err := h.Absences.List(c.Request().Context(), services.Scope{})
		if err != nil {
			return historyErr(c, err)
		}
		for i := range rows {
			items = append(items, historyItem{Kind: "absence", Absence: &rows[i], date: rows[i].Date})
		}
	}
	if kind == "all" || kind == "delay" {
		rows, err := h.Delays.List(c.Request().Context(), services.Scope{})
		if err != nil {
			return historyErr(c, err)
		}
		for i := range rows {
			items = append(items, historyItem{Kind: "delay", Delay: &rows[i], date: rows[i].Date})
		}
	}

	if hasCutoff {
		kept := items[:0]
		for _, it := range items {
			if !it.date.Before(cutoff) {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	sort.Slice(items, func(i, j int) bool { return items[i].date.After(items[j].date) })

	if items == nil {
		items = []historyItem{}
	}
	return c.JSON(http.StatusOK, items)
}

func windowCutoff(window string) (time.Time, bool) {
	now := time.Now()
	switch window {
	case "D":
		return now.AddDate(0, 0, -1), true
	case "W":
		return now.AddDate(0, 0, -7), true
	case "M":
		return now.AddDate(0, 0, -30), true
	case "Y":
		return now.AddDate(0, 0, -365), true
	default:
		return time.Time{}, false
	}
}

func historyErr(c echo.Context, err error) error {
	if errors.Is(err, services.ErrTimeout) {
		return c.JSON(http.StatusGatewayTimeout, map[string]any{"error": "TIMEOUT", "message": err.Error()})
	}
	return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
}
