package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bassem-o/School/models"
)

// string -> int with a default for anything unparsable
func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func getUserID(c echo.Context) (uint, bool) {
	switch v := c.Get("user_id").(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	default:
		return 0, false
	}
}

func getSession(c echo.Context) (*models.Session, bool) {
	sess, ok := c.Get("session").(*models.Session)
	return sess, ok
}

func parseID(c echo.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}
