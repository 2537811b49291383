package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/bassem-o/School/models"
)

// TeacherProfileHandler serves the teaching profile behind the signed-in
// user: subject and classes for prefilling submissions, absence_left for the
// remaining-allowance indicator.
type TeacherProfileHandler struct {
	DB *gorm.DB
}

func NewTeacherProfileHandler(db *gorm.DB) *TeacherProfileHandler {
	return &TeacherProfileHandler{DB: db}
}

// GET /teacher/profile
func (h *TeacherProfileHandler) Get(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "NO_SESSION"})
	}

	var t models.Teacher
	err := h.DB.WithContext(c.Request().Context()).Where("user_id = ?", uid).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "TEACHER_PROFILE_NOT_FOUND"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	return c.JSON(http.StatusOK, t)
}
