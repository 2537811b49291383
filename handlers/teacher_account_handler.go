package handlers

import (
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bassem-o/School/models"
)

// TeacherAccountHandler lets the administrator provision teacher accounts:
// a users row for sign-in plus the teachers profile row that prefills
// submissions.
type TeacherAccountHandler struct {
	DB *gorm.DB
}

func NewTeacherAccountHandler(db *gorm.DB) *TeacherAccountHandler {
	return &TeacherAccountHandler{DB: db}
}

type createTeacherAccountReq struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Subject  string   `json:"subject"`
	Classes  []string `json:"classes"`
}

type teacherAccountDTO struct {
	ID          uint     `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Subject     string   `json:"subject"`
	Classes     []string `json:"classes"`
	AbsenceLeft int      `json:"absence_left"`
}

// GET /admin/teacher-accounts
func (h *TeacherAccountHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var users []models.User
	if err := h.DB.WithContext(ctx).
		Where("role = ?", models.RoleTeacher).
		Order("name asc").Find(&users).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	out := make([]teacherAccountDTO, 0, len(users))
	for _, u := range users {
		dto := teacherAccountDTO{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Name:     u.Name,
		}
		var t models.Teacher
		if err := h.DB.WithContext(ctx).Where("user_id = ?", u.ID).First(&t).Error; err == nil {
			dto.Subject = t.Subject
			dto.Classes = t.Classes
			dto.AbsenceLeft = t.AbsenceLeft
		}
		out = append(out, dto)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /admin/teacher-accounts
func (h *TeacherAccountHandler) Create(c echo.Context) error {
	var req createTeacherAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error": "VALIDATION_ERROR",
			"fields": map[string]string{
				"username": "required",
				"password": "min_length_8",
			},
		})
	}

	ctx := c.Request().Context()

	var cnt int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", req.Username).Count(&cnt).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if cnt > 0 {
		return c.JSON(http.StatusConflict, map[string]any{"error": "USERNAME_TAKEN"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "HASH_ERROR"})
	}

	u := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleTeacher,
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		Name:         strings.TrimSpace(req.Name),
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		t := models.Teacher{
			UserID:      u.ID,
			Subject:     strings.TrimSpace(req.Subject),
			Classes:     req.Classes,
			AbsenceLeft: 7,
		}
		return tx.Create(&t).Error
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}

	return c.JSON(http.StatusCreated, teacherAccountDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Name:        u.Name,
		Subject:     req.Subject,
		Classes:     req.Classes,
		AbsenceLeft: 7,
	})
}

// POST /admin/teacher-accounts/:id/reset returns a one-time password.
func (h *TeacherAccountHandler) ResetPassword(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	ctx := c.Request().Context()
	var u models.User
	if err := h.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "ACCOUNT_NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if u.Role != models.RoleTeacher {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "NOT_TEACHER_ACCOUNT"})
	}

	newPW, err := randomPassword(12)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "PASSWORD_GEN_ERROR"})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPW), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "HASH_ERROR"})
	}

	if err := h.DB.WithContext(ctx).Model(&u).Update("password_hash", string(hash)).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusOK, map[string]any{"one_time_password": newPW})
}

func randomPassword(n int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	if n < 8 {
		n = 8
	}
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
