package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/bassem-o/School/database"
	"github.com/bassem-o/School/models"
)

const AbsenceTable = "absence_requests"

type AbsenceService struct {
	db           *gorm.DB
	notifier     *database.Notifier
	fetchTimeout time.Duration
}

func NewAbsenceService(db *gorm.DB, notifier *database.Notifier, fetchTimeout time.Duration) *AbsenceService {
	return &AbsenceService{db: db, notifier: notifier, fetchTimeout: fetchTimeout}
}

// List returns requests matching scope, newest first. The query is bounded;
// on deadline the caller gets ErrTimeout, not a store error.
func (s *AbsenceService) List(ctx context.Context, scope Scope) ([]models.AbsenceRequest, error) {
	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	tx := s.db.WithContext(fctx).Model(&models.AbsenceRequest{})
	if scope.Status != "" {
		tx = tx.Where("status = ?", scope.Status)
	}
	if scope.TeacherID != 0 {
		tx = tx.Where("teacher_id = ?", scope.TeacherID)
	}
	if scope.Limit > 0 {
		tx = tx.Limit(scope.Limit)
	}

	var rows []models.AbsenceRequest
	if err := tx.Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fetchErr(fctx, "list absence requests", err)
	}
	return rows, nil
}

// Create submits a new request. Subject and classes come from the teacher's
// own profile, not from the caller; status always starts pending.
func (s *AbsenceService) Create(ctx context.Context, teacherID uint, teacherName, reason string) (*models.AbsenceRequest, error) {
	var teacher models.Teacher
	err := s.db.WithContext(ctx).Where("user_id = ?", teacherID).First(&teacher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "load teacher profile", Err: err}
	}

	row := &models.AbsenceRequest{
		TeacherID:   teacherID,
		TeacherName: teacherName,
		Subject:     teacher.Subject,
		Classes:     teacher.Classes,
		Reason:      reason,
		Status:      models.StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, &StoreError{Op: "create absence request", Err: err}
	}
	s.notify(ctx)
	return row, nil
}

// UpdateStatus applies a partial update: a nil status leaves the stored
// status untouched (history edits of the leave type), and an empty leaveType
// is never written over an existing value.
func (s *AbsenceService) UpdateStatus(ctx context.Context, id uint, status *string, leaveType string) (*models.AbsenceRequest, error) {
	updates := map[string]any{}
	if status != nil {
		updates["status"] = *status
	}
	if leaveType != "" {
		if !models.ValidAbsenceType(leaveType) {
			return nil, fmt.Errorf("unknown leave type %q", leaveType)
		}
		updates["type"] = leaveType
	}
	if len(updates) == 0 {
		return nil, ErrNoChanges
	}

	res := s.db.WithContext(ctx).Model(&models.AbsenceRequest{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, &StoreError{Op: "update absence request", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var row models.AbsenceRequest
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, &StoreError{Op: "reload absence request", Err: err}
	}
	s.notify(ctx)
	return &row, nil
}

// Get loads one request.
func (s *AbsenceService) Get(ctx context.Context, id uint) (*models.AbsenceRequest, error) {
	var row models.AbsenceRequest
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "load absence request", Err: err}
	}
	return &row, nil
}

// Delete removes the row. The pending-only rule is enforced by the handler,
// not here.
func (s *AbsenceService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.AbsenceRequest{}, id)
	if res.Error != nil {
		return &StoreError{Op: "delete absence request", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx)
	return nil
}

func (s *AbsenceService) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.AbsenceRequest{}).
		Where("status = ?", models.StatusPending).Count(&n).Error
	if err != nil {
		return 0, &StoreError{Op: "count pending", Err: err}
	}
	return n, nil
}

func (s *AbsenceService) notify(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, AbsenceTable); err != nil {
		log.Printf("[absence] notify: %v", err)
	}
}
