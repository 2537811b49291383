package services

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/bassem-o/School/database"
	"github.com/bassem-o/School/models"
)

const DelayTable = "delay_requests"

type DelayService struct {
	db           *gorm.DB
	notifier     *database.Notifier
	fetchTimeout time.Duration
}

func NewDelayService(db *gorm.DB, notifier *database.Notifier, fetchTimeout time.Duration) *DelayService {
	return &DelayService{db: db, notifier: notifier, fetchTimeout: fetchTimeout}
}

func (s *DelayService) List(ctx context.Context, scope Scope) ([]models.DelayRequest, error) {
	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	tx := s.db.WithContext(fctx).Model(&models.DelayRequest{})
	if scope.Status != "" {
		tx = tx.Where("status = ?", scope.Status)
	}
	if scope.TeacherID != 0 {
		tx = tx.Where("teacher_id = ?", scope.TeacherID)
	}
	if scope.Limit > 0 {
		tx = tx.Limit(scope.Limit)
	}

	var rows []models.DelayRequest
	if err := tx.Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fetchErr(fctx, "list delay requests", err)
	}
	return rows, nil
}

// Create submits a delay request. Unlike absences, subject and classes are
// supplied by the caller, which has already resolved them.
func (s *DelayService) Create(ctx context.Context, teacherID uint, teacherName, subject string, classes []string, reason string) (*models.DelayRequest, error) {
	row := &models.DelayRequest{
		TeacherID:   teacherID,
		TeacherName: teacherName,
		Subject:     subject,
		Classes:     classes,
		Reason:      reason,
		Status:      models.StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, &StoreError{Op: "create delay request", Err: err}
	}
	s.notify(ctx)
	return row, nil
}

// UpdateStatus applies a partial update. rawMinutes is parsed to an integer
// unless it is the daily-leave sentinel, which is stored as-is; empty means
// leave the stored value alone.
func (s *DelayService) UpdateStatus(ctx context.Context, id uint, status *string, rawMinutes string) (*models.DelayRequest, error) {
	updates := map[string]any{}
	if status != nil {
		updates["status"] = *status
	}
	if rawMinutes != "" {
		m, err := models.ParseMinutes(rawMinutes)
		if err != nil {
			return nil, err
		}
		updates["minutes"] = m
	}
	if len(updates) == 0 {
		return nil, ErrNoChanges
	}

	res := s.db.WithContext(ctx).Model(&models.DelayRequest{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, &StoreError{Op: "update delay request", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var row models.DelayRequest
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, &StoreError{Op: "reload delay request", Err: err}
	}
	s.notify(ctx)
	return &row, nil
}

func (s *DelayService) Get(ctx context.Context, id uint) (*models.DelayRequest, error) {
	var row models.DelayRequest
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "load delay request", Err: err}
	}
	return &row, nil
}

// Delete removes the row; the pending-only guard lives in the handler.
func (s *DelayService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.DelayRequest{}, id)
	if res.Error != nil {
		return &StoreError{Op: "delete delay request", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(ctx)
	return nil
}

func (s *DelayService) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.DelayRequest{}).
		Where("status = ?", models.StatusPending).Count(&n).Error
	if err != nil {
		return 0, &StoreError{Op: "count pending", Err: err}
	}
	return n, nil
}

func (s *DelayService) notify(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, DelayTable); err != nil {
		log.Printf("[delay] notify: %v", err)
	}
}
