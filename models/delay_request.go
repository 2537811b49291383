package models

import (
	"time"

	"github.com/lib/pq"
)

type DelayRequest struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TeacherID   uint           `json:"teacher_id" gorm:"index;not null"`
	TeacherName string         `json:"teacher_name" gorm:"size:120"`
	Subject     string         `json:"subject" gorm:"size:80"`
	Classes     pq.StringArray `json:"classes" gorm:"type:text[]"`
	Reason      string         `json:"reason" gorm:"type:text"`
	Minutes     Minutes        `json:"minutes" gorm:"type:text"` // count or daily-leave, set on approval
	Status      string         `json:"status" gorm:"size:20;not null"`
	Date        time.Time      `json:"date" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
