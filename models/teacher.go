package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher is the teaching profile behind a users row. Subject and classes
// prefill new absence requests; AbsenceLeft backs the remaining-allowance
// indicator (0..7).
type Teacher struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	Subject     string         `json:"subject" gorm:"size:80"`
	Classes     pq.StringArray `json:"classes" gorm:"type:text[]"`
	AbsenceLeft int            `json:"absence_left" gorm:"default:7"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
