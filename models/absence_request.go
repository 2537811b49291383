package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Absence leave types as the school writes them.
const (
	AbsenceTypeCasual  = "عارضة"
	AbsenceTypeRegular = "اعتيادى"
	AbsenceTypeSick    = "مرضى"
	AbsenceTypeOther   = "اخرى"
)

var AbsenceTypes = []string{AbsenceTypeCasual, AbsenceTypeRegular, AbsenceTypeSick, AbsenceTypeOther}

func ValidAbsenceType(t string) bool {
	for _, v := range AbsenceTypes {
		if v == t {
			return true
		}
	}
	return false
}

type AbsenceRequest struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TeacherID   uint           `json:"teacher_id" gorm:"index;not null"`
	TeacherName string         `json:"teacher_name" gorm:"size:120"`
	Subject     string         `json:"subject" gorm:"size:80"`
	Classes     pq.StringArray `json:"classes" gorm:"type:text[]"`
	Reason      string         `json:"reason" gorm:"type:text"`
	Type        string         `json:"type" gorm:"size:40"`            // unset until the admin decides
	Status      string         `json:"status" gorm:"size:20;not null"` // pending/approved/rejected
	Date        time.Time      `json:"date" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
