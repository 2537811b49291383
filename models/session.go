package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DashboardAdmin   = "admin"
	DashboardTeacher = "teacher"
)

// Session is one signed-in dashboard instance. The admin and teacher apps
// hold independent sessions, distinguished by Dashboard.
type Session struct {
	ID        string         `json:"id" gorm:"primaryKey;size:36"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Email     string         `json:"email" gorm:"size:120"`
	Dashboard string         `json:"dashboard" gorm:"size:20;not null"`
	Profile   datatypes.JSON `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
}
