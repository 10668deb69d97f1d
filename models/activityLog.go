package models

import "time"

type ActivityLog struct {
	ID          int64      `gorm:"column:id;primary_key" json:"id"`
	LogName     string     `gorm:"column:log_name" json:"log_name"`
	Description string     `gorm:"column:description" json:"description"`
	SubjectID   int        `gorm:"column:subject_id" json:"subject_id"`
	SubjectType string     `gorm:"column:subject_type" json:"subject_type"`
	Properties  string     `gorm:"column:properties" json:"properties"`
	CreatedAt   *time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName sets the insert table name for this struct type
func (a *ActivityLog) TableName() string {
	return "activity_log"
}

// NewActivityLog 組合塞入到 db 的 model
func NewActivityLog(logName, description string, taskID uint, properties string, at time.Time) ActivityLog {
	return ActivityLog{
		LogName:     logName,
		Description: description,
		SubjectID:   int(taskID),
		SubjectType: "task",
		Properties:  properties,
		CreatedAt:   &at,
		UpdatedAt:   &at,
	}
}
