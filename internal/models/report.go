package models

import "time"

const (
	ReportAbuse         = "abuse"
	ReportInappropriate = "inappropriate"
	ReportBug           = "bug"

	TargetUser    = "User"
	TargetCourse  = "Course"
	TargetPost    = "Post"
	TargetComment = "Comment"

	ReportPending  = "pending"
	ReportResolved = "resolved"
)

type Report struct {
	ID          string    `json:"_id"`
	ReporterID  Ref       `json:"reporterId"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	TargetType  string    `json:"targetType"`
	TargetID    Ref       `json:"targetId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Notification struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
