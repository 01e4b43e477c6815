package models

import "time"

type TargetStatus string

const (
	TargetNotStarted TargetStatus = "Not Started"
	TargetInProgress TargetStatus = "In Progress"
	TargetCompleted  TargetStatus = "Completed"
)

var TargetStatuses = []TargetStatus{TargetNotStarted, TargetInProgress, TargetCompleted}

func (s TargetStatus) Valid() bool { return oneOf(s, TargetStatuses) }

type DailyTarget struct {
	Base
	OrderNumber    string       `gorm:"size:100;not null;index" json:"order_number"`
	ProjectID      uint         `gorm:"not null;index" json:"project_id"`
	Description    *string      `gorm:"type:text" json:"description"`
	TargetQuantity int          `gorm:"not null" json:"target_quantity"`
	TargetDate     time.Time    `gorm:"type:date;not null;index" json:"target_date"`
	AssignedTo     *uint        `json:"assigned_to"`
	Status         TargetStatus `gorm:"type:varchar(50);not null;default:Not Started;index" json:"status"`
	ActualQuantity int          `gorm:"not null;default:0" json:"actual_quantity"`
	CompletionDate *time.Time   `gorm:"type:date" json:"completion_date"`
	Notes          *string      `gorm:"type:text" json:"notes"`

	Project  *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee *User    `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}

func (DailyTarget) TableName() string { return "daily_targets" }

// Progress is actual over target quantity in percent, capped at 100.
func (d DailyTarget) Progress() float64 {
	if d.TargetQuantity <= 0 {
		return 0
	}
	p := float64(d.ActualQuantity) / float64(d.TargetQuantity) * 100
	if p > 100 {
		return 100
	}
	return p
}
