package models

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectOnHold    ProjectStatus = "On Hold"
)

var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectCompleted, ProjectOnHold}

func (s ProjectStatus) Valid() bool { return oneOf(s, ProjectStatuses) }

type Project struct {
	Base
	Name        string        `gorm:"size:200;not null" json:"name"`
	Client      *string       `gorm:"size:200" json:"client"`
	Location    *string       `gorm:"size:300" json:"location"`
	StartDate   *time.Time    `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time    `gorm:"type:date" json:"end_date"`
	Status      ProjectStatus `gorm:"type:varchar(50);not null;default:Active;index" json:"status"`
	Description *string       `gorm:"type:text" json:"description"`
}

func (Project) TableName() string { return "projects" }
