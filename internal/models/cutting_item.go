package models

import "time"

type CuttingStatus string

const (
	CuttingPending CuttingStatus = "Pending"
	CuttingCut     CuttingStatus = "Cut"
	CuttingRecut   CuttingStatus = "Re-cut"
)

var CuttingStatuses = []CuttingStatus{CuttingPending, CuttingCut, CuttingRecut}

func (s CuttingStatus) Valid() bool { return oneOf(s, CuttingStatuses) }

type CuttingItem struct {
	Base
	OrderNumber string        `gorm:"size:100;not null;index" json:"order_number"`
	ProjectID   uint          `gorm:"not null;index" json:"project_id"`
	Floor       *string       `gorm:"size:100" json:"floor"`
	Description *string       `gorm:"type:text" json:"description"`
	Width       float64       `gorm:"type:decimal(10,2)" json:"width"`
	Height      float64       `gorm:"type:decimal(10,2)" json:"height"`
	Quantity    int           `json:"quantity"`
	Color       *string       `gorm:"size:100" json:"color"`
	Status      CuttingStatus `gorm:"type:varchar(50);not null;default:Pending;index" json:"status"`
	CutDate     *time.Time    `gorm:"type:date" json:"cut_date"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (CuttingItem) TableName() string { return "cutting_lists" }

// Area is width x height of a single piece.
func (c CuttingItem) Area() float64 { return c.Width * c.Height }
