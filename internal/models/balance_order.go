package models

import "time"

type BalanceStatus string

const (
	BalancePending    BalanceStatus = "Pending"
	BalanceInProgress BalanceStatus = "In Progress"
	BalanceCompleted  BalanceStatus = "Completed"
)

var BalanceStatuses = []BalanceStatus{BalancePending, BalanceInProgress, BalanceCompleted}

func (s BalanceStatus) Valid() bool { return oneOf(s, BalanceStatuses) }

// BalanceOrder tracks outstanding quantity for a work order. FulfilledQty is
// not clamped to RequiredQty.
type BalanceOrder struct {
	Base
	WONumber       string        `gorm:"column:wo_number;size:100;not null;index" json:"wo_number"`
	ProjectID      uint          `gorm:"not null;index" json:"project_id"`
	Floor          *string       `gorm:"size:100" json:"floor"`
	Priority       Priority      `gorm:"type:varchar(20);not null;default:Medium" json:"priority"`
	Specifications *string       `gorm:"type:text" json:"specifications"`
	RequiredQty    int           `gorm:"not null" json:"required_qty"`
	FulfilledQty   int           `gorm:"not null;default:0" json:"fulfilled_qty"`
	TotalQty       *int          `json:"total_qty"`
	DueDate        *time.Time    `gorm:"type:date" json:"due_date"`
	Status         BalanceStatus `gorm:"type:varchar(50);not null;default:Pending;index" json:"status"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (BalanceOrder) TableName() string { return "balance_orders" }

// Progress is the fulfilled share of the required quantity in percent,
// capped at 100 for display.
func (b BalanceOrder) Progress() float64 {
	if b.RequiredQty <= 0 {
		return 0
	}
	p := float64(b.FulfilledQty) / float64(b.RequiredQty) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Remaining is the quantity still owed; zero once fulfilled or over-fulfilled.
func (b BalanceOrder) Remaining() int {
	if r := b.RequiredQty - b.FulfilledQty; r > 0 {
		return r
	}
	return 0
}
