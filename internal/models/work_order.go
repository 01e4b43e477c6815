package models

import "time"

type WorkOrderStatus string

const (
	WorkOrderPending    WorkOrderStatus = "Pending"
	WorkOrderInProgress WorkOrderStatus = "In Progress"
	WorkOrderCompleted  WorkOrderStatus = "Completed"
	WorkOrderDispatched WorkOrderStatus = "Dispatched"
)

var WorkOrderStatuses = []WorkOrderStatus{WorkOrderPending, WorkOrderInProgress, WorkOrderCompleted, WorkOrderDispatched}

func (s WorkOrderStatus) Valid() bool { return oneOf(s, WorkOrderStatuses) }

type WorkOrderType string

const (
	WorkOrderCutting     WorkOrderType = "Cutting"
	WorkOrderProduction  WorkOrderType = "Production"
	WorkOrderProcurement WorkOrderType = "Procurement"
)

var WorkOrderTypes = []WorkOrderType{WorkOrderCutting, WorkOrderProduction, WorkOrderProcurement}

func (t WorkOrderType) Valid() bool { return oneOf(t, WorkOrderTypes) }

type WorkOrder struct {
	Base
	WONumber    string          `gorm:"column:wo_number;size:100;uniqueIndex;not null" json:"wo_number"`
	ProjectID   uint            `gorm:"not null;index" json:"project_id"`
	Floor       *string         `gorm:"size:100" json:"floor"`
	Description *string         `gorm:"type:text" json:"description"`
	Type        WorkOrderType   `gorm:"column:wo_type;type:varchar(50);not null" json:"wo_type"`
	Status      WorkOrderStatus `gorm:"type:varchar(50);not null;default:Pending;index" json:"status"`
	AssignedTo  *uint           `json:"assigned_to"`
	Priority    Priority        `gorm:"type:varchar(20);not null;default:Medium" json:"priority"`
	DueDate     *time.Time      `gorm:"type:date" json:"due_date"`

	Project  *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee *User    `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
}

func (WorkOrder) TableName() string { return "work_orders" }
