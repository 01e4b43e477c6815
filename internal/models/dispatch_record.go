package models

import "time"

type DispatchStatus string

const (
	DispatchDispatched DispatchStatus = "Dispatched"
	DispatchInTransit  DispatchStatus = "In Transit"
	DispatchDelivered  DispatchStatus = "Delivered"
	DispatchDelayed    DispatchStatus = "Delayed"
)

var DispatchStatuses = []DispatchStatus{DispatchDispatched, DispatchInTransit, DispatchDelivered, DispatchDelayed}

func (s DispatchStatus) Valid() bool { return oneOf(s, DispatchStatuses) }

type DispatchRecord struct {
	Base
	ProjectID         uint           `gorm:"not null;index" json:"project_id"`
	OrderNumber       string         `gorm:"size:100;not null;index" json:"order_number"`
	VehicleNumber     *string        `gorm:"size:100" json:"vehicle_number"`
	DriverName        *string        `gorm:"size:200" json:"driver_name"`
	DispatchDate      time.Time      `gorm:"type:date;not null;index" json:"dispatch_date"`
	DeliveryDate      *time.Time     `gorm:"type:date" json:"delivery_date"`
	Status            DispatchStatus `gorm:"type:varchar(50);not null;default:Dispatched;index" json:"status"`
	ResponsiblePerson *uint          `json:"responsible_person"`
	ChallanNumber     *string        `gorm:"size:100" json:"challan_number"`
	Notes             *string        `gorm:"type:text" json:"notes"`

	Project     *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Responsible *User    `gorm:"foreignKey:ResponsiblePerson" json:"responsible,omitempty"`
}

func (DispatchRecord) TableName() string { return "dispatch" }
