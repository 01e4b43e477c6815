package models

import "time"

type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftNight     Shift = "Night"
)

var Shifts = []Shift{ShiftMorning, ShiftAfternoon, ShiftNight}

func (s Shift) Valid() bool { return oneOf(s, Shifts) }

// ShiftAt maps a wall-clock hour to its shift: 06-14 morning, 14-22 afternoon.
func ShiftAt(t time.Time) Shift {
	switch h := t.Hour(); {
	case h >= 6 && h < 14:
		return ShiftMorning
	case h >= 14 && h < 22:
		return ShiftAfternoon
	default:
		return ShiftNight
	}
}

type ProductionRecord struct {
	Base
	WONumber         string    `gorm:"column:wo_number;size:100;not null;index" json:"wo_number"`
	ProjectID        uint      `gorm:"not null;index" json:"project_id"`
	OperatorID       uint      `gorm:"not null;index" json:"operator_id"`
	MachineUsed      *string   `gorm:"size:200" json:"machine_used"`
	ProducedQuantity int       `gorm:"not null" json:"produced_quantity"`
	ProductionDate   time.Time `gorm:"type:date;not null;index" json:"production_date"`
	Shift            *Shift    `gorm:"type:varchar(20)" json:"shift"`
	Notes            *string   `gorm:"type:text" json:"notes"`

	Project  *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Operator *User    `gorm:"foreignKey:OperatorID" json:"operator,omitempty"`
}

func (ProductionRecord) TableName() string { return "production_log" }
