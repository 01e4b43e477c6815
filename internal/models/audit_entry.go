package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

var AuditActions = []AuditAction{AuditCreate, AuditUpdate, AuditDelete}

func (a AuditAction) Valid() bool { return oneOf(a, AuditActions) }

var ErrAuditAppendOnly = errors.New("audit trail is append-only")

// AuditEntry is one row of the audit trail. UPDATE rows always name a field;
// CREATE and DELETE rows carry no field or values. A nil ActorID means the
// change was made by the system.
type AuditEntry struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Table     string      `gorm:"column:table_name;size:100;not null;index:idx_audit_record" json:"table_name"`
	RecordID  uint        `gorm:"not null;index:idx_audit_record" json:"record_id"`
	Action    AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`
	FieldName *string     `gorm:"size:100" json:"field_name"`
	OldValue  *string     `gorm:"type:text" json:"old_value"`
	NewValue  *string     `gorm:"type:text" json:"new_value"`
	ActorID   *uint       `gorm:"column:user_id;index" json:"actor_id"`
	Timestamp time.Time   `gorm:"not null;index" json:"timestamp"`

	// filled by queries that join users
	ActorUsername *string `gorm:"->;-:migration" json:"actor_username,omitempty"`
}

func (AuditEntry) TableName() string { return "audit_trail" }

func (e *AuditEntry) BeforeUpdate(*gorm.DB) error { return ErrAuditAppendOnly }

func (e *AuditEntry) BeforeDelete(*gorm.DB) error { return ErrAuditAppendOnly }

// Actor returns the acting username, or "system" when none is recorded.
func (e AuditEntry) Actor() string {
	if e.ActorUsername != nil && *e.ActorUsername != "" {
		return *e.ActorUsername
	}
	if e.ActorID == nil {
		return "system"
	}
	return "unknown"
}
