package model

import "time"

// AuditAction identifies the kind of mutation recorded in an audit entry.
type AuditAction string

const (
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionRestore AuditAction = "RESTORE"
)

// AuditLog records a sensitive mutation: who changed what, and when.
// Detail carries a JSON snapshot of the before/after state.
type AuditLog struct {
	ID         string      `gorm:"primaryKey" json:"id"`
	EntityType string      `gorm:"not null;index" json:"entityType"`
	EntityID   uint        `gorm:"not null;index" json:"entityId"`
	Action     AuditAction `gorm:"not null" json:"action"`
	Actor      string      `gorm:"not null" json:"actor"`
	Detail     string      `json:"detail"`
	CreatedAt  time.Time   `json:"createdAt"`
}
