package dbschema

import (
	"time"
)

// AuditModel carries the tenancy and soft-delete columns every scoped row
// has. Status false is the logical tombstone; live-row reads must filter on
// it. The (bot, status) pair is indexed per table.
type AuditModel struct {
	ID        uint      `gorm:"primaryKey"`
	Bot       string    `gorm:"type:varchar(64);not null;index"`
	User      string    `gorm:"type:varchar(128);not null"`
	Timestamp time.Time `gorm:"not null;index"`
	Status    bool      `gorm:"not null;default:true;index"`
}
