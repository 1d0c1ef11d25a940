package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// Cycle history statuses.
const (
	CycleStatusRunning   = "RUNNING"
	CycleStatusCompleted = "COMPLETED"
	CycleStatusFailed    = "FAILED"
)

// ETLCycleHistory records one orchestrator cycle: when it ran, how it
// ended, and the full cycle report as JSON for the ops API.
type ETLCycleHistory struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Mode         string         `gorm:"type:varchar(20);not null" json:"mode"`
	Status       string         `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Report       datatypes.JSON `gorm:"type:jsonb" json:"report"`
	ErrorMessage sql.NullString `json:"error_message"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (ETLCycleHistory) TableName() string {
	return "etl_cycle_history"
}
