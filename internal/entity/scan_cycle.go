package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

type CycleTrigger string

const (
	CycleTriggerSchedule CycleTrigger = "schedule"
	CycleTriggerManual   CycleTrigger = "manual"
	CycleTriggerStream   CycleTrigger = "stream"
)

type CycleStatus string

const (
	CycleStatusRunning   CycleStatus = "RUNNING"
	CycleStatusCompleted CycleStatus = "COMPLETED"
	CycleStatusSkipped   CycleStatus = "SKIPPED"
	CycleStatusFailed    CycleStatus = "FAILED"
)

// ScanCycle is the execution history of one orchestrator run.
type ScanCycle struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	Trigger        CycleTrigger   `gorm:"type:varchar(16);not null" json:"trigger"`
	Status         CycleStatus    `gorm:"type:varchar(16);not null" json:"status"`
	AccountsTotal  int            `json:"accounts_total"`
	AccountsFailed int            `json:"accounts_failed"`
	Output         datatypes.JSON `gorm:"type:jsonb" json:"output"`
	ErrorMessage   sql.NullString `json:"error_message"`
	StartedAt      time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt    sql.NullTime   `json:"completed_at"`
}

// TableName specifies the table name for the ScanCycle model.
func (ScanCycle) TableName() string {
	return "scan_cycles"
}
