package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LogLevel is the closed severity set for persisted log records.
type LogLevel string

const (
	LevelInfo    LogLevel = "INFO"
	LevelWarning LogLevel = "WARNING"
	LevelError   LogLevel = "ERROR"
	LevelDebug   LogLevel = "DEBUG"
)

// Valid reports whether l is a member of the closed set.
func (l LogLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError, LevelDebug:
		return true
	}
	return false
}

// NormalizeLevel maps a raw severity string onto the closed set.
// Matching is case-insensitive; WARN maps to WARNING and TRACE to DEBUG.
// Anything else (including empty) falls back to INFO.
func NormalizeLevel(raw string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "INFO":
		return LevelInfo
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "DEBUG", "TRACE":
		return LevelDebug
	}
	return LevelInfo
}

// LogRecord is the canonical persisted log entity. Records are created once
// by the processing worker and never updated or deleted by the pipeline.
type LogRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Message   string    `db:"message" json:"message"`
	LogLevel  LogLevel  `db:"log_level" json:"logLevel"`
	TraceID   string    `db:"trace_id" json:"traceId"`
	SourceApp string    `db:"source_app" json:"sourceApp"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
