package entities

import "time"

// ValidationEvent is emitted by validators when a field is checked.
type ValidationEvent struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// AuthResult is the envelope returned by authentication operations.
type AuthResult struct {
	Token   string `json:"token,omitempty"`
	Role    string `json:"role,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelDebug LogLevel = "DEBUG"
)

// LogEntry is a single record kept by a logger instance.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Metadata  *string   `json:"metadata,omitempty"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}
