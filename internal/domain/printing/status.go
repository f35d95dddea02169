package printing

import "time"

// Status is the message shown in the status area after each step of an action
type Status struct {
	Level     StatusLevel `json:"level"`
	Message   string      `json:"message"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewInfoStatus creates an informational status
func NewInfoStatus(message string) Status {
	return Status{Level: StatusLevelInfo, Message: message, UpdatedAt: time.Now()}
}

// NewSuccessStatus creates a success status
func NewSuccessStatus(message string) Status {
	return Status{Level: StatusLevelSuccess, Message: message, UpdatedAt: time.Now()}
}

// NewErrorStatus creates an error status
func NewErrorStatus(message string) Status {
	return Status{Level: StatusLevelError, Message: message, UpdatedAt: time.Now()}
}

// IsError returns true if the status reports a failure
func (s Status) IsError() bool {
	return s.Level == StatusLevelError
}
