package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a persisted task in a transport-friendly format.
type Task struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	DueAt         string `json:"dueAt,omitempty"`
	Completed     bool   `json:"completed"`
	ReminderFired bool   `json:"reminderFired"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// SubmitResult carries a completed submission back to the client.
type SubmitResult struct {
	CorrelationID string `json:"correlationId"`
	Intent        string `json:"intent"`
	Provider      string `json:"provider"`
	Content       string `json:"content"`
	Retried       bool   `json:"retried"`
}

// QuotaStatus summarizes current-period usage for display.
type QuotaStatus struct {
	Subject   string `json:"subject"`
	Period    string `json:"period"`
	Limit     int    `json:"limit"`
	Consumed  int    `json:"consumed"`
	Reserved  int    `json:"reserved"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

// ReminderEvent describes one fired reminder.
type ReminderEvent struct {
	TaskID  int64  `json:"taskId"`
	Title   string `json:"title"`
	DueAt   string `json:"dueAt"`
	FiredAt string `json:"firedAt"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running         bool   `json:"running"`
	PID             int    `json:"pid"`
	DatabasePath    string `json:"databasePath"`
	LockFilePath    string `json:"lockFilePath"`
	DefaultProvider string `json:"defaultProvider"`
	LicenseTier     string `json:"licenseTier"`
	OpenTasks       int    `json:"openTasks"`
	DueTasks        int    `json:"dueTasks"`
}
