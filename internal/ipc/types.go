package ipc

import "smarttask/internal/api"

// Task mirrors the API task DTO for IPC callers.
type Task = api.Task

// SubmitResult mirrors the API submit DTO for IPC callers.
type SubmitResult = api.SubmitResult

// QuotaStatus mirrors the API quota DTO for IPC callers.
type QuotaStatus = api.QuotaStatus

// ReminderEvent mirrors the API reminder DTO for IPC callers.
type ReminderEvent = api.ReminderEvent

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse confirms daemon liveness.
type PingResponse struct {
	PID int `json:"pid"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running         bool   `json:"running"`
	PID             int    `json:"pid"`
	DatabasePath    string `json:"database_path"`
	LockPath        string `json:"lock_path"`
	DefaultProvider string `json:"default_provider"`
	LicenseTier     string `json:"license_tier"`
	OpenTasks       int    `json:"open_tasks"`
	DueTasks        int    `json:"due_tasks"`
}

// SubmitRequest routes one command to a provider.
type SubmitRequest struct {
	Command  string `json:"command"`
	Provider string `json:"provider,omitempty"`
}

// SubmitResponse carries the generated content.
type SubmitResponse struct {
	Result SubmitResult `json:"result"`
}

// TaskAddRequest creates a task. DueAt is RFC3339 or empty.
type TaskAddRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueAt       string `json:"due_at,omitempty"`
}

// TaskAddResponse returns the created task.
type TaskAddResponse struct {
	Task Task `json:"task"`
}

// TaskListRequest filters the task listing.
type TaskListRequest struct {
	Filter string `json:"filter,omitempty"`
}

// TaskListResponse contains the matching tasks.
type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}

// TaskUpdateRequest edits a task. Empty fields are left unchanged; DueAt is
// RFC3339 and ClearDue removes the due timestamp.
type TaskUpdateRequest struct {
	ID          int64  `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	DueAt       string `json:"due_at,omitempty"`
	ClearDue    bool   `json:"clear_due,omitempty"`
}

// TaskUpdateResponse returns the updated task.
type TaskUpdateResponse struct {
	Task Task `json:"task"`
}

// TaskCompleteRequest marks a task done by id.
type TaskCompleteRequest struct {
	ID int64 `json:"id"`
}

// TaskCompleteResponse confirms completion.
type TaskCompleteResponse struct {
	Completed bool `json:"completed"`
}

// TaskDeleteRequest removes a task by id.
type TaskDeleteRequest struct {
	ID int64 `json:"id"`
}

// TaskDeleteResponse confirms removal.
type TaskDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// QuotaStatusRequest fetches current-period usage.
type QuotaStatusRequest struct{}

// QuotaStatusResponse reports current-period usage.
type QuotaStatusResponse struct {
	Status QuotaStatus `json:"status"`
}

// LicenseActivateRequest submits a license key for validation.
type LicenseActivateRequest struct {
	Key string `json:"key"`
}

// LicenseActivateResponse reports the resulting tier.
type LicenseActivateResponse struct {
	Tier string `json:"tier"`
}

// LicenseDeactivateRequest reverts the daemon to the free tier.
type LicenseDeactivateRequest struct{}

// LicenseDeactivateResponse reports the resulting tier.
type LicenseDeactivateResponse struct {
	Tier string `json:"tier"`
}

// ReminderWaitRequest long-polls for the next reminder event.
type ReminderWaitRequest struct {
	WaitMillis int `json:"wait_millis"`
}

// ReminderWaitResponse returns at most one reminder event.
type ReminderWaitResponse struct {
	Event *ReminderEvent `json:"event,omitempty"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
