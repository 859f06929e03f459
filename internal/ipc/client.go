package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks daemon liveness.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("SmartTask.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("SmartTask.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit routes a command to a provider.
func (c *Client) Submit(command, provider string) (*SubmitResponse, error) {
	var resp SubmitResponse
	req := SubmitRequest{Command: command, Provider: provider}
	if err := c.client.Call("SmartTask.Submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TaskAdd creates a task.
func (c *Client) TaskAdd(title, description, dueAt string) (*TaskAddResponse, error) {
	var resp TaskAddResponse
	req := TaskAddRequest{Title: title, Description: description, DueAt: dueAt}
	if err := c.client.Call("SmartTask.TaskAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TaskList returns tasks matching the filter.
func (c *Client) TaskList(filter string) (*TaskListResponse, error) {
	var resp TaskListResponse
	req := TaskListRequest{Filter: filter}
	if err := c.client.Call("SmartTask.TaskList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TaskUpdate edits a task. Empty fields are left unchanged; clearDue
// removes the due timestamp.
func (c *Client) TaskUpdate(id int64, title, description, dueAt string, clearDue bool) (*TaskUpdateResponse, error) {
	var resp TaskUpdateResponse
	req := TaskUpdateRequest{ID: id, Title: title, Description: description, DueAt: dueAt, ClearDue: clearDue}
	if err := c.client.Call("SmartTask.TaskUpdate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TaskComplete marks a task done.
func (c *Client) TaskComplete(id int64) (*TaskCompleteResponse, error) {
	var resp TaskCompleteResponse
	if err := c.client.Call("SmartTask.TaskComplete", TaskCompleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TaskDelete removes a task.
func (c *Client) TaskDelete(id int64) (*TaskDeleteResponse, error) {
	var resp TaskDeleteResponse
	if err := c.client.Call("SmartTask.TaskDelete", TaskDeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QuotaStatus retrieves current-period usage.
func (c *Client) QuotaStatus() (*QuotaStatusResponse, error) {
	var resp QuotaStatusResponse
	if err := c.client.Call("SmartTask.QuotaStatus", QuotaStatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LicenseActivate submits a license key.
func (c *Client) LicenseActivate(key string) (*LicenseActivateResponse, error) {
	var resp LicenseActivateResponse
	if err := c.client.Call("SmartTask.LicenseActivate", LicenseActivateRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LicenseDeactivate reverts the daemon to the free tier.
func (c *Client) LicenseDeactivate() (*LicenseDeactivateResponse, error) {
	var resp LicenseDeactivateResponse
	if err := c.client.Call("SmartTask.LicenseDeactivate", LicenseDeactivateRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReminderWait long-polls for the next reminder event.
func (c *Client) ReminderWait(waitMillis int) (*ReminderWaitResponse, error) {
	var resp ReminderWaitResponse
	if err := c.client.Call("SmartTask.ReminderWait", ReminderWaitRequest{WaitMillis: waitMillis}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("SmartTask.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
