package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"smarttask/internal/api"
	"smarttask/internal/daemon"
	"smarttask/internal/logging"
	"smarttask/internal/scheduler"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("SmartTask", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.DefaultProvider = status.DefaultProvider
	resp.LicenseTier = string(status.LicenseTier)
	resp.OpenTasks = status.OpenTasks
	resp.DueTasks = status.DueTasks
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	result, err := s.daemon.Submit(s.ctx, req.Command, req.Provider)
	if err != nil {
		return err
	}
	resp.Result = api.FromSubmitResult(result)
	return nil
}

func (s *service) TaskAdd(req TaskAddRequest, resp *TaskAddResponse) error {
	dueAt, err := api.ParseDueAt(req.DueAt)
	if err != nil {
		return fmt.Errorf("parse due time: %w", err)
	}
	task, err := s.daemon.CreateTask(s.ctx, req.Title, req.Description, dueAt)
	if err != nil {
		return err
	}
	resp.Task = api.FromTask(task)
	s.log().Info("task added via IPC",
		logging.String(logging.FieldEventType, "task_add"),
		logging.Int64(logging.FieldTaskID, task.ID))
	return nil
}

func (s *service) TaskList(req TaskListRequest, resp *TaskListResponse) error {
	filter, err := scheduler.ParseFilter(strings.TrimSpace(req.Filter))
	if err != nil {
		return err
	}
	tasks, err := s.daemon.ListTasks(s.ctx, filter)
	if err != nil {
		return err
	}
	resp.Tasks = api.FromTasks(tasks)
	return nil
}

func (s *service) TaskUpdate(req TaskUpdateRequest, resp *TaskUpdateResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid task id %d", req.ID)
	}
	update := scheduler.TaskUpdate{ClearDue: req.ClearDue}
	if req.Title != "" {
		update.Title = &req.Title
	}
	if req.Description != "" {
		update.Description = &req.Description
	}
	if req.DueAt != "" {
		dueAt, err := api.ParseDueAt(req.DueAt)
		if err != nil {
			return fmt.Errorf("parse due time: %w", err)
		}
		update.DueAt = dueAt
	}
	task, err := s.daemon.UpdateTask(s.ctx, req.ID, update)
	if err != nil {
		return err
	}
	resp.Task = api.FromTask(task)
	s.log().Info("task updated via IPC",
		logging.String(logging.FieldEventType, "task_update"),
		logging.Int64(logging.FieldTaskID, task.ID))
	return nil
}

func (s *service) TaskComplete(req TaskCompleteRequest, resp *TaskCompleteResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid task id %d", req.ID)
	}
	if err := s.daemon.CompleteTask(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Completed = true
	return nil
}

func (s *service) TaskDelete(req TaskDeleteRequest, resp *TaskDeleteResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid task id %d", req.ID)
	}
	if err := s.daemon.DeleteTask(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Deleted = true
	return nil
}

func (s *service) QuotaStatus(_ QuotaStatusRequest, resp *QuotaStatusResponse) error {
	status, err := s.daemon.QuotaStatus(s.ctx)
	if err != nil {
		return err
	}
	resp.Status = api.FromQuotaStatus(status)
	return nil
}

func (s *service) LicenseActivate(req LicenseActivateRequest, resp *LicenseActivateResponse) error {
	if err := s.daemon.ActivateLicense(s.ctx, req.Key); err != nil {
		return err
	}
	resp.Tier = string(s.daemon.LicenseTier())
	s.log().Info("license activated via IPC",
		logging.String(logging.FieldEventType, "license_activate"))
	return nil
}

func (s *service) LicenseDeactivate(req LicenseDeactivateRequest, resp *LicenseDeactivateResponse) error {
	if err := s.daemon.DeactivateLicense(s.ctx); err != nil {
		return err
	}
	resp.Tier = string(s.daemon.LicenseTier())
	s.log().Info("license deactivated via IPC",
		logging.String(logging.FieldEventType, "license_deactivate"))
	return nil
}

func (s *service) ReminderWait(req ReminderWaitRequest, resp *ReminderWaitResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 {
		wait = time.Second
	}
	event, ok := s.daemon.WaitReminder(s.ctx, wait)
	if !ok {
		return nil
	}
	dto := api.FromReminderEvent(event)
	resp.Event = &dto
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
