package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"amp/internal/daemon"
	"amp/internal/logging"
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
	if err := rpcServer.RegisterName("Amp", srv); err != nil {
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
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
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
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
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
	result := s.daemon.Coordinator().Ping()
	resp.Ok = result.Ok
	resp.HasMedia = result.HasMedia
	return nil
}

func (s *service) Apply(req ApplyRequest, resp *ApplyResponse) error {
	result := s.daemon.Coordinator().ApplySettings(s.ctx, req.Hostname, req.Settings)
	resp.Ok = result.Ok
	resp.Error = result.Error
	resp.Applied = result.Applied
	resp.EffectivePro = result.EffectivePro
	if result.Ok {
		s.log().Debug("settings applied via IPC",
			logging.String(logging.FieldHostname, req.Hostname))
	}
	return nil
}

func (s *service) Spectrum(req SpectrumRequest, resp *SpectrumResponse) error {
	result := s.daemon.Coordinator().SpectrumFrame(s.ctx, req.Hostname)
	resp.Ok = result.Ok
	resp.Error = result.Error
	resp.Active = result.Frame.Active
	resp.Levels = result.Frame.Levels
	if resp.Levels == nil {
		resp.Levels = []float64{}
	}
	return nil
}

func (s *service) ResumeAudio(_ ResumeAudioRequest, resp *ResumeAudioResponse) error {
	result := s.daemon.Coordinator().ResumeAudio()
	resp.Ok = result.Ok
	resp.Resumed = result.Resumed
	return nil
}

func (s *service) TrialStart(_ TrialStartRequest, resp *EntitlementResponse) error {
	result := s.daemon.Coordinator().StartTrial(s.ctx)
	resp.Ok = result.Ok
	resp.Error = result.Error
	resp.EffectivePro = result.EffectivePro
	resp.TrialRemainingMillis = result.TrialRemaining.Milliseconds()
	if result.Ok {
		s.log().Info("trial started via IPC",
			logging.String(logging.FieldEventType, "trial_started"))
	}
	return nil
}

func (s *service) LicenseSet(req LicenseSetRequest, resp *EntitlementResponse) error {
	result := s.daemon.Coordinator().SetLicense(s.ctx, req.Licensed)
	resp.Ok = result.Ok
	resp.Error = result.Error
	resp.EffectivePro = result.EffectivePro
	resp.TrialRemainingMillis = result.TrialRemaining.Milliseconds()
	if result.Ok {
		s.log().Info("license updated via IPC",
			logging.Bool("licensed", req.Licensed),
			logging.String(logging.FieldEventType, "license_updated"))
	}
	return nil
}

func (s *service) MixSave(req MixSaveRequest, resp *MixResponse) error {
	result := s.daemon.Coordinator().SaveMix(s.ctx, req.Hostname)
	resp.Ok = result.Ok
	resp.Error = result.Error
	resp.Mix = result.Mix
	resp.Applied = result.Applied
	return nil
}

func (s *service) MixLoad(req MixLoadRequest, resp *MixResponse) error {
	result := s.daemon.Coordinator().LoadMix(s.ctx, req.Hostname)
	resp.Ok = result.Ok
	resp.Error = result.Error
	resp.Mix = result.Mix
	resp.Applied = result.Applied
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.EffectivePro = status.Coordinator.EffectivePro
	resp.Licensed = status.Coordinator.Licensed
	resp.TrialRemainingMillis = status.Coordinator.TrialRemaining.Milliseconds()
	resp.MediaCount = status.Coordinator.MediaCount
	resp.Pipelines = status.Coordinator.Pipelines
	resp.StateDBPath = status.StateDBPath
	resp.LockPath = status.LockFilePath
	resp.StoreHealthy = status.Coordinator.Store.DatabaseExists && status.Coordinator.Store.Error == ""
	resp.StoreError = status.Coordinator.Store.Error
	resp.SiteCount = status.Coordinator.Store.SiteCount
	return nil
}

func (s *service) SettingsList(_ SettingsListRequest, resp *SettingsListResponse) error {
	sites, err := s.daemon.Coordinator().ListSites(s.ctx)
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Ok = true
	resp.Sites = make([]SiteRecord, 0, len(sites))
	for _, site := range sites {
		resp.Sites = append(resp.Sites, SiteRecord{
			Hostname:  site.Hostname,
			Settings:  site.Settings,
			UpdatedAt: site.UpdatedAt.Format(time.RFC3339),
		})
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if err := s.daemon.Coordinator().SendTestNotification(s.ctx); err != nil {
		resp.Ok = false
		resp.Message = err.Error()
		return nil
	}
	resp.Ok = true
	resp.Message = "test notification sent"
	return nil
}
