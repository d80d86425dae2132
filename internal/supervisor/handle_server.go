package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/tessro/ocd/internal/daemon"
)

// handlePing responds to ping requests.
func (s *Supervisor) handlePing(ctx context.Context, req *daemon.Request) *daemon.Response {
	uptime := time.Since(s.startedAt)
	return successResponse(req, daemon.PingResponse{
		Version:   Version,
		Uptime:    uptime.Round(time.Second).String(),
		StartedAt: s.startedAt,
	})
}

// handleShutdown initiates daemon shutdown.
func (s *Supervisor) handleShutdown(ctx context.Context, req *daemon.Request) *daemon.Response {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	select {
	case <-s.shutdownCh:
		// Already shutting down
	default:
		close(s.shutdownCh)
	}

	return successResponse(req, nil)
}

// handleAttach subscribes the calling connection to push events.
func (s *Supervisor) handleAttach(ctx context.Context, req *daemon.Request) *daemon.Response {
	conn := daemon.ConnFromContext(ctx)
	srv := daemon.ServerFromContext(ctx)
	if conn == nil || srv == nil {
		return errorResponse(req, "internal error: missing connection context")
	}
	srv.Attach(conn)
	return successResponse(req, nil)
}

// handleDetach unsubscribes a client from push events.
func (s *Supervisor) handleDetach(ctx context.Context, req *daemon.Request) *daemon.Response {
	conn := daemon.ConnFromContext(ctx)
	srv := daemon.ServerFromContext(ctx)
	if conn == nil || srv == nil {
		return errorResponse(req, "internal error: missing connection context")
	}
	srv.Detach(conn)
	return successResponse(req, nil)
}

// handlePush relays a tray action to every attached client.
func (s *Supervisor) handlePush(ctx context.Context, req *daemon.Request) *daemon.Response {
	var pushReq daemon.PushRequest
	if err := unmarshalPayload(req.Payload, &pushReq); err != nil {
		return invalidPayload(req, err)
	}
	if !pushReq.Kind.Valid() {
		return errorResponse(req, "unknown push kind: "+string(pushReq.Kind))
	}

	srv := s.Server()
	if srv == nil {
		srv = daemon.ServerFromContext(ctx)
	}
	if srv == nil {
		return errorResponse(req, "internal error: no server")
	}
	n := srv.Broadcast(&daemon.StreamEvent{Type: "push", Kind: pushReq.Kind, Timestamp: time.Now()})
	slog.Info("push relayed", "kind", pushReq.Kind, "clients", n)
	return successResponse(req, nil)
}
