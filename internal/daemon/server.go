package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tessro/ocd/internal/logging"
	"github.com/tessro/ocd/internal/paths"
)

// DefaultSocketPath returns the default Unix socket path.
func DefaultSocketPath() string {
	return paths.SocketPath()
}

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	connKey   contextKey = "conn"
	serverKey contextKey = "server"
)

// Handler processes IPC requests and returns responses.
// This interface is implemented by the supervisor or a stub for testing.
type Handler interface {
	// Handle processes a request and returns a response.
	// Use ConnFromContext and ServerFromContext to retrieve the caller's
	// connection and the server for attach and push handling.
	Handle(ctx context.Context, req *Request) *Response
}

// ConnFromContext retrieves the client connection from the context.
func ConnFromContext(ctx context.Context) net.Conn {
	conn, _ := ctx.Value(connKey).(net.Conn)
	return conn
}

// ServerFromContext retrieves the server from the context.
func ServerFromContext(ctx context.Context) *Server {
	srv, _ := ctx.Value(serverKey).(*Server)
	return srv
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, req *Request) *Response

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}

// Server is the Unix socket RPC server for the ocd daemon.
type Server struct {
	socketPath string
	handler    Handler
	listener   net.Listener // Set in Start before goroutine, closed in Stop

	// ctx is cancelled on Stop so in-flight handlers can abandon work.
	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	// +checklocks:mu
	conns map[net.Conn]struct{}
	// +checklocks:mu
	attached map[net.Conn]*attachedClient
	// +checklocks:mu
	started bool
	done    chan struct{}
}

// attachedClient is a connection subscribed to push events.
type attachedClient struct {
	mu sync.Mutex
	// +checklocks:mu
	encoder *json.Encoder
}

// NewServer creates a new daemon server.
func NewServer(socketPath string, handler Handler) *Server {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		ctx:        ctx,
		cancel:     cancel,
		conns:      make(map[net.Conn]struct{}),
		attached:   make(map[net.Conn]*attachedClient),
		done:       make(chan struct{}),
	}
}

// SocketPath returns the socket path this server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening on the Unix socket.
// Returns an error if the server is already running or cannot bind.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	// Remove stale socket file if it exists
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}

	// Owner only: the socket exposes secrets.
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.started = true
	s.mu.Unlock()

	slog.Info("daemon server started", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer logging.LogPanic("daemon-accept", nil)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return // Server shutting down
			default:
				slog.Error("accept connection failed", "error", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		connCount := len(s.conns)
		s.mu.Unlock()

		slog.Debug("client connected", "connections", connCount)

		go s.handleConnection(conn)
	}
}

// handleConnection processes requests from a single client.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.attached, conn)
		connCount := len(s.conns)
		s.mu.Unlock()
		slog.Debug("client disconnected", "connections", connCount)
	}()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	baseCtx := context.WithValue(s.ctx, connKey, conn)
	baseCtx = context.WithValue(baseCtx, serverKey, s)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("decode request failed", "error", err)
			_ = encoder.Encode(&Response{
				Success: false,
				Error:   fmt.Sprintf("decode request: %v", err),
			})
			return
		}

		slog.Debug("request received", "type", req.Type, "id", req.ID)

		resp := s.dispatch(baseCtx, &req)

		if !resp.Success {
			slog.Warn("request failed", "type", req.Type, "error", resp.Error)
		}

		// Attached connections share the encoder with Broadcast.
		if client := s.attachedClient(conn); client != nil {
			client.mu.Lock()
			err := client.encoder.Encode(resp)
			client.mu.Unlock()
			if err != nil {
				return
			}
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			slog.Debug("write response failed", "error", err)
			return
		}
	}
}

// dispatch runs the handler, converting panics and nil results into failures.
func (s *Server) dispatch(ctx context.Context, req *Request) (resp *Response) {
	defer logging.LogPanic("daemon-handler", func(r any) {
		resp = &Response{Success: false, Error: fmt.Sprintf("internal error: %v", r)}
		fillCorrelation(resp, req)
	})

	resp = s.handler.Handle(ctx, req)
	if resp == nil {
		resp = &Response{Success: false, Error: "handler returned nil response"}
	}
	fillCorrelation(resp, req)
	return resp
}

func fillCorrelation(resp *Response, req *Request) {
	if resp.Type == "" {
		resp.Type = req.Type
	}
	if resp.ID == "" {
		resp.ID = req.ID
	}
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	connCount := len(s.conns)
	s.mu.Unlock()

	slog.Info("daemon server stopping", "active_connections", connCount)

	close(s.done)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[net.Conn]struct{})
	s.attached = make(map[net.Conn]*attachedClient)
	s.mu.Unlock()

	os.Remove(s.socketPath)

	slog.Info("daemon server stopped")

	return nil
}

// Addr returns the listener address, or empty string if not started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Attach registers a connection for push events.
func (s *Server) Attach(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attached[conn]; ok {
		return
	}
	s.attached[conn] = &attachedClient{encoder: json.NewEncoder(conn)}
}

// Detach removes a connection from push events.
func (s *Server) Detach(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attached, conn)
}

func (s *Server) attachedClient(conn net.Conn) *attachedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached[conn]
}

// Broadcast sends a push event to all attached clients.
// Clients whose connection fails are detached.
func (s *Server) Broadcast(event *StreamEvent) int {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.attached))
	clients := make([]*attachedClient, 0, len(s.attached))
	for conn, client := range s.attached {
		conns = append(conns, conn)
		clients = append(clients, client)
	}
	s.mu.Unlock()

	delivered := 0
	for i, client := range clients {
		client.mu.Lock()
		err := client.encoder.Encode(event)
		client.mu.Unlock()
		if err != nil {
			slog.Debug("push delivery failed", "kind", event.Kind, "error", err)
			s.Detach(conns[i])
			continue
		}
		delivered++
	}
	return delivered
}

// AttachedCount returns the number of attached streaming clients.
func (s *Server) AttachedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}
