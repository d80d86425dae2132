package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Client connects to the ocd daemon over Unix socket.
// It implements Boundary, so the desktop state layer talks to it directly.
type Client struct {
	socketPath     string
	requestTimeout time.Duration

	mu sync.Mutex
	// +checklocks:mu
	conn net.Conn
	// +checklocks:mu
	encoder *json.Encoder
	// +checklocks:mu
	decoder *json.Decoder

	// ioMu serializes all I/O operations (encode/decode).
	// Must be acquired AFTER mu if both are needed.
	ioMu sync.Mutex

	reqID atomic.Uint64

	// Push events via dedicated connection
	eventMu sync.Mutex
	// +checklocks:eventMu
	eventConn net.Conn
	// +checklocks:eventMu
	eventDone chan struct{}
}

// ConnectTimeout is the default timeout for connecting to the daemon.
const ConnectTimeout = 5 * time.Second

// RequestTimeout is the default timeout for request/response operations.
// Chat sends wait on a model round trip, so this is long.
const RequestTimeout = 10 * time.Minute

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRequestTimeout overrides RequestTimeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// NewClient creates a new daemon client.
func NewClient(socketPath string, opts ...ClientOption) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	c := &Client{
		socketPath:     socketPath,
		requestTimeout: RequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes a connection to the daemon.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil // Already connected
	}

	conn, err := net.DialTimeout("unix", c.socketPath, ConnectTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.conn = conn
	c.encoder = json.NewEncoder(conn)
	c.decoder = json.NewDecoder(conn)
	return nil
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	c.StopEventStream()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.encoder = nil
	c.decoder = nil
	return err
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SocketPath returns the socket path this client connects to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// nextID generates the next request ID.
func (c *Client) nextID() string {
	return fmt.Sprintf("req-%d", c.reqID.Add(1))
}

// decodePayload decodes the response payload into the given type.
// If payload is nil, returns a pointer to the zero value of T.
func decodePayload[T any](payload any) (*T, error) {
	var result T
	if payload == nil {
		return &result, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &result, nil
}

// Send sends a request and waits for the response using the client's request timeout.
func (c *Client) Send(req *Request) (*Response, error) {
	return c.SendContext(context.Background(), req)
}

// SendContext sends a request and waits for the response.
// The exchange is bounded by the request timeout and by ctx, whichever ends first.
// On connection errors, the connection is closed so that IsConnected() returns false.
func (c *Client) SendContext(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	conn := c.conn
	encoder := c.encoder
	decoder := c.decoder
	c.mu.Unlock()

	if req.ID == "" {
		req.ID = c.nextID()
	}

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	deadline := time.Now().Add(c.requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		c.closeConn()
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	// Unblock the exchange if ctx is cancelled mid-flight.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := encoder.Encode(req); err != nil {
		c.closeConn()
		return nil, c.wrapIOError(ctx, "encode request", err)
	}

	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		c.closeConn()
		return nil, c.wrapIOError(ctx, "decode response", err)
	}

	return &resp, nil
}

func (c *Client) wrapIOError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrRequestTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// closeConn closes the main connection and clears connection state.
// Caller must NOT hold c.mu.
func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.encoder = nil
		c.decoder = nil
	}
}

// call performs a request and decodes a successful payload into T.
func call[T any](ctx context.Context, c *Client, op string, msgType MessageType, payload any) (*T, error) {
	resp, err := c.SendContext(ctx, &Request{Type: msgType, Payload: payload})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, NewServerError(op, resp.Error)
	}
	return decodePayload[T](resp.Payload)
}

// exec performs a request that carries no response payload.
func (c *Client) exec(ctx context.Context, op string, msgType MessageType, payload any) error {
	resp, err := c.SendContext(ctx, &Request{Type: msgType, Payload: payload})
	if err != nil {
		return err
	}
	if !resp.Success {
		return NewServerError(op, resp.Error)
	}
	return nil
}

// Ping sends a ping request to check daemon connectivity.
func (c *Client) Ping() (*PingResponse, error) {
	return call[PingResponse](context.Background(), c, "ping", MsgPing, nil)
}

// Shutdown requests the daemon to shut down.
func (c *Client) Shutdown() error {
	return c.exec(context.Background(), "shutdown", MsgShutdown, nil)
}

// Push fires a push notification that the daemon relays to attached clients.
func (c *Client) Push(ctx context.Context, kind PushKind) error {
	return c.exec(ctx, "push", MsgPush, PushRequest{Kind: kind})
}

// ListProfiles returns the profile store, creating a default profile if none exist.
func (c *Client) ListProfiles(ctx context.Context) (*ProfilesStore, error) {
	return call[ProfilesStore](ctx, c, "profiles.list", MsgProfilesList, nil)
}

// CreateProfile adds a profile and makes it active.
func (c *Client) CreateProfile(ctx context.Context, name string) (*ProfilesStore, error) {
	return call[ProfilesStore](ctx, c, "profiles.create", MsgProfilesCreate, ProfileCreateRequest{Name: name})
}

// SetActiveProfile selects the active profile.
func (c *Client) SetActiveProfile(ctx context.Context, profileID string) (*ProfilesStore, error) {
	return call[ProfilesStore](ctx, c, "profiles.set_active", MsgProfilesSetActive, ProfileRequest{ProfileID: profileID})
}

// RenameProfile renames a profile.
func (c *Client) RenameProfile(ctx context.Context, profileID, name string) (*ProfilesStore, error) {
	return call[ProfilesStore](ctx, c, "profiles.rename", MsgProfilesRename, ProfileRenameRequest{ProfileID: profileID, Name: name})
}

// DeleteProfile removes a profile. The daemon refuses to delete the last one.
func (c *Client) DeleteProfile(ctx context.Context, profileID string) (*ProfilesStore, error) {
	return call[ProfilesStore](ctx, c, "profiles.delete", MsgProfilesDelete, ProfileRequest{ProfileID: profileID})
}

// SetSecret stores a secret for a profile.
func (c *Client) SetSecret(ctx context.Context, profileID, key, value string) error {
	return c.exec(ctx, "secrets.set", MsgSecretsSet, SecretRequest{ProfileID: profileID, Key: key, Value: value})
}

// GetSecret reads a secret. Returns nil if none is stored.
func (c *Client) GetSecret(ctx context.Context, profileID, key string) (*string, error) {
	resp, err := call[SecretGetResponse](ctx, c, "secrets.get", MsgSecretsGet, SecretRequest{ProfileID: profileID, Key: key})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// DeleteSecret removes a secret. Deleting a missing secret succeeds.
func (c *Client) DeleteSecret(ctx context.Context, profileID, key string) error {
	return c.exec(ctx, "secrets.delete", MsgSecretsDelete, SecretRequest{ProfileID: profileID, Key: key})
}

// ListChats returns the chat index of a profile.
func (c *Client) ListChats(ctx context.Context, profileID string) (*ChatIndex, error) {
	return call[ChatIndex](ctx, c, "chats.list", MsgChatsList, ProfileRequest{ProfileID: profileID})
}

// CreateChat creates a chat. A nil title uses the daemon's default.
func (c *Client) CreateChat(ctx context.Context, profileID string, title *string) (*Chat, error) {
	return call[Chat](ctx, c, "chats.create", MsgChatsCreate, ChatCreateRequest{ProfileID: profileID, Title: title})
}

// RenameChat renames a chat and returns the updated index.
func (c *Client) RenameChat(ctx context.Context, profileID, chatID, title string) (*ChatIndex, error) {
	return call[ChatIndex](ctx, c, "chats.rename", MsgChatsRename, ChatRenameRequest{ProfileID: profileID, ChatID: chatID, Title: title})
}

// UpdateChat applies a partial settings update and returns the updated index.
func (c *Client) UpdateChat(ctx context.Context, profileID, chatID string, update ChatSettingsUpdate) (*ChatIndex, error) {
	return call[ChatIndex](ctx, c, "chats.update", MsgChatsUpdate, ChatUpdateRequest{ProfileID: profileID, ChatID: chatID, Update: update})
}

// DeleteChat deletes a chat and its thread, returning the updated index.
func (c *Client) DeleteChat(ctx context.Context, profileID, chatID string) (*ChatIndex, error) {
	return call[ChatIndex](ctx, c, "chats.delete", MsgChatsDelete, ChatRequest{ProfileID: profileID, ChatID: chatID})
}

// ChatThread returns the message history of a chat.
func (c *Client) ChatThread(ctx context.Context, profileID, chatID string) (*ChatThread, error) {
	return call[ChatThread](ctx, c, "chat.thread", MsgChatThread, ChatRequest{ProfileID: profileID, ChatID: chatID})
}

// SendChat sends a user message and waits for the agent's reply.
func (c *Client) SendChat(ctx context.Context, profileID, chatID, text string) (*ChatSendResult, error) {
	return call[ChatSendResult](ctx, c, "chat.send", MsgChatSend, ChatSendRequest{ProfileID: profileID, ChatID: chatID, Text: text})
}

// ResetChat clears a chat's messages.
func (c *Client) ResetChat(ctx context.Context, profileID, chatID string) (*ChatThread, error) {
	return call[ChatThread](ctx, c, "chat.reset", MsgChatReset, ChatRequest{ProfileID: profileID, ChatID: chatID})
}

// GatewayStatus runs `gateway status` for a profile.
func (c *Client) GatewayStatus(ctx context.Context, profileID string) (*GatewayStatus, error) {
	return call[GatewayStatus](ctx, c, "gateway.status", MsgGatewayStatus, ProfileRequest{ProfileID: profileID})
}

// GatewayStart runs `gateway start` for a profile.
func (c *Client) GatewayStart(ctx context.Context, profileID string) (*GatewayStatus, error) {
	return call[GatewayStatus](ctx, c, "gateway.start", MsgGatewayStart, ProfileRequest{ProfileID: profileID})
}

// GatewayStop runs `gateway stop` for a profile.
func (c *Client) GatewayStop(ctx context.Context, profileID string) (*GatewayStatus, error) {
	return call[GatewayStatus](ctx, c, "gateway.stop", MsgGatewayStop, ProfileRequest{ProfileID: profileID})
}

// GatewayRestart runs `gateway restart` for a profile.
func (c *Client) GatewayRestart(ctx context.Context, profileID string) (*GatewayStatus, error) {
	return call[GatewayStatus](ctx, c, "gateway.restart", MsgGatewayRestart, ProfileRequest{ProfileID: profileID})
}

// GatewayLogs tails the gateway logs. Zero lines uses DefaultGatewayLogLines.
func (c *Client) GatewayLogs(ctx context.Context, lines int) (*GatewayLogs, error) {
	return call[GatewayLogs](ctx, c, "gateway.logs", MsgGatewayLogs, GatewayLogsRequest{Lines: lines})
}

// GetSettings returns a profile's settings with defaults applied.
func (c *Client) GetSettings(ctx context.Context, profileID string) (*ProfileSettings, error) {
	return call[ProfileSettings](ctx, c, "settings.get", MsgSettingsGet, ProfileRequest{ProfileID: profileID})
}

// SetOpenclawPath overrides the openclaw binary for a profile. Nil clears it.
func (c *Client) SetOpenclawPath(ctx context.Context, profileID string, path *string) (*ProfileSettings, error) {
	return call[ProfileSettings](ctx, c, "settings.set_openclaw_path", MsgSettingsSetOpenclawPath, SettingsStringRequest{ProfileID: profileID, Value: path})
}

// SetOllamaBaseURL sets the Ollama endpoint for a profile. Nil clears it.
func (c *Client) SetOllamaBaseURL(ctx context.Context, profileID string, baseURL *string) (*ProfileSettings, error) {
	return call[ProfileSettings](ctx, c, "settings.set_ollama_base_url", MsgSettingsSetOllamaBaseURL, SettingsStringRequest{ProfileID: profileID, Value: baseURL})
}

// SetOllamaModel sets the Ollama model for a profile. Nil clears it.
func (c *Client) SetOllamaModel(ctx context.Context, profileID string, model *string) (*ProfileSettings, error) {
	return call[ProfileSettings](ctx, c, "settings.set_ollama_model", MsgSettingsSetOllamaModel, SettingsStringRequest{ProfileID: profileID, Value: model})
}

// SetDevFullExecAuto toggles developer full-exec auto mode for a profile.
func (c *Client) SetDevFullExecAuto(ctx context.Context, profileID string, enabled bool) (*ProfileSettings, error) {
	return call[ProfileSettings](ctx, c, "settings.set_dev_full_exec_auto", MsgSettingsSetDevFullExecAuto, SettingsBoolRequest{ProfileID: profileID, Enabled: enabled})
}

// SetAutoDoMode toggles whether action requests are steered to tool calls.
func (c *Client) SetAutoDoMode(ctx context.Context, profileID string, enabled bool) (*ProfileSettings, error) {
	return call[ProfileSettings](ctx, c, "settings.set_auto_do_mode", MsgSettingsSetAutoDoMode, SettingsBoolRequest{ProfileID: profileID, Enabled: enabled})
}

// GetAutostart reports whether ocd launches at login.
func (c *Client) GetAutostart(ctx context.Context) (bool, error) {
	resp, err := call[AutostartPayload](ctx, c, "autostart.get", MsgAutostartGet, nil)
	if err != nil {
		return false, err
	}
	return resp.Enabled, nil
}

// SetAutostart enables or disables launch at login.
func (c *Client) SetAutostart(ctx context.Context, enabled bool) error {
	return c.exec(ctx, "autostart.set", MsgAutostartSet, AutostartPayload{Enabled: enabled})
}

// ModelsStatus runs `models status` for a profile.
func (c *Client) ModelsStatus(ctx context.Context, profileID string) (*ModelsStatus, error) {
	return call[ModelsStatus](ctx, c, "models.status", MsgModelsStatus, ProfileRequest{ProfileID: profileID})
}

// SetDefaultModel runs `models set <model>` for a profile.
func (c *Client) SetDefaultModel(ctx context.Context, profileID, model string) (*ModelsStatus, error) {
	return call[ModelsStatus](ctx, c, "models.set", MsgModelsSet, ModelsSetRequest{ProfileID: profileID, Model: model})
}

// StreamEvents opens a dedicated connection for push events and returns a channel.
// Events are received on the channel until an error occurs or StopEventStream is called.
func (c *Client) StreamEvents() (<-chan EventResult, error) {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	// Close any existing event stream
	if c.eventConn != nil {
		c.eventConn.Close()
		if c.eventDone != nil {
			close(c.eventDone)
		}
		c.eventConn = nil
		c.eventDone = nil
	}

	conn, err := net.DialTimeout("unix", c.socketPath, ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial daemon for events: %w", err)
	}

	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	req := &Request{ID: "event-stream", Type: MsgAttach}
	if err := encoder.Encode(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("encode attach request: %w", err)
	}

	var resp Response
	if err := decoder.Decode(&resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode attach response: %w", err)
	}
	if !resp.Success {
		conn.Close()
		return nil, NewServerError("attach", resp.Error)
	}

	c.eventConn = conn
	c.eventDone = make(chan struct{})
	done := c.eventDone

	events := make(chan EventResult, 16)

	go func() {
		defer close(events)
		defer conn.Close()

		for {
			var event StreamEvent
			if err := decoder.Decode(&event); err != nil {
				select {
				case <-done:
					// Clean shutdown, don't send error
				case events <- EventResult{Err: fmt.Errorf("decode event: %w", err)}:
				}
				return
			}

			select {
			case <-done:
				return
			case events <- EventResult{Event: &event}:
			}
		}
	}()

	return events, nil
}

// StopEventStream stops the event streaming goroutine and closes the event connection.
func (c *Client) StopEventStream() {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	if c.eventDone != nil {
		close(c.eventDone)
		c.eventDone = nil
	}
	if c.eventConn != nil {
		c.eventConn.Close()
		c.eventConn = nil
	}
}
