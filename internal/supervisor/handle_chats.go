package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/ollama"
	"github.com/tessro/ocd/internal/openclaw"
	"github.com/tessro/ocd/internal/tools"
)

func (s *Supervisor) handleChatsList(ctx context.Context, req *daemon.Request) *daemon.Response {
	var profileReq daemon.ProfileRequest
	if err := unmarshalPayload(req.Payload, &profileReq); err != nil {
		return invalidPayload(req, err)
	}
	ix, err := s.store.ListChats(ctx, profileReq.ProfileID)
	return respond(req, ix, err)
}

func (s *Supervisor) handleChatsCreate(ctx context.Context, req *daemon.Request) *daemon.Response {
	var createReq daemon.ChatCreateRequest
	if err := unmarshalPayload(req.Payload, &createReq); err != nil {
		return invalidPayload(req, err)
	}
	c, err := s.store.CreateChat(ctx, createReq.ProfileID, createReq.Title)
	return respond(req, c, err)
}

func (s *Supervisor) handleChatsRename(ctx context.Context, req *daemon.Request) *daemon.Response {
	var renameReq daemon.ChatRenameRequest
	if err := unmarshalPayload(req.Payload, &renameReq); err != nil {
		return invalidPayload(req, err)
	}
	ix, err := s.store.RenameChat(ctx, renameReq.ProfileID, renameReq.ChatID, renameReq.Title)
	return respond(req, ix, err)
}

func (s *Supervisor) handleChatsUpdate(ctx context.Context, req *daemon.Request) *daemon.Response {
	var updateReq daemon.ChatUpdateRequest
	if err := unmarshalPayload(req.Payload, &updateReq); err != nil {
		return invalidPayload(req, err)
	}
	if t := updateReq.Update.Thinking; t != nil && *t != "" && !t.Valid() {
		return errorResponse(req, fmt.Sprintf("invalid thinking level %q", *t))
	}
	ix, err := s.store.UpdateChat(ctx, updateReq.ProfileID, updateReq.ChatID, updateReq.Update)
	return respond(req, ix, err)
}

func (s *Supervisor) handleChatsDelete(ctx context.Context, req *daemon.Request) *daemon.Response {
	var chatReq daemon.ChatRequest
	if err := unmarshalPayload(req.Payload, &chatReq); err != nil {
		return invalidPayload(req, err)
	}
	ix, err := s.store.DeleteChat(ctx, chatReq.ProfileID, chatReq.ChatID)
	return respond(req, ix, err)
}

func (s *Supervisor) handleChatThread(ctx context.Context, req *daemon.Request) *daemon.Response {
	var chatReq daemon.ChatRequest
	if err := unmarshalPayload(req.Payload, &chatReq); err != nil {
		return invalidPayload(req, err)
	}
	t, err := s.store.Thread(ctx, chatReq.ProfileID, chatReq.ChatID)
	return respond(req, t, err)
}

func (s *Supervisor) handleChatReset(ctx context.Context, req *daemon.Request) *daemon.Response {
	var chatReq daemon.ChatRequest
	if err := unmarshalPayload(req.Payload, &chatReq); err != nil {
		return invalidPayload(req, err)
	}
	t, err := s.store.ResetThread(ctx, chatReq.ProfileID, chatReq.ChatID)
	return respond(req, t, err)
}

func (s *Supervisor) handleChatSend(ctx context.Context, req *daemon.Request) *daemon.Response {
	var sendReq daemon.ChatSendRequest
	if err := unmarshalPayload(req.Payload, &sendReq); err != nil {
		return invalidPayload(req, err)
	}
	res, err := s.sendChat(ctx, sendReq.ProfileID, sendReq.ChatID, sendReq.Text)
	return respond(req, res, err)
}

// sendChat commits the user message, asks the model and commits its reply.
// A model failure is not a request failure: the reply is committed as an
// error message instead.
func (s *Supervisor) sendChat(ctx context.Context, profileID, chatID, text string) (*daemon.ChatSendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message required")
	}
	end, err := s.beginSend(profileID, chatID)
	if err != nil {
		return nil, err
	}
	defer end()

	if _, err := s.store.AppendMessage(ctx, profileID, chatID, daemon.RoleUser, text); err != nil {
		return nil, err
	}
	thread, err := s.store.Thread(ctx, profileID, chatID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings(ctx, profileID)
	if err != nil {
		return nil, err
	}

	reply, err := s.ask(ctx, profileID, settings, thread)
	if err != nil {
		slog.Warn("agent call failed", "profile", profileID, "chat", chatID, "error", err)
		reply = daemon.ErrorMarker + " " + err.Error()
	}

	msg, err := s.store.AppendMessage(ctx, profileID, chatID, daemon.RoleAssistant, reply)
	if err != nil {
		return nil, err
	}
	thread, err = s.store.Thread(ctx, profileID, chatID)
	if err != nil {
		return nil, err
	}
	return &daemon.ChatSendResult{Thread: *thread, AssistantMessageID: msg.ID}, nil
}

// maxToolSteps bounds model round trips for one message.
const maxToolSteps = 6

// ErrToolLoopExceeded is returned when the model keeps calling tools.
var ErrToolLoopExceeded = errors.New("tool loop exceeded")

// ask sends the tail of the thread to the profile's Ollama model and runs the
// tool calls it makes until it gives an answer. exec runs only with full exec
// auto on; otherwise the model is told the call was denied.
func (s *Supervisor) ask(ctx context.Context, profileID string, settings *daemon.ProfileSettings, thread *daemon.ChatThread) (string, error) {
	devExec := settings.DevFullExecAuto != nil && *settings.DevFullExecAuto
	autoDo := settings.AutoDoMode != nil && *settings.AutoDoMode
	msgs := s.baseMessages(thread, devExec, autoDo)

	client := ollama.New(deref(settings.OllamaBaseURL))
	model := deref(settings.OllamaModel)
	for step := 0; step < maxToolSteps; step++ {
		resp, err := client.Chat(ctx, ollama.ChatRequest{Model: model, Messages: msgs})
		if err != nil {
			return "", err
		}
		content := resp.Message.Content
		call, ok := tools.Parse(content)
		if !ok {
			return content, nil
		}

		var result string
		switch call.Tool {
		case tools.Final:
			return call.Text, nil
		case tools.WebGet:
			slog.Info("tool call", "tool", call.Tool, "profile", profileID, "url", call.URL)
			out := tools.Result(s.tools.WebGet(ctx, call.URL))
			result = fmt.Sprintf("Tool result (web_get):\nURL: %s\n\n%s", call.URL, out)
		case tools.Exec:
			if !devExec {
				slog.Info("tool call denied", "tool", call.Tool, "profile", profileID)
				result = "Tool denied: exec is disabled (full exec auto is off). Return a final answer without exec."
				break
			}
			slog.Info("tool call", "tool", call.Tool, "profile", profileID, "cmd", call.Cmd)
			out := tools.Result(s.tools.Exec(ctx, call.Cmd, s.workDir(profileID)))
			result = fmt.Sprintf("Tool result (exec):\n$ %s\n\n%s", call.Cmd, out)
		}
		msgs = append(msgs,
			ollama.Message{Role: ollama.RoleAssistant, Content: content},
			ollama.Message{Role: ollama.RoleUser, Content: result},
		)
	}
	return "", ErrToolLoopExceeded
}

// baseMessages is the system prompt plus the thread tail. In auto-do mode an
// action request gets a trailing nudge towards a tool call.
func (s *Supervisor) baseMessages(thread *daemon.ChatThread, devExec, autoDo bool) []ollama.Message {
	msgs := []ollama.Message{{Role: ollama.RoleSystem, Content: systemPrompt(devExec, autoDo)}}

	history := thread.Messages
	if len(history) > s.config.History {
		history = history[len(history)-s.config.History:]
	}
	for _, m := range history {
		role := ollama.RoleUser
		if m.Role == daemon.RoleAssistant {
			role = ollama.RoleAssistant
		}
		msgs = append(msgs, ollama.Message{Role: role, Content: m.Text})
	}

	if autoDo {
		for i := len(thread.Messages) - 1; i >= 0; i-- {
			if m := thread.Messages[i]; m.Role == daemon.RoleUser {
				if isActionRequest(m.Text) {
					msgs = append(msgs, ollama.Message{Role: ollama.RoleUser, Content: autoDoNudge})
				}
				break
			}
		}
	}
	return msgs
}

const autoDoNudge = "AUTO-DO: This is an action request. Reply with a single tool JSON (exec/web_get) to actually do the work. Do not answer with a plan."

var actionKeywords = []string{
	"do it", "get it done", "fix", "install", "set up", "setup", "run",
	"execute", "create", "delete", "remove", "update", "build", "deploy",
}

// isActionRequest reports whether text asks for something to be done rather
// than explained.
func isActionRequest(text string) bool {
	t := strings.ToLower(text)
	for _, k := range actionKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

func systemPrompt(devFullExecAuto, autoDo bool) string {
	var b strings.Builder
	b.WriteString("You are OpenClaw Desktop running locally. You can call tools when needed.\n\n")
	if autoDo {
		b.WriteString("AUTO-DO MODE: Enabled. For action requests, you MUST use tools (exec/web_get) rather than giving plans.\n")
		b.WriteString("If you claim you did something, it must be backed by tool output.\n\n")
	}
	b.WriteString("TOOL CALLS:\n")
	b.WriteString("When responding, you may return a single JSON object matching one of these shapes (no extra text):\n")
	b.WriteString(`- {"tool":"web_get","url":"https://example.com"}` + "\n")
	b.WriteString(`- {"tool":"exec","cmd":"<shell command>"}` + "\n")
	b.WriteString(`- {"tool":"final","text":"<final answer>"}` + "\n\n")
	if devFullExecAuto {
		b.WriteString("EXEC MODE: FULL EXEC AUTO is ENABLED. You may run any shell command you deem necessary. Prefer read-only commands.\n")
	} else {
		b.WriteString("EXEC MODE: restricted. Prefer web_get; exec calls will be denied.\n")
	}
	return b.String()
}

// workDir returns the profile's exec directory, creating it on first use.
func (s *Supervisor) workDir(profileID string) string {
	if s.config.ProfilesDir == "" {
		return os.TempDir()
	}
	dir := filepath.Join(s.config.ProfilesDir, openclaw.ProfileName(profileID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("create profile dir", "dir", dir, "error", err)
		return os.TempDir()
	}
	return dir
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
