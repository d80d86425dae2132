package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/tessro/ocd/internal/daemon"
)

func testThread(texts ...string) *daemon.ChatThread {
	th := &daemon.ChatThread{Version: 1}
	at := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	for i, text := range texts {
		role := daemon.RoleUser
		if i%2 == 1 {
			role = daemon.RoleAssistant
		}
		th.Messages = append(th.Messages, daemon.ChatMessage{
			ID:        "msg_" + string(rune('a'+i)),
			Role:      role,
			Text:      text,
			CreatedAt: at.Add(time.Duration(i) * time.Minute),
		})
	}
	return th
}

func sizedChatView() ChatView {
	v := NewChatView()
	v.SetSize(60, 20)
	return v
}

func TestChatViewRenderMessage(t *testing.T) {
	v := sizedChatView()

	tests := []struct {
		name    string
		msg     daemon.ChatMessage
		want    []string
		notWant []string
	}{
		{
			name: "user",
			msg:  daemon.ChatMessage{Role: daemon.RoleUser, Text: "hello"},
			want: []string{"You", "hello"},
		},
		{
			name: "assistant",
			msg:  daemon.ChatMessage{Role: daemon.RoleAssistant, Text: "hi there"},
			want: []string{"Agent", "hi there"},
		},
		{
			name: "tool",
			msg:  daemon.ChatMessage{Role: daemon.RoleTool, Text: "exit 0"},
			want: []string{"Tool", "exit 0"},
		},
		{
			name:    "error marker is stripped",
			msg:     daemon.ChatMessage{Role: daemon.RoleAssistant, Text: daemon.ErrorMarker + " model offline"},
			want:    []string{"Error", "model offline"},
			notWant: []string{daemon.ErrorMarker},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := v.renderMessage(tt.msg)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("renderMessage() = %q, missing %q", out, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("renderMessage() = %q, should not contain %q", out, w)
				}
			}
		})
	}
}

func TestChatViewRenderMessageWraps(t *testing.T) {
	v := sizedChatView()
	long := strings.Repeat("word ", 40)

	out := v.renderMessage(daemon.ChatMessage{Role: daemon.RoleAssistant, Text: long})
	if lines := strings.Count(out, "\n"); lines < 3 {
		t.Errorf("expected wrapped body, got %d lines", lines)
	}
}

func TestChatViewStates(t *testing.T) {
	chat := &daemon.Chat{ID: "chat_1", Title: "Plans", Thinking: daemon.ThinkingLow}

	tests := []struct {
		name   string
		chat   *daemon.Chat
		thread *daemon.ChatThread
		want   string
	}{
		{"no chat", nil, nil, "Select or create a chat"},
		{"loading", chat, nil, "Loading thread..."},
		{"empty thread", chat, &daemon.ChatThread{Version: 1}, "No messages yet"},
		{"messages", chat, testThread("ping", "pong"), "pong"},
		{"header", chat, testThread("ping"), "thinking low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sizedChatView()
			v.SetThread(tt.chat, tt.thread)
			if out := v.View(); !strings.Contains(out, tt.want) {
				t.Errorf("View() missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestChatViewSendingIndicator(t *testing.T) {
	v := sizedChatView()
	v.SetThread(&daemon.Chat{ID: "chat_1", Title: "Plans"}, testThread("ping"))

	v.SetSending("*")
	if !strings.Contains(v.View(), "waiting for reply") {
		t.Error("pending indicator not shown")
	}

	v.SetSending("")
	if strings.Contains(v.View(), "waiting for reply") {
		t.Error("pending indicator still shown")
	}
}

func TestChatViewSwitchPinsToBottom(t *testing.T) {
	var texts []string
	for i := 0; i < 30; i++ {
		texts = append(texts, "message line")
	}

	v := sizedChatView()
	v.SetThread(&daemon.Chat{ID: "chat_1"}, testThread(texts...))
	v.ScrollToTop()
	if v.viewport.AtBottom() {
		t.Fatal("expected scrollable thread")
	}

	v.SetThread(&daemon.Chat{ID: "chat_2"}, testThread(texts...))
	if !v.viewport.AtBottom() {
		t.Error("switching chats should pin to the newest message")
	}
	if v.ChatID() != "chat_2" {
		t.Errorf("ChatID() = %q", v.ChatID())
	}
}
