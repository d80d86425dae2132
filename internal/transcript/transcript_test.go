package transcript

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tessro/ocd/internal/daemon"
)

func render(t *testing.T, doc Document) string {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestRender(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := Document{
		Profile: "Work",
		Chat:    daemon.Chat{ID: "c_1", Title: "Plans & ideas"},
		Thread: daemon.ChatThread{ChatID: "c_1", Messages: []daemon.ChatMessage{
			{ID: "m_1", Role: daemon.RoleUser, Text: "list **three** things", CreatedAt: at},
			{ID: "m_2", Role: daemon.RoleAssistant, Text: "1. one\n2. two\n3. three", CreatedAt: at},
			{ID: "m_3", Role: daemon.RoleAssistant, Text: "[error] ollama error 500", CreatedAt: at},
		}},
		Exported: at,
	}
	out := render(t, doc)

	tests := []struct {
		name string
		want string
	}{
		{"escaped title", "<title>Plans &amp; ideas</title>"},
		{"profile", "Work &middot;"},
		{"message count", "3 messages"},
		{"markdown emphasis", "<strong>three</strong>"},
		{"markdown list", "<ol>"},
		{"user class", `class="message user" id="m_1"`},
		{"error class", `class="message error" id="m_3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q", tt.want)
			}
		})
	}
}

func TestRender_EscapesRawHTML(t *testing.T) {
	out := render(t, Document{
		Chat: daemon.Chat{ID: "c_1"},
		Thread: daemon.ChatThread{Messages: []daemon.ChatMessage{
			{ID: "m_1", Role: daemon.RoleAssistant, Text: "<script>alert(1)</script>"},
		}},
	})
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("raw HTML was not escaped")
	}
}

func TestRender_UntitledUsesID(t *testing.T) {
	out := render(t, Document{Chat: daemon.Chat{ID: "c_42"}})
	if !strings.Contains(out, "<h1>c_42</h1>") {
		t.Error("missing fallback title")
	}
	if !strings.Contains(out, "0 messages") {
		t.Error("empty thread should report 0 messages")
	}
}
