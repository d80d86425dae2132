package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"github.com/tessro/ocd/internal/autostart"
	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/ollama"
	"github.com/tessro/ocd/internal/openclaw"
	"github.com/tessro/ocd/internal/secrets"
	"github.com/tessro/ocd/internal/store"
)

// fakeOllama answers /api/chat with queued replies first, then reply. It
// fails when the reply is empty.
type fakeOllama struct {
	mu       sync.Mutex
	reply    string
	queue    []string
	last     ollama.ChatRequest
	requests []ollama.ChatRequest
	block    chan struct{}
	// entered is signalled when a blocked request arrives.
	entered chan struct{}
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ollama.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.last = req
	f.requests = append(f.requests, req)
	reply, block, entered := f.reply, f.block, f.entered
	if len(f.queue) > 0 {
		reply, f.queue = f.queue[0], f.queue[1:]
	}
	f.mu.Unlock()
	if block != nil {
		entered <- struct{}{}
		<-block
	}
	if reply == "" {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(ollama.ChatResponse{Message: ollama.Message{Role: ollama.RoleAssistant, Content: reply}, Done: true})
}

func (f *fakeOllama) set(reply string) {
	f.mu.Lock()
	f.reply = reply
	f.mu.Unlock()
}

func (f *fakeOllama) enqueue(replies ...string) {
	f.mu.Lock()
	f.queue = append(f.queue, replies...)
	f.mu.Unlock()
}

func (f *fakeOllama) all() []ollama.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ollama.ChatRequest(nil), f.requests...)
}

func (f *fakeOllama) request() ollama.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type testEnv struct {
	sup    *Supervisor
	store  *store.Store
	model  *fakeOllama
	logs   string
	script string
	dir    string
}

// newTestSupervisor wires a supervisor to real collaborators in a temp dir.
func newTestSupervisor(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "ocd.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	sec := secrets.New(secrets.Options{
		Backend:  "file",
		FileDir:  filepath.Join(dir, "keyring"),
		Password: keyring.FixedStringPrompt("test"),
	})

	t.Setenv("XDG_CONFIG_HOME", "")
	auto := autostart.ForOS("linux", dir, "/usr/bin/ocd", "daemon")

	model := &fakeOllama{reply: "hello back"}
	srv := httptest.NewServer(model)
	t.Cleanup(srv.Close)

	script := filepath.Join(dir, "openclaw")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	logs := filepath.Join(dir, "logs")

	sup := New(st, sec, auto, Config{
		OpenclawPath:  script,
		LogsDir:       logs,
		OllamaBaseURL: srv.URL,
		OllamaModel:   "ollama/test:1b",
		History:       4,
		ProfilesDir:   filepath.Join(dir, "profiles"),
	})
	return &testEnv{sup: sup, store: st, model: model, logs: logs, script: script, dir: dir}
}

func (e *testEnv) do(t *testing.T, typ daemon.MessageType, payload any) *daemon.Response {
	t.Helper()
	resp := e.sup.Handle(context.Background(), &daemon.Request{Type: typ, ID: "t1", Payload: payload})
	if resp.ID != "t1" || resp.Type != typ {
		t.Errorf("correlation = %q/%q", resp.Type, resp.ID)
	}
	return resp
}

func (e *testEnv) ok(t *testing.T, typ daemon.MessageType, payload any) any {
	t.Helper()
	resp := e.do(t, typ, payload)
	if !resp.Success {
		t.Fatalf("%s failed: %s", typ, resp.Error)
	}
	return resp.Payload
}

func (e *testEnv) activeProfile(t *testing.T) string {
	t.Helper()
	ps := e.ok(t, daemon.MsgProfilesList, nil).(*daemon.ProfilesStore)
	return ps.ActiveProfileID
}

func (e *testEnv) newChat(t *testing.T, pid string) string {
	t.Helper()
	c := e.ok(t, daemon.MsgChatsCreate, daemon.ChatCreateRequest{ProfileID: pid}).(*daemon.Chat)
	return c.ID
}

func TestHandle_UnknownType(t *testing.T) {
	env := newTestSupervisor(t)
	resp := env.do(t, daemon.MessageType("bogus"), nil)
	if resp.Success || !strings.Contains(resp.Error, "unknown request type") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandle_Ping(t *testing.T) {
	env := newTestSupervisor(t)
	got := env.ok(t, daemon.MsgPing, nil).(daemon.PingResponse)
	if got.Version != Version {
		t.Errorf("Version = %q", got.Version)
	}
}

func TestHandle_Shutdown(t *testing.T) {
	env := newTestSupervisor(t)
	env.ok(t, daemon.MsgShutdown, nil)
	env.ok(t, daemon.MsgShutdown, nil) // second close is safe
	select {
	case <-env.sup.ShutdownCh():
	default:
		t.Error("shutdown channel not closed")
	}
}

func TestProfiles(t *testing.T) {
	env := newTestSupervisor(t)

	ps := env.ok(t, daemon.MsgProfilesList, nil).(*daemon.ProfilesStore)
	if len(ps.Profiles) != 1 || ps.Profiles[0].Name != store.DefaultProfileName {
		t.Fatalf("initial = %+v", ps)
	}
	def := ps.Profiles[0].ID

	if resp := env.do(t, daemon.MsgProfilesDelete, daemon.ProfileRequest{ProfileID: def}); resp.Success ||
		resp.Error != "cannot delete last profile" {
		t.Errorf("delete last = %+v", resp)
	}
	if resp := env.do(t, daemon.MsgProfilesCreate, daemon.ProfileCreateRequest{Name: "  "}); resp.Success {
		t.Error("blank create succeeded")
	}

	ps = env.ok(t, daemon.MsgProfilesCreate, daemon.ProfileCreateRequest{Name: "Work"}).(*daemon.ProfilesStore)
	work := ps.ActiveProfileID
	if work == def {
		t.Fatal("new profile not active")
	}

	ps = env.ok(t, daemon.MsgProfilesRename, daemon.ProfileRenameRequest{ProfileID: work, Name: "Job"}).(*daemon.ProfilesStore)
	if p, _ := ps.Find(work); p.Name != "Job" {
		t.Errorf("renamed = %+v", p)
	}

	ps = env.ok(t, daemon.MsgProfilesSetActive, daemon.ProfileRequest{ProfileID: def}).(*daemon.ProfilesStore)
	if ps.ActiveProfileID != def {
		t.Error("set active ignored")
	}
	ps = env.ok(t, daemon.MsgProfilesDelete, daemon.ProfileRequest{ProfileID: work}).(*daemon.ProfilesStore)
	if len(ps.Profiles) != 1 {
		t.Errorf("after delete = %+v", ps)
	}
}

func TestSecrets(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)
	req := daemon.SecretRequest{ProfileID: pid, Key: "gateway.token"}

	got := env.ok(t, daemon.MsgSecretsGet, req).(daemon.SecretGetResponse)
	if got.Value != nil {
		t.Fatalf("missing secret = %q", *got.Value)
	}

	set := req
	set.Value = "tok"
	env.ok(t, daemon.MsgSecretsSet, set)
	got = env.ok(t, daemon.MsgSecretsGet, req).(daemon.SecretGetResponse)
	if got.Value == nil || *got.Value != "tok" {
		t.Fatalf("stored secret = %v", got.Value)
	}

	env.ok(t, daemon.MsgSecretsDelete, req)
	env.ok(t, daemon.MsgSecretsDelete, req)

	if resp := env.do(t, daemon.MsgSecretsGet, daemon.SecretRequest{ProfileID: pid}); resp.Success {
		t.Error("empty key accepted")
	}
}

func TestChats_CRUD(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)

	first := env.newChat(t, pid)
	second := env.newChat(t, pid)

	ix := env.ok(t, daemon.MsgChatsList, daemon.ProfileRequest{ProfileID: pid}).(*daemon.ChatIndex)
	if len(ix.Chats) != 2 || ix.Chats[0].ID != second {
		t.Fatalf("index = %+v", ix.Chats)
	}

	ix = env.ok(t, daemon.MsgChatsRename, daemon.ChatRenameRequest{ProfileID: pid, ChatID: first, Title: "Trip"}).(*daemon.ChatIndex)
	if c, _ := ix.Find(first); c.Title != "Trip" {
		t.Errorf("rename = %+v", c)
	}

	bad := daemon.ThinkingLevel("extreme")
	if resp := env.do(t, daemon.MsgChatsUpdate, daemon.ChatUpdateRequest{ProfileID: pid, ChatID: first,
		Update: daemon.ChatSettingsUpdate{Thinking: &bad}}); resp.Success {
		t.Error("invalid thinking level accepted")
	}
	high := daemon.ThinkingHigh
	ix = env.ok(t, daemon.MsgChatsUpdate, daemon.ChatUpdateRequest{ProfileID: pid, ChatID: first,
		Update: daemon.ChatSettingsUpdate{Thinking: &high}}).(*daemon.ChatIndex)
	if c, _ := ix.Find(first); c.Thinking != daemon.ThinkingHigh || c.Worker != store.DefaultWorker {
		t.Errorf("update = %+v", c)
	}

	ix = env.ok(t, daemon.MsgChatsDelete, daemon.ChatRequest{ProfileID: pid, ChatID: second}).(*daemon.ChatIndex)
	if len(ix.Chats) != 1 || ix.Chats[0].ID != first {
		t.Errorf("after delete = %+v", ix.Chats)
	}
}

func TestChatSend(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)

	res := env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "  hi  "}).(*daemon.ChatSendResult)
	msgs := res.Thread.Messages
	if len(msgs) != 2 {
		t.Fatalf("thread = %+v", msgs)
	}
	if msgs[0].Role != daemon.RoleUser || msgs[0].Text != "hi" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != daemon.RoleAssistant || msgs[1].Text != "hello back" || msgs[1].ID != res.AssistantMessageID {
		t.Errorf("assistant message = %+v (id %q)", msgs[1], res.AssistantMessageID)
	}

	sent := env.model.request()
	if sent.Model != "test:1b" {
		t.Errorf("model = %q", sent.Model)
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != ollama.RoleSystem || sent.Messages[1].Content != "hi" {
		t.Errorf("messages sent = %+v", sent.Messages)
	}
}

func TestChatSend_HistoryIsBounded(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)

	for i := 0; i < 3; i++ {
		env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "msg"})
	}
	// system prompt + the configured history of 4
	if got := len(env.model.request().Messages); got != 5 {
		t.Errorf("messages sent = %d, want 5", got)
	}
}

func TestChatSend_Tools(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("weather: sunny"))
	}))
	defer page.Close()

	tests := []struct {
		name    string
		devExec bool
		replies []string
		want    string
		// fed is the tool result the model must see on its second call.
		fed string
	}{
		{
			name:    "final answer is unwrapped",
			replies: []string{`{"tool":"final","text":"hi there"}`},
			want:    "hi there",
		},
		{
			name:    "plain reply",
			replies: []string{"just text"},
			want:    "just text",
		},
		{
			name:    "web_get result fed back",
			replies: []string{`{"tool":"web_get","url":"` + page.URL + `"}`, `{"tool":"final","text":"sunny"}`},
			want:    "sunny",
			fed:     "Tool result (web_get):\nURL: " + page.URL + "\n\nweather: sunny",
		},
		{
			name:    "exec denied without full exec auto",
			replies: []string{`{"tool":"exec","cmd":"echo nope"}`, `{"tool":"final","text":"cannot"}`},
			want:    "cannot",
			fed:     "Tool denied: exec is disabled",
		},
		{
			name:    "exec runs with full exec auto",
			devExec: true,
			replies: []string{`{"tool":"exec","cmd":"echo ran"}`, "done"},
			want:    "done",
			fed:     "Tool result (exec):\n$ echo ran\n\nran",
		},
		{
			name:    "tool error reported to model",
			devExec: true,
			replies: []string{`{"tool":"exec","cmd":"exit 2"}`, "failed"},
			want:    "failed",
			fed:     "[tool_error] exec failed (code 2)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestSupervisor(t)
			pid := env.activeProfile(t)
			cid := env.newChat(t, pid)
			if tt.devExec {
				env.ok(t, daemon.MsgSettingsSetDevFullExecAuto, daemon.SettingsBoolRequest{ProfileID: pid, Enabled: true})
			}
			env.model.enqueue(tt.replies...)

			res := env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "go"}).(*daemon.ChatSendResult)
			last, _ := res.Thread.Last()
			if last.Text != tt.want {
				t.Errorf("reply = %q, want %q", last.Text, tt.want)
			}
			if len(res.Thread.Messages) != 2 {
				t.Errorf("thread has %d messages, want only user and final reply", len(res.Thread.Messages))
			}

			reqs := env.model.all()
			if len(reqs) != len(tt.replies) {
				t.Fatalf("model called %d times, want %d", len(reqs), len(tt.replies))
			}
			if tt.fed == "" {
				return
			}
			second := reqs[1].Messages
			call, fed := second[len(second)-2], second[len(second)-1]
			if call.Role != ollama.RoleAssistant || call.Content != tt.replies[0] {
				t.Errorf("tool call not echoed: %+v", call)
			}
			if fed.Role != ollama.RoleUser || !strings.HasPrefix(fed.Content, tt.fed) {
				t.Errorf("fed = %q, want prefix %q", fed.Content, tt.fed)
			}
		})
	}
}

func TestChatSend_ExecRunsInProfileDir(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)
	env.ok(t, daemon.MsgSettingsSetDevFullExecAuto, daemon.SettingsBoolRequest{ProfileID: pid, Enabled: true})
	env.model.enqueue(`{"tool":"exec","cmd":"pwd"}`, "ok")

	env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "where"})

	want := filepath.Join(env.dir, "profiles", openclaw.ProfileName(pid))
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("profile dir not created: %v", err)
	}
	reqs := env.model.all()
	msgs := reqs[len(reqs)-1].Messages
	if fed := msgs[len(msgs)-1].Content; !strings.Contains(fed, filepath.Base(want)) {
		t.Errorf("pwd result = %q, want %s", fed, want)
	}
}

func TestChatSend_ToolLoopIsBounded(t *testing.T) {
	env := newTestSupervisor(t)
	env.model.set(`{"tool":"exec","cmd":"true"}`)
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)

	res := env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "loop"}).(*daemon.ChatSendResult)
	last, _ := res.Thread.Last()
	if !last.IsError() || !strings.Contains(last.Text, "tool loop exceeded") {
		t.Errorf("last = %q, want committed loop error", last.Text)
	}
	if got := len(env.model.all()); got != maxToolSteps {
		t.Errorf("model called %d times, want %d", got, maxToolSteps)
	}
}

func TestChatSend_AutoDoNudge(t *testing.T) {
	tests := []struct {
		name   string
		autoDo bool
		text   string
		nudged bool
	}{
		{"action request", true, "Please install ripgrep", true},
		{"question", true, "what is ripgrep?", false},
		{"auto-do off", false, "Please install ripgrep", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestSupervisor(t)
			pid := env.activeProfile(t)
			cid := env.newChat(t, pid)
			env.ok(t, daemon.MsgSettingsSetAutoDoMode, daemon.SettingsBoolRequest{ProfileID: pid, Enabled: tt.autoDo})

			env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: tt.text})

			msgs := env.model.request().Messages
			nudged := strings.HasPrefix(msgs[len(msgs)-1].Content, "AUTO-DO:")
			if nudged != tt.nudged {
				t.Errorf("nudged = %v, want %v", nudged, tt.nudged)
			}
			if got := strings.Contains(msgs[0].Content, "AUTO-DO MODE"); got != tt.autoDo {
				t.Errorf("system prompt auto-do section = %v, want %v", got, tt.autoDo)
			}
		})
	}
}

func TestChatSend_ModelFailureIsCommitted(t *testing.T) {
	env := newTestSupervisor(t)
	env.model.set("")
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)

	res := env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "hi"}).(*daemon.ChatSendResult)
	last, _ := res.Thread.Last()
	if !last.IsError() {
		t.Fatalf("last = %+v, want error marker", last)
	}
	if !strings.Contains(last.Text, "500") {
		t.Errorf("error text = %q", last.Text)
	}
}

func TestChatSend_InflightGuard(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)

	block := make(chan struct{})
	entered := make(chan struct{}, 1)
	env.model.mu.Lock()
	env.model.block = block
	env.model.entered = entered
	env.model.mu.Unlock()

	done := make(chan *daemon.Response, 1)
	go func() {
		done <- env.sup.Handle(context.Background(), &daemon.Request{Type: daemon.MsgChatSend,
			Payload: daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "first"}})
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first send never reached the model")
	}
	resp := env.do(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "second"})
	if resp.Success || resp.Error != ErrChatBusy.Error() {
		t.Errorf("concurrent send = %+v", resp)
	}

	// Another chat is not blocked by the first.
	other := env.newChat(t, pid)
	env.model.mu.Lock()
	env.model.block = nil
	env.model.mu.Unlock()
	env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: other, Text: "elsewhere"})

	close(block)
	if first := <-done; !first.Success {
		t.Fatalf("first send failed: %s", first.Error)
	}

	// The guard is released once the send completes.
	env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "third"})
}

func TestChatSend_Validation(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)

	if resp := env.do(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: " "}); resp.Success {
		t.Error("blank send accepted")
	}
	if resp := env.do(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: "c_missing", Text: "x"}); resp.Success {
		t.Error("send to unknown chat accepted")
	}
}

func TestChatReset(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)
	cid := env.newChat(t, pid)
	env.ok(t, daemon.MsgChatSend, daemon.ChatSendRequest{ProfileID: pid, ChatID: cid, Text: "hi"})

	th := env.ok(t, daemon.MsgChatReset, daemon.ChatRequest{ProfileID: pid, ChatID: cid}).(*daemon.ChatThread)
	if len(th.Messages) != 0 {
		t.Errorf("reset thread = %+v", th.Messages)
	}
	th = env.ok(t, daemon.MsgChatThread, daemon.ChatRequest{ProfileID: pid, ChatID: cid}).(*daemon.ChatThread)
	if len(th.Messages) != 0 {
		t.Error("reset not persisted")
	}
}

func TestGateway(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)

	tests := []struct {
		typ  daemon.MessageType
		verb string
	}{
		{daemon.MsgGatewayStatus, "status"},
		{daemon.MsgGatewayStart, "start"},
		{daemon.MsgGatewayStop, "stop"},
		{daemon.MsgGatewayRestart, "restart"},
	}
	for _, tt := range tests {
		t.Run(tt.verb, func(t *testing.T) {
			got := env.ok(t, tt.typ, daemon.ProfileRequest{ProfileID: pid}).(daemon.GatewayStatus)
			want := "--profile ocd-" + strings.ReplaceAll(pid, "_", "-") + " gateway " + tt.verb
			if strings.TrimSpace(got.Stdout) != want {
				t.Errorf("stdout = %q, want %q", got.Stdout, want)
			}
		})
	}

	if resp := env.do(t, daemon.MsgGatewayStart, daemon.ProfileRequest{ProfileID: "p_missing"}); resp.Success {
		t.Error("unknown profile accepted")
	}
}

func TestGateway_ProfileOverrideWins(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)

	other := filepath.Join(t.TempDir(), "other-openclaw")
	if err := os.WriteFile(other, []byte("#!/bin/sh\necho override\nexit 2\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	env.ok(t, daemon.MsgSettingsSetOpenclawPath, daemon.SettingsStringRequest{ProfileID: pid, Value: &other})

	got := env.ok(t, daemon.MsgGatewayStatus, daemon.ProfileRequest{ProfileID: pid}).(daemon.GatewayStatus)
	if strings.TrimSpace(got.Stdout) != "override" || got.ExitCode != 2 {
		t.Errorf("status = %+v", got)
	}
}

func TestGatewayLogs(t *testing.T) {
	env := newTestSupervisor(t)
	if err := os.MkdirAll(env.logs, 0o755); err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for i := 0; i < 250; i++ {
		b.WriteString("line\n")
	}
	if err := os.WriteFile(filepath.Join(env.logs, "gateway.log"), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	got := env.ok(t, daemon.MsgGatewayLogs, daemon.GatewayLogsRequest{}).(daemon.GatewayLogs)
	if n := strings.Count(got.Out, "\n") + 1; n != daemon.DefaultGatewayLogLines {
		t.Errorf("default tail = %d lines", n)
	}
	got = env.ok(t, daemon.MsgGatewayLogs, daemon.GatewayLogsRequest{Lines: 3}).(daemon.GatewayLogs)
	if got.Out != "line\nline\nline" || got.Err != "" {
		t.Errorf("tail 3 = %+v", got)
	}
	got = env.ok(t, daemon.MsgGatewayLogs, daemon.GatewayLogsRequest{Lines: -1}).(daemon.GatewayLogs)
	if got.Out != b.String() {
		t.Error("negative lines should return whole file")
	}
}

func TestSettings(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)

	got := env.ok(t, daemon.MsgSettingsGet, daemon.ProfileRequest{ProfileID: pid}).(*daemon.ProfileSettings)
	if got.OllamaModel == nil || *got.OllamaModel != "ollama/test:1b" {
		t.Errorf("default model = %v", got.OllamaModel)
	}
	if got.DevFullExecAuto == nil || *got.DevFullExecAuto {
		t.Errorf("default dev exec = %v", got.DevFullExecAuto)
	}
	if got.OpenclawPath != nil {
		t.Errorf("OpenclawPath = %q", *got.OpenclawPath)
	}

	model := " llama3 "
	got = env.ok(t, daemon.MsgSettingsSetOllamaModel, daemon.SettingsStringRequest{ProfileID: pid, Value: &model}).(*daemon.ProfileSettings)
	if *got.OllamaModel != "llama3" {
		t.Errorf("model = %q", *got.OllamaModel)
	}

	blank := "  "
	got = env.ok(t, daemon.MsgSettingsSetOllamaModel, daemon.SettingsStringRequest{ProfileID: pid, Value: &blank}).(*daemon.ProfileSettings)
	if *got.OllamaModel != "ollama/test:1b" {
		t.Errorf("cleared model should fall back to default, got %q", *got.OllamaModel)
	}

	url := "http://gpu-box:11434"
	got = env.ok(t, daemon.MsgSettingsSetOllamaBaseURL, daemon.SettingsStringRequest{ProfileID: pid, Value: &url}).(*daemon.ProfileSettings)
	if *got.OllamaBaseURL != url {
		t.Errorf("base url = %q", *got.OllamaBaseURL)
	}

	got = env.ok(t, daemon.MsgSettingsSetDevFullExecAuto, daemon.SettingsBoolRequest{ProfileID: pid, Enabled: true}).(*daemon.ProfileSettings)
	if !*got.DevFullExecAuto {
		t.Error("dev exec not enabled")
	}

	if got.AutoDoMode == nil || *got.AutoDoMode {
		t.Errorf("default auto-do = %v", got.AutoDoMode)
	}
	got = env.ok(t, daemon.MsgSettingsSetAutoDoMode, daemon.SettingsBoolRequest{ProfileID: pid, Enabled: true}).(*daemon.ProfileSettings)
	if !*got.AutoDoMode || !*got.DevFullExecAuto {
		t.Errorf("auto-do = %v, dev exec = %v", *got.AutoDoMode, *got.DevFullExecAuto)
	}

	if resp := env.do(t, daemon.MsgSettingsGet, daemon.ProfileRequest{ProfileID: "p_missing"}); resp.Success {
		t.Error("unknown profile accepted")
	}
}

func TestModels(t *testing.T) {
	env := newTestSupervisor(t)
	pid := env.activeProfile(t)

	got := env.ok(t, daemon.MsgModelsStatus, daemon.ProfileRequest{ProfileID: pid}).(daemon.ModelsStatus)
	if !strings.HasSuffix(strings.TrimSpace(got.Stdout), "models status --status-plain") {
		t.Errorf("status = %q", got.Stdout)
	}
	got = env.ok(t, daemon.MsgModelsSet, daemon.ModelsSetRequest{ProfileID: pid, Model: "ollama/llama3"}).(daemon.ModelsStatus)
	if !strings.HasSuffix(strings.TrimSpace(got.Stdout), "models set ollama/llama3") {
		t.Errorf("set = %q", got.Stdout)
	}
	if resp := env.do(t, daemon.MsgModelsSet, daemon.ModelsSetRequest{ProfileID: pid}); resp.Success {
		t.Error("blank model accepted")
	}
}

func TestAutostart(t *testing.T) {
	env := newTestSupervisor(t)

	got := env.ok(t, daemon.MsgAutostartGet, nil).(daemon.AutostartPayload)
	if got.Enabled {
		t.Fatal("enabled before set")
	}
	env.ok(t, daemon.MsgAutostartSet, daemon.AutostartPayload{Enabled: true})
	got = env.ok(t, daemon.MsgAutostartGet, nil).(daemon.AutostartPayload)
	if !got.Enabled {
		t.Error("not enabled after set")
	}
}

func TestPush_RequiresValidKind(t *testing.T) {
	env := newTestSupervisor(t)
	resp := env.do(t, daemon.MsgPush, daemon.PushRequest{Kind: "open_window"})
	if resp.Success {
		t.Error("unknown push kind accepted")
	}
}

// TestClientRoundTrip drives the supervisor through a real socket with the
// daemon client, the same path the front ends use.
func TestClientRoundTrip(t *testing.T) {
	env := newTestSupervisor(t)
	sock := filepath.Join(t.TempDir(), "ocd.sock")
	srv := daemon.NewServer(sock, env.sup)
	env.sup.SetServer(srv)
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Stop() })

	client := daemon.NewClient(sock)
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	ps, err := client.ListProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	pid := ps.ActiveProfileID

	if _, err := client.DeleteProfile(ctx, pid); err == nil {
		t.Fatal("delete last profile succeeded")
	} else {
		var se *daemon.ServerError
		if !errors.As(err, &se) || se.Message != "cannot delete last profile" {
			t.Errorf("err = %#v", err)
		}
	}

	c, err := client.CreateChat(ctx, pid, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := client.SendChat(ctx, pid, c.ID, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if last, _ := res.Thread.Last(); last.Text != "hello back" {
		t.Errorf("reply = %+v", last)
	}

	events, err := client.StreamEvents()
	if err != nil {
		t.Fatal(err)
	}
	defer client.StopEventStream()

	if err := client.Push(ctx, daemon.PushRestartGateway); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if ev.Err != nil || ev.Event.Kind != daemon.PushRestartGateway {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("push not delivered")
	}
}
