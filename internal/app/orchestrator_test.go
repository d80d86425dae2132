package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/tessro/ocd/internal/busy"
	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/daemon/daemontest"
	"github.com/tessro/ocd/internal/gateway"
	"github.com/tessro/ocd/internal/modal"
	"github.com/tessro/ocd/internal/toast"
)

func newApp(t *testing.T, fake *daemontest.Fake) *Orchestrator {
	t.Helper()
	o := New(fake, DefaultConfig())
	t.Cleanup(o.Close)
	return o
}

func toastTitles(o *Orchestrator, kind toast.Kind) []string {
	var out []string
	for _, tt := range o.View().Toasts {
		if tt.Kind == kind {
			out = append(out, tt.Title)
		}
	}
	return out
}

func TestInit_LoadsActiveProfileScope(t *testing.T) {
	fake := daemontest.New()
	pid := fake.SeedProfiles("Default")[0]
	c1 := fake.SeedChat(pid, "First", "hi", "hello")
	o := newApp(t, fake)

	o.Init(context.Background())

	v := o.View()
	if v.Banner != "" {
		t.Errorf("Banner = %q", v.Banner)
	}
	if v.Profiles.ActiveProfileID != pid {
		t.Errorf("active = %q", v.Profiles.ActiveProfileID)
	}
	if v.Chat.ActiveChatID != c1 || v.Chat.Thread == nil {
		t.Errorf("chat view = %+v", v.Chat)
	}
	if v.Settings.Settings == nil {
		t.Error("settings not loaded")
	}
	if v.Gateway.Status == nil || v.Gateway.Logs == nil {
		t.Error("gateway not loaded")
	}
	if v.Busy.Held {
		t.Error("busy lock held after Init")
	}
}

func TestInit_FailureSetsBanner(t *testing.T) {
	fake := daemontest.New()
	fake.SetFail(daemon.MsgProfilesList, daemontest.ErrInjected)
	o := newApp(t, fake)

	o.Init(context.Background())

	v := o.View()
	if !strings.Contains(v.Banner, "injected failure") {
		t.Errorf("Banner = %q", v.Banner)
	}
	if got := toastTitles(o, toast.KindError); len(got) != 1 || got[0] != "Failed to load profiles" {
		t.Errorf("error toasts = %v", got)
	}
	if v.Busy.Held {
		t.Error("busy lock held after failed Init")
	}

	// A later successful load clears the banner.
	fake.SetFail(daemon.MsgProfilesList, nil)
	fake.SeedProfiles("Default")
	o.Init(context.Background())
	if o.View().Banner != "" {
		t.Error("banner not cleared")
	}
}

func TestCreateProfile_Research(t *testing.T) {
	fake := daemontest.New()
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	o.CreateProfile(ctx, "Research")

	ps := o.View().Profiles
	if len(ps.Profiles) != 1 || ps.Profiles[0].Name != "Research" {
		t.Fatalf("profiles = %+v", ps.Profiles)
	}
	if ps.ActiveProfileID != ps.Profiles[0].ID {
		t.Errorf("active = %q", ps.ActiveProfileID)
	}
	if got := toastTitles(o, toast.KindSuccess); len(got) != 1 || got[0] != "Profile created" {
		t.Errorf("success toasts = %v", got)
	}
}

func TestValidationErrorsAreSilent(t *testing.T) {
	fake := daemontest.New()
	fake.SeedProfiles("Only")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)
	calls := len(fake.Calls())

	o.CreateProfile(ctx, "   ")
	o.SetDraft("  ")
	o.Send(ctx)
	o.OpenDeleteProfile(o.View().Profiles.ActiveProfileID)

	if len(fake.Calls()) != calls {
		t.Errorf("validation failures reached the boundary: %v", fake.Calls()[calls:])
	}
	if got := toastTitles(o, toast.KindError); len(got) != 0 {
		t.Errorf("error toasts = %v", got)
	}
	if o.View().Modal != nil {
		t.Error("delete dialog opened for the last profile")
	}
}

func TestBusyRejectsSecondIntent(t *testing.T) {
	fake := daemontest.New()
	pid := fake.SeedProfiles("Default")[0]
	fake.SeedChat(pid, "c1")
	lock := busy.New()
	o := New(fake, DefaultConfig(), WithBusyLock(lock))
	t.Cleanup(o.Close)
	ctx := context.Background()
	o.Init(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	fake.Hook = func(_ context.Context, op daemon.MessageType, _ ...string) {
		if op == daemon.MsgGatewayStart {
			close(started)
			<-release
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		o.Gateway(ctx, gateway.ActionStart)
	}()
	<-started

	if !o.Busy() || o.View().Busy.Reason != "Starting gateway" {
		t.Errorf("busy = %+v", o.View().Busy)
	}
	o.NewChat(ctx)
	close(release)
	wg.Wait()

	if n := fake.CallCount(daemon.MsgChatsCreate); n != 0 {
		t.Errorf("chats.create calls = %d, want 0 while busy", n)
	}
	if o.Busy() {
		t.Error("lock not released")
	}
	if got := toastTitles(o, toast.KindSuccess); len(got) != 1 || got[0] != "Gateway started" {
		t.Errorf("success toasts = %v", got)
	}
}

func TestRenameChatModalRoundTrip(t *testing.T) {
	fake := daemontest.New()
	pid := fake.SeedProfiles("Default")[0]
	c1 := fake.SeedChat(pid, "Old")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	o.OpenRenameChat(c1)
	if m, ok := o.View().Modal.(modal.RenameChat); !ok || m.Value != "Old" {
		t.Fatalf("modal = %#v, want rename pre-filled with Old", o.View().Modal)
	}
	o.UpdateModalField("New")
	o.ConfirmModal(ctx)

	want := "chats.rename " + pid + " " + c1 + " New"
	var renames []string
	for _, c := range fake.Calls() {
		if strings.HasPrefix(c, "chats.rename") {
			renames = append(renames, c)
		}
	}
	if len(renames) != 1 || renames[0] != want {
		t.Errorf("renames = %v, want [%s]", renames, want)
	}
	if o.View().Modal != nil {
		t.Errorf("modal = %#v, want none", o.View().Modal)
	}
	c, _ := o.View().Chat.ActiveChat()
	if c.Title != "New" {
		t.Errorf("title = %q", c.Title)
	}
}

func TestConfirmFailureKeepsModal(t *testing.T) {
	fake := daemontest.New()
	ids := fake.SeedProfiles("A", "B")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	fake.SetFail(daemon.MsgProfilesDelete, daemontest.ErrInjected)
	o.OpenDeleteProfile(ids[1])
	o.ConfirmModal(ctx)

	if _, ok := o.View().Modal.(modal.DeleteProfile); !ok {
		t.Errorf("modal = %#v, want delete dialog still open", o.View().Modal)
	}
	if got := toastTitles(o, toast.KindError); len(got) != 1 || got[0] != "Failed to delete profile" {
		t.Errorf("error toasts = %v", got)
	}
	if len(o.View().Profiles.Profiles) != 2 {
		t.Error("profiles changed on failed delete")
	}

	o.CancelModal()
	if o.View().Modal != nil {
		t.Error("cancel did not close")
	}
}

func TestDeleteActiveProfileReloadsScope(t *testing.T) {
	fake := daemontest.New()
	ids := fake.SeedProfiles("A", "B")
	bChat := fake.SeedChat(ids[1], "b-chat")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	o.OpenDeleteProfile(ids[0])
	o.ConfirmModal(ctx)

	v := o.View()
	if v.Profiles.ActiveProfileID != ids[1] {
		t.Fatalf("active = %q", v.Profiles.ActiveProfileID)
	}
	if v.Chat.ProfileID != ids[1] || v.Chat.ActiveChatID != bChat {
		t.Errorf("chat scope = %+v", v.Chat)
	}
	if v.CanDeleteProfile {
		t.Error("CanDeleteProfile with one profile left")
	}
}

func TestSelectProfile_GatewayFailureDoesNotShowOldStatus(t *testing.T) {
	fake := daemontest.New()
	ids := fake.SeedProfiles("A", "B")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)
	if o.View().Gateway.Status == nil {
		t.Fatal("gateway status not loaded for A")
	}

	fake.SetFail(daemon.MsgGatewayStatus, daemontest.ErrInjected)
	o.SelectProfile(ctx, ids[1])

	v := o.View()
	if v.Profiles.ActiveProfileID != ids[1] {
		t.Fatalf("active = %q", v.Profiles.ActiveProfileID)
	}
	if v.Gateway.Status != nil {
		t.Errorf("gateway status = %+v, still from A", v.Gateway.Status)
	}
	if got := toastTitles(o, toast.KindError); len(got) != 1 || got[0] != "Failed to read gateway status" {
		t.Errorf("error toasts = %v", got)
	}
}

func TestSecretModals(t *testing.T) {
	fake := daemontest.New()
	pid := fake.SeedProfiles("Default")[0]
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	o.OpenSecretSet()
	o.UpdateModalField("tok-123")
	o.ConfirmModal(ctx)

	show, ok := o.View().Modal.(modal.SecretShow)
	if !ok || show.Value == nil || *show.Value != "tok-123" {
		t.Fatalf("modal = %#v, want SecretShow with stored value", o.View().Modal)
	}
	if v, _ := fake.Secret(pid, "gateway.token"); v != "tok-123" {
		t.Errorf("stored = %q", v)
	}
	o.ConfirmModal(ctx)
	if o.View().Modal != nil {
		t.Error("show dialog not closed by confirm")
	}

	o.OpenSecretDelete()
	o.ConfirmModal(ctx)
	if _, ok := fake.Secret(pid, "gateway.token"); ok {
		t.Error("secret not deleted")
	}

	o.OpenSecretShow(ctx)
	show, ok = o.View().Modal.(modal.SecretShow)
	if !ok || show.Value != nil {
		t.Errorf("modal = %#v, want SecretShow with nil value", o.View().Modal)
	}
}

func TestSend_SoftErrorScenario(t *testing.T) {
	fake := daemontest.New()
	pid := fake.SeedProfiles("Default")[0]
	fake.SeedChat(pid, "c1")
	fake.Reply = func(string) string { return "[error] upstream timeout" }
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	o.SetDraft("hello")
	o.Send(ctx)

	v := o.View()
	if v.Chat.Draft != "" {
		t.Errorf("Draft = %q", v.Chat.Draft)
	}
	msgs := v.Chat.Thread.Messages
	if len(msgs) != 2 || msgs[1].Text != "[error] upstream timeout" {
		t.Errorf("thread = %+v", msgs)
	}
	errs := toastTitles(o, toast.KindError)
	if len(errs) != 1 || errs[0] != "Send failed" {
		t.Errorf("error toasts = %v, want one Send failed", errs)
	}
}

func TestGateway_NonZeroExitToast(t *testing.T) {
	fake := daemontest.New()
	fake.SeedProfiles("Default")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	fake.SetGateway(daemon.GatewayStatus{ExitCode: 2, Stderr: "openclaw: not found\nmore"}, daemon.GatewayLogs{})
	o.Gateway(ctx, gateway.ActionStart)

	var found bool
	for _, tt := range o.View().Toasts {
		if tt.Kind == toast.KindError && tt.Title == "Gateway start exited with code 2" {
			found = tt.Message == "openclaw: not found"
		}
	}
	if !found {
		t.Errorf("toasts = %+v", o.View().Toasts)
	}
}

func TestHandlePush(t *testing.T) {
	fake := daemontest.New()
	fake.SeedProfiles("Default")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	o.HandlePush(ctx, daemon.PushNewChat)
	if n := len(o.View().Chat.Chats); n != 1 {
		t.Errorf("chats = %d after new_chat push", n)
	}

	o.HandlePush(ctx, daemon.PushRestartGateway)
	if n := fake.CallCount(daemon.MsgGatewayRestart); n != 1 {
		t.Errorf("restart calls = %d", n)
	}

	o.HandlePush(ctx, daemon.PushKind("bogus"))
}

func TestSettingsIntents(t *testing.T) {
	fake := daemontest.New()
	fake.SeedProfiles("Default")
	o := newApp(t, fake)
	ctx := context.Background()
	o.Init(ctx)

	o.SaveOpenclawPath(ctx, "/opt/openclaw")
	o.SaveOllama(ctx, "http://gpu:11434", "ollama/llama3")
	o.SetDevFullExecAuto(ctx, true)
	o.SetAutoDoMode(ctx, true)
	o.SetAutostart(ctx, true)
	o.SetDefaultModel(ctx, "ollama/llama3")

	v := o.View()
	s := v.Settings.Settings
	if s == nil || s.OpenclawPath == nil || *s.OpenclawPath != "/opt/openclaw" {
		t.Errorf("settings = %+v", s)
	}
	if s.OllamaModel == nil || *s.OllamaModel != "ollama/llama3" {
		t.Errorf("model = %v", s.OllamaModel)
	}
	if s.AutoDoMode == nil || !*s.AutoDoMode {
		t.Errorf("auto-do = %v", s.AutoDoMode)
	}
	if !v.Settings.Autostart {
		t.Error("autostart not set")
	}
	if v.Settings.Models == nil {
		t.Error("models not loaded")
	}
	if errs := toastTitles(o, toast.KindError); len(errs) != 0 {
		t.Errorf("error toasts = %v", errs)
	}
}

func TestSelectChatIsLockExempt(t *testing.T) {
	fake := daemontest.New()
	pid := fake.SeedProfiles("Default")[0]
	fake.SeedChat(pid, "c1")
	c2 := fake.SeedChat(pid, "c2", "two")
	lock := busy.New()
	o := New(fake, DefaultConfig(), WithBusyLock(lock))
	t.Cleanup(o.Close)
	ctx := context.Background()
	o.Init(ctx)

	if !lock.TryBegin("something slow") {
		t.Fatal("lock unexpectedly held")
	}
	defer lock.End()

	o.SelectChat(ctx, c2)
	if o.View().Chat.ActiveChatID != c2 {
		t.Error("selection blocked by busy lock")
	}
}

func TestSubscribeNotifies(t *testing.T) {
	fake := daemontest.New()
	fake.SeedProfiles("Default")
	o := newApp(t, fake)

	var n int
	var mu sync.Mutex
	unsub := o.Subscribe(func() {
		mu.Lock()
		n++
		mu.Unlock()
	})
	defer unsub()

	o.Init(context.Background())
	mu.Lock()
	defer mu.Unlock()
	if n == 0 {
		t.Error("no change notifications during Init")
	}
}
