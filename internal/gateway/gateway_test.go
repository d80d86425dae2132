package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/daemon/daemontest"
)

func TestActions_RefreshLogsUnconditionally(t *testing.T) {
	tests := []struct {
		action Action
		op     daemon.MessageType
	}{
		{ActionStatus, daemon.MsgGatewayStatus},
		{ActionStart, daemon.MsgGatewayStart},
		{ActionStop, daemon.MsgGatewayStop},
		{ActionRestart, daemon.MsgGatewayRestart},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			for _, fail := range []bool{false, true} {
				fake := daemontest.New()
				if fail {
					fake.SetFail(tt.op, daemontest.ErrInjected)
				}
				c := NewController(fake, 0)

				_, err := c.Do(context.Background(), tt.action, "p1")
				if (err != nil) != fail {
					t.Errorf("fail=%v: err = %v", fail, err)
				}

				calls := fake.Calls()
				want := []string{string(tt.op) + " p1", "gateway.logs 200"}
				if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
					t.Errorf("fail=%v: calls = %v, want %v", fail, calls, want)
				}
			}
		})
	}
}

func TestFailureKeepsPriorState(t *testing.T) {
	fake := daemontest.New()
	fake.SetGateway(daemon.GatewayStatus{Stdout: "running"}, daemon.GatewayLogs{Out: "line 1", Err: ""})
	c := NewController(fake, 50)
	ctx := context.Background()

	if _, err := c.Status(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	fake.SetFail(daemon.MsgGatewayStop, daemontest.ErrInjected)
	fake.SetFail(daemon.MsgGatewayLogs, daemontest.ErrInjected)

	st, err := c.Stop(ctx, "p1")
	if err == nil {
		t.Fatal("expected error")
	}
	if st.Stdout != "running" {
		t.Errorf("returned status = %+v, want prior snapshot", st)
	}
	v := c.View()
	if v.Status == nil || v.Status.Stdout != "running" {
		t.Errorf("status blanked: %+v", v.Status)
	}
	if v.Logs == nil || v.Logs.Out != "line 1" {
		t.Errorf("logs blanked: %+v", v.Logs)
	}
}

func TestProfileSwitchDropsStatus(t *testing.T) {
	fake := daemontest.New()
	fake.SetGateway(daemon.GatewayStatus{Stdout: "running"}, daemon.GatewayLogs{Out: "line 1"})
	c := NewController(fake, 0)
	ctx := context.Background()

	if _, err := c.Status(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	fake.SetFail(daemon.MsgGatewayStatus, daemontest.ErrInjected)

	st, err := c.Status(ctx, "p2")
	if err == nil {
		t.Fatal("expected error")
	}
	if st != (daemon.GatewayStatus{}) {
		t.Errorf("returned status = %+v, want empty for new profile", st)
	}
	v := c.View()
	if v.Status != nil {
		t.Errorf("status = %+v, still shows p1", v.Status)
	}
	if v.Logs == nil || v.Logs.Out != "line 1" {
		t.Errorf("logs = %+v, global tail should stay", v.Logs)
	}
}

func TestSetProfile_SameProfileKeepsStatus(t *testing.T) {
	fake := daemontest.New()
	c := NewController(fake, 0)
	if _, err := c.Status(context.Background(), "p1"); err != nil {
		t.Fatal(err)
	}
	c.SetProfile("p1")
	if c.View().Status == nil {
		t.Error("status dropped without a profile change")
	}
	c.SetProfile("")
	if c.View().Status != nil {
		t.Error("status kept after clearing the profile")
	}
}

func TestLogsFailureAfterSuccess(t *testing.T) {
	fake := daemontest.New()
	fake.SetFail(daemon.MsgGatewayLogs, daemontest.ErrInjected)
	c := NewController(fake, 0)

	st, err := c.Start(context.Background(), "p1")
	if !errors.Is(err, ErrLogsUnavailable) {
		t.Fatalf("err = %v, want ErrLogsUnavailable", err)
	}
	if st.Stdout != "gateway: running" {
		t.Errorf("status = %+v", st)
	}
	if v := c.View(); v.Status == nil || v.Logs != nil {
		t.Errorf("view = %+v, want status applied and logs unset", v)
	}
}

func TestNonZeroExitIsAppliedSnapshot(t *testing.T) {
	fake := daemontest.New()
	fake.SetGateway(daemon.GatewayStatus{ExitCode: 1, Stderr: "not installed"}, daemon.GatewayLogs{})
	c := NewController(fake, 0)

	st, err := c.Status(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if st.ExitCode != 1 {
		t.Errorf("ExitCode = %d", st.ExitCode)
	}
	if c.View().Running() {
		t.Error("Running() = true for nonzero exit")
	}
}

func TestUnknownAction(t *testing.T) {
	c := NewController(daemontest.New(), 0)
	if _, err := c.Do(context.Background(), Action("explode"), "p1"); err == nil {
		t.Error("expected error")
	}
}
