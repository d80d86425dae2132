package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/daemon/daemontest"
)

func TestResolve(t *testing.T) {
	cands := []candidate{
		{ID: "prof_aaaa11112222", Name: "Default"},
		{ID: "prof_bbbb33334444", Name: "Work"},
		{ID: "prof_bbbc55556666", Name: "Workshop"},
		{ID: "prof_cccc77778888", Name: "twin"},
		{ID: "prof_dddd99990000", Name: "Twin"},
	}

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr string
	}{
		{name: "exact id", arg: "prof_bbbb33334444", want: "prof_bbbb33334444"},
		{name: "name", arg: "Work", want: "prof_bbbb33334444"},
		{name: "name ignores case", arg: "default", want: "prof_aaaa11112222"},
		{name: "unique prefix", arg: "prof_a", want: "prof_aaaa11112222"},
		{name: "ambiguous prefix", arg: "prof_bbb", wantErr: `no profile named "prof_bbb"`},
		{name: "ambiguous name", arg: "twin", wantErr: "ambiguous"},
		{name: "suggestion", arg: "Wrok", wantErr: `did you mean "Work"`},
		{name: "no suggestion", arg: "zzzzzzzzzz", wantErr: `no profile named "zzzzzzzzzz"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve("profile", tt.arg, cands)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("resolve() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSuggestOrdersByDistance(t *testing.T) {
	cands := []candidate{{Name: "Workshop"}, {Name: "Work"}, {Name: "Worm"}}
	got := suggest("Wor", cands)
	if len(got) != 2 || got[0] != `"Work"` {
		t.Errorf("suggest() = %v", got)
	}
}

func TestTargetProfile(t *testing.T) {
	defer func() { profileFlag = "" }()
	fake := daemontest.New()
	ids := fake.SeedProfiles("Default", "Work")
	ctx := context.Background()

	profileFlag = ""
	got, err := targetProfile(ctx, fake)
	if err != nil || got != ids[0] {
		t.Errorf("targetProfile() = %q, %v; want active %q", got, err, ids[0])
	}

	profileFlag = "work"
	got, err = targetProfile(ctx, fake)
	if err != nil || got != ids[1] {
		t.Errorf("targetProfile() = %q, %v; want %q", got, err, ids[1])
	}
}

func TestResolveChatArg(t *testing.T) {
	fake := daemontest.New()
	pid := fake.SeedProfiles("Default")[0]
	chatID := fake.SeedChat(pid, "Trip planning")

	got, err := resolveChatArg(context.Background(), fake, pid, "trip planning")
	if err != nil || got != chatID {
		t.Errorf("resolveChatArg() = %q, %v", got, err)
	}
}

func TestRenderTo(t *testing.T) {
	store := daemon.ProfilesStore{
		Version:         1,
		ActiveProfileID: "prof_1",
		Profiles:        []daemon.Profile{{ID: "prof_1", Name: "Default"}},
	}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderTo(&buf, "yaml", store, nil); err != nil {
			t.Fatalf("renderTo() error = %v", err)
		}
		out := buf.String()
		for _, want := range []string{"active_profile_id: prof_1", "name: Default"} {
			if !strings.Contains(out, want) {
				t.Errorf("yaml output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		err := renderTo(&buf, "table", store, func(w io.Writer) {
			printProfiles(w, &store)
		})
		if err != nil {
			t.Fatalf("renderTo() error = %v", err)
		}
		if !strings.Contains(buf.String(), "* Default") {
			t.Errorf("table output:\n%s", buf.String())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := renderTo(&bytes.Buffer{}, "xml", store, nil); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
