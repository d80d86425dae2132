package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func newFileStore(t *testing.T) *Store {
	t.Helper()
	return New(Options{
		Backend:  "file",
		FileDir:  t.TempDir(),
		Password: keyring.FixedStringPrompt("test-password"),
	})
}

func TestSetGetDelete(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "p1", "gateway.token")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if got != nil {
		t.Fatalf("Get missing = %q, want nil", *got)
	}

	if err := s.Set(ctx, "p1", "gateway.token", "s3cret"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = s.Get(ctx, "p1", "gateway.token")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "s3cret" {
		t.Fatalf("Get = %v", got)
	}

	if err := s.Delete(ctx, "p1", "gateway.token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = s.Get(ctx, "p1", "gateway.token")
	if err != nil || got != nil {
		t.Errorf("after delete = %v, %v", got, err)
	}

	if err := s.Delete(ctx, "p1", "gateway.token"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "p1", "k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "p2", "k", "two"); err != nil {
		t.Fatal(err)
	}
	for pid, want := range map[string]string{"p1": "one", "p2": "two"} {
		got, err := s.Get(ctx, pid, "k")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || *got != want {
			t.Errorf("%s = %v, want %q", pid, got, want)
		}
	}
}

func TestMissingPassword(t *testing.T) {
	t.Setenv(EnvPassword, "")
	s := New(Options{Backend: "file", FileDir: t.TempDir()})
	err := s.Set(context.Background(), "p1", "k", "v")
	if !errors.Is(err, ErrNoPassword) {
		t.Errorf("err = %v, want ErrNoPassword", err)
	}
}

func TestService(t *testing.T) {
	if got := Service("p_1"); got != "openclaw-desktop:p_1" {
		t.Errorf("Service = %q", got)
	}
	if got := safeName("openclaw-desktop:p_1"); got != "openclaw-desktop-p_1" {
		t.Errorf("safeName = %q", got)
	}
}
