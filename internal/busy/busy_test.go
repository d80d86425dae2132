package busy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestTryBegin_MutualExclusion(t *testing.T) {
	l := New()

	if !l.TryBegin("Creating profile") {
		t.Fatal("first TryBegin should succeed")
	}
	if l.TryBegin("Sending") {
		t.Fatal("second TryBegin should fail while held")
	}
	if got := l.Reason(); got != "Creating profile" {
		t.Errorf("Reason() = %q, want first holder's reason", got)
	}

	l.End()
	if l.Held() {
		t.Error("lock should be free after End")
	}
	if l.Reason() != "" {
		t.Errorf("Reason() = %q after End, want empty", l.Reason())
	}
	if !l.TryBegin("Sending") {
		t.Error("TryBegin should succeed after End")
	}
}

func TestEnd_OnFreeLockIsNoop(t *testing.T) {
	var l Lock
	l.End()
	if l.Held() {
		t.Error("zero lock should be free")
	}
}

func TestRun_ReleasesOnEveryPath(t *testing.T) {
	boom := errors.New("boundary failed")

	tests := []struct {
		name    string
		fn      func() error
		wantErr error
		panics  bool
	}{
		{"success", func() error { return nil }, nil, false},
		{"failure", func() error { return boom }, boom, false},
		{"panic", func() error { panic("boom") }, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			func() {
				defer func() {
					r := recover()
					if (r != nil) != tt.panics {
						t.Errorf("panic = %v, want panic %v", r, tt.panics)
					}
				}()
				err := l.Run("Working", tt.fn)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
				}
			}()
			if l.Held() {
				t.Error("lock still held after Run returned")
			}
		})
	}
}

func TestRun_RejectsWhileHeld(t *testing.T) {
	l := New()
	var called bool

	err := l.Run("outer", func() error {
		return l.Run("inner", func() error {
			called = true
			return nil
		})
	})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("nested Run error = %v, want ErrBusy", err)
	}
	if called {
		t.Error("inner fn must not run while lock is held")
	}
	if l.Held() {
		t.Error("lock still held")
	}
}

func TestRun_ConcurrentSingleFlight(t *testing.T) {
	l := New()
	var inside, maxInside, ran atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = l.Run("op", func() error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				ran.Add(1)
				inside.Add(-1)
				return nil
			})
		}()
	}
	close(start)
	wg.Wait()

	if maxInside.Load() > 1 {
		t.Errorf("observed %d concurrent holders", maxInside.Load())
	}
	if ran.Load() < 1 {
		t.Error("at least one Run should have executed")
	}
	if l.Held() {
		t.Error("lock held after all goroutines finished")
	}
}

func TestSubscribe(t *testing.T) {
	l := New()
	var states []State
	unsub := l.Subscribe(func(s State) { states = append(states, s) })

	_ = l.Run("Renaming chat", func() error { return nil })
	unsub()
	_ = l.Run("ignored", func() error { return nil })

	if len(states) != 2 {
		t.Fatalf("got %d transitions, want 2", len(states))
	}
	if !states[0].Held || states[0].Reason != "Renaming chat" {
		t.Errorf("first transition = %+v", states[0])
	}
	if states[1].Held {
		t.Errorf("second transition = %+v, want free", states[1])
	}
}
