package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestInputLine_History(t *testing.T) {
	tests := []struct {
		name string
		sent []string
		want []string
	}{
		{"blank ignored", []string{"", "hi"}, []string{"hi"}},
		{"repeat collapsed", []string{"hi", "hi", "yo"}, []string{"hi", "yo"}},
		{"non-adjacent repeat kept", []string{"hi", "yo", "hi"}, []string{"hi", "yo", "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			il := NewInputLine()
			for _, s := range tt.sent {
				il.AddToHistory(s)
			}
			if fmt.Sprint(il.history) != fmt.Sprint(tt.want) {
				t.Errorf("history = %q, want %q", il.history, tt.want)
			}
		})
	}
}

func TestInputLine_HistoryIsBounded(t *testing.T) {
	il := NewInputLine()
	for i := 0; i < maxHistorySize+5; i++ {
		il.AddToHistory(fmt.Sprintf("msg %d", i))
	}
	if len(il.history) != maxHistorySize {
		t.Fatalf("history length = %d, want %d", len(il.history), maxHistorySize)
	}
	if il.history[0] != "msg 5" {
		t.Errorf("oldest kept = %q, want msg 5", il.history[0])
	}
}

func TestInputLine_BrowsingRestoresDraft(t *testing.T) {
	il := NewInputLine()
	if il.HistoryUp() || il.HistoryDown() {
		t.Fatal("navigation with no history changed the composer")
	}

	il.AddToHistory("how are you")
	il.AddToHistory("tell me a joke")
	il.SetValue("unsent draft")

	steps := []struct {
		up      bool
		changed bool
		want    string
	}{
		{true, true, "tell me a joke"},
		{true, true, "how are you"},
		{true, false, "how are you"},
		{false, true, "tell me a joke"},
		{false, true, "unsent draft"},
		{false, false, "unsent draft"},
	}
	for i, s := range steps {
		var changed bool
		if s.up {
			changed = il.HistoryUp()
		} else {
			changed = il.HistoryDown()
		}
		if changed != s.changed || il.Value() != s.want {
			t.Errorf("step %d: changed=%v value=%q, want %v %q", i, changed, il.Value(), s.changed, s.want)
		}
	}
}

func TestInputLine_TypingEndsBrowsing(t *testing.T) {
	il := NewInputLine()
	il.AddToHistory("entry")
	il.SetValue("draft")
	il.HistoryUp()

	il.ResetHistoryNavigation()

	if il.historyIndex != -1 || il.savedInput != "" {
		t.Errorf("index=%d saved=%q after reset", il.historyIndex, il.savedInput)
	}
	if il.HistoryDown() {
		t.Error("HistoryDown after reset changed the composer")
	}
}

func TestInputLine_SetValueGrowsHeight(t *testing.T) {
	il := NewInputLine()

	il.SetValue("line one\nline two\nline three")
	if got := il.ContentHeight(); got != 3 {
		t.Errorf("ContentHeight = %d, want 3", got)
	}

	il.SetValue(strings.Repeat("x\n", maxInputHeight+3))
	if got := il.ContentHeight(); got != maxInputHeight {
		t.Errorf("ContentHeight = %d, want cap %d", got, maxInputHeight)
	}

	il.Clear()
	if il.Value() != "" || il.ContentHeight() != 1 {
		t.Errorf("after Clear: value=%q height=%d", il.Value(), il.ContentHeight())
	}
}

func TestInputLine_InsertNewline(t *testing.T) {
	il := NewInputLine()
	il.SetValue("first")
	il.InsertNewline()
	if il.ContentHeight() != 2 {
		t.Errorf("ContentHeight = %d, want 2", il.ContentHeight())
	}
}

func TestInputLine_ResetPlaceholder(t *testing.T) {
	il := NewInputLine()
	il.SetPlaceholder(PromptNewProfile.Label())
	if il.input.Placeholder != PromptNewProfile.Label() {
		t.Fatalf("placeholder = %q", il.input.Placeholder)
	}
	il.ResetPlaceholder()
	if il.input.Placeholder != messagePlaceholder {
		t.Errorf("placeholder = %q, want %q", il.input.Placeholder, messagePlaceholder)
	}
}

func TestModel_PromptValuesStayOutOfHistory(t *testing.T) {
	tm := newTestModel(t)

	tm.key("P")
	tm.key("Work")
	tm.run(tm.special(tea.KeyEnter))

	if len(tm.m.inputLine.history) != 0 {
		t.Errorf("history = %q after prompt", tm.m.inputLine.history)
	}
	if tm.m.inputLine.input.Placeholder != messagePlaceholder {
		t.Errorf("placeholder = %q after prompt", tm.m.inputLine.input.Placeholder)
	}
}
