package ui

import (
	"strings"
	"testing"
	"time"

	"prefmacro/internal/driver"
)

func TestProgressModelTracksEvents(t *testing.T) {
	m := NewProgressModel("expanding", []string{"A.swift"}, nil).(*progressModel)

	m.Update(eventMsg(driver.Event{Path: "A.swift", Stage: driver.StageExpand}))
	m.Update(eventMsg(driver.Event{Path: "sub/B.swift", Stage: driver.StageQueued}))
	if len(m.items) != 2 {
		t.Fatalf("items = %d, want 2", len(m.items))
	}
	if got := m.items[0].status; got != "expanding" {
		t.Fatalf("status = %q", got)
	}

	m.Update(eventMsg(driver.Event{Path: "A.swift", Stage: driver.StageDone, Changed: true}))
	m.Update(eventMsg(driver.Event{Path: "sub/B.swift", Stage: driver.StageDone, Errors: 1}))
	if m.items[0].status != "expanded" || m.items[1].status != "error" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if got := m.percent(); got != 1.0 {
		t.Fatalf("percent = %v", got)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil || !m.done {
		t.Fatal("doneMsg must quit")
	}
	view := m.View()
	for _, want := range []string{"done: expanding (2/2)", "A.swift", "sub/B.swift"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		ev   driver.Event
		want string
	}{
		{driver.Event{Stage: driver.StageQueued}, "queued"},
		{driver.Event{Stage: driver.StageParse}, "parsing"},
		{driver.Event{Stage: driver.StageMaterialize}, "printing"},
		{driver.Event{Stage: driver.StageDone, Cached: true}, "cached"},
		{driver.Event{Stage: driver.StageDone}, "unchanged"},
		{driver.Event{Stage: driver.StageDone, Errors: 2, Cached: true}, "error"},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.ev); got != tt.want {
			t.Errorf("statusLabel(%+v) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Sources/Preferences.swift", 10); got != "Sources..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("日本語.swift", 5); got != "日..." {
		t.Fatalf("truncate wide = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestFeedDeliversUntilClosed(t *testing.T) {
	observe, events, closeFn := Feed(4)
	observe(driver.Event{Path: "A.swift", Stage: driver.StageQueued})
	closeFn()
	closeFn()
	observe(driver.Event{Path: "B.swift"})

	var got []string
	timeout := time.After(time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if len(got) != 1 || got[0] != "A.swift" {
					t.Fatalf("got %v", got)
				}
				return
			}
			got = append(got, ev.Path)
		case <-timeout:
			t.Fatal("channel not closed")
		}
	}
}
