package capture_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/frontdesk-gym/frontdesk/internal/frontdesk/capture"
)

func readAll(t *testing.T, input string, now func() time.Time) []capture.KeyEvent {
	t.Helper()
	src := capture.NewTerminalSource(strings.NewReader(input), now)
	out := make(chan capture.KeyEvent, 64)
	if err := src.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var evs []capture.KeyEvent
	for ev := range out {
		evs = append(evs, ev)
	}
	return evs
}

func TestTerminalSource_KeyMapping(t *testing.T) {
	evs := readAll(t, "4\x1b[A\x03ι\t\x7f\r", nil)

	want := []struct {
		key  string
		ctrl bool
	}{
		{"4", false},
		{"ArrowUp", false},
		{"c", true},
		{"ι", false},
		{"Tab", false},
		{"Backspace", false},
		{capture.KeyEnter, false},
	}
	if len(evs) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(evs), evs)
	}
	for i, w := range want {
		if evs[i].Key != w.key || evs[i].Ctrl != w.ctrl {
			t.Errorf("event %d: expected %q ctrl=%v, got %q ctrl=%v", i, w.key, w.ctrl, evs[i].Key, evs[i].Ctrl)
		}
		if evs[i].Target != capture.TargetCapture {
			t.Errorf("event %d: expected capture target", i)
		}
	}
}

func TestTerminalSource_StampsWithClock(t *testing.T) {
	clock := t0
	now := func() time.Time {
		clock = clock.Add(3 * time.Second)
		return clock
	}

	evs := readAll(t, "12\n", now)

	// Each character arrives 3s after the previous one, so only "2" survives.
	d := capture.NewDisambiguator(capture.KeyboardConfig{})
	got := feedAll(d, evs...)
	if len(got) != 1 || got[0] != "2" {
		t.Fatalf("expected [2], got %v", got)
	}
}

func TestTerminalSource_ScannerBurstThroughListener(t *testing.T) {
	src := capture.NewTerminalSource(strings.NewReader(`{"id": 7}`+"\r\n"), nil)
	events := make(chan capture.KeyEvent)
	go func() { _ = src.Run(context.Background(), events) }()

	var got []capture.Token
	l := capture.NewListener(capture.KeyboardConfig{}, nil)
	if err := l.Run(context.Background(), events, func(tok capture.Token) { got = append(got, tok) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0].Text != `{"id": 7}` {
		t.Fatalf("unexpected tokens %+v", got)
	}
}

func TestMakeRaw_NotATerminal(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	restore, raw, err := capture.MakeRaw(r)
	if err != nil {
		t.Fatalf("MakeRaw: %v", err)
	}
	if raw {
		t.Error("a pipe must not be reported as raw")
	}
	if err := restore(); err != nil {
		t.Errorf("restore: %v", err)
	}
}
