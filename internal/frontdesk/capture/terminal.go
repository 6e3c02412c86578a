package capture

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// MakeRaw puts f into raw mode when it is a terminal. A cooked terminal
// hands over a whole line at Enter, so every key would get the same
// arrival stamp and scanner bursts could not be told from typing. raw is
// false, and restore a no-op, when f is not a terminal.
func MakeRaw(f *os.File) (restore func() error, raw bool, err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() error { return nil }, false, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() error { return nil }, false, err
	}
	return func() error { return term.Restore(fd, state) }, true, nil
}

// TerminalSource turns the raw byte stream of a terminal (where a
// keyboard-emulation scanner types) into key events stamped on arrival.
type TerminalSource struct {
	r   *bufio.Reader
	now func() time.Time
}

// NewTerminalSource reads from r. now defaults to time.Now.
func NewTerminalSource(r io.Reader, now func() time.Time) *TerminalSource {
	if now == nil {
		now = time.Now
	}
	return &TerminalSource{r: bufio.NewReader(r), now: now}
}

// Run reads until EOF or ctx is done and closes out on return.
func (s *TerminalSource) Run(ctx context.Context, out chan<- KeyEvent) error {
	defer close(out)
	for {
		ev, err := s.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *TerminalSource) next() (KeyEvent, error) {
	r, _, err := s.r.ReadRune()
	if err != nil {
		return KeyEvent{}, err
	}
	ev := KeyEvent{Target: TargetCapture, At: s.now()}

	switch {
	case r == '\r' || r == '\n':
		ev.Key = KeyEnter
	case r == '\t':
		ev.Key = "Tab"
	case r == 0x7f || r == 0x08:
		ev.Key = "Backspace"
	case r == 0x1b:
		ev.Key = s.escape()
	case r < 0x20:
		// Ctrl+A .. Ctrl+Z arrive as 0x01 .. 0x1a.
		ev.Key = string(rune('a' + r - 1))
		ev.Ctrl = true
	default:
		ev.Key = string(r)
	}
	return ev, nil
}

var csiKeys = map[rune]string{
	'A': "ArrowUp",
	'B': "ArrowDown",
	'C': "ArrowRight",
	'D': "ArrowLeft",
	'H': "Home",
	'F': "End",
}

// escape consumes an ANSI CSI sequence after ESC and names the key.
func (s *TerminalSource) escape() string {
	next, _, err := s.r.ReadRune()
	if err != nil {
		return "Escape"
	}
	if next != '[' {
		_ = s.r.UnreadRune()
		return "Escape"
	}
	for {
		c, _, err := s.r.ReadRune()
		if err != nil {
			return "Unidentified"
		}
		if c >= 0x40 && c <= 0x7e {
			if name, ok := csiKeys[c]; ok {
				return name
			}
			return "Unidentified"
		}
	}
}
