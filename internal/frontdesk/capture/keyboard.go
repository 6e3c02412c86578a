package capture

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultResetThreshold is the inter-character gap above which buffered
// input is treated as human typing and discarded.
const DefaultResetThreshold = 2000 * time.Millisecond

const KeyEnter = "Enter"

// Target is where keyboard focus was when the event fired.
type Target int

const (
	// TargetCapture is the dedicated scanner capture element.
	TargetCapture Target = iota
	// TargetTextInput is any other focused text field.
	TargetTextInput
	TargetOther
)

// KeyEvent is one key press. Key is a single printable character or a
// named key such as "Enter", "ArrowUp" or "Shift".
type KeyEvent struct {
	Key    string
	Ctrl   bool
	Meta   bool
	Alt    bool
	Target Target
	At     time.Time
}

type KeyboardConfig struct {
	ResetThreshold time.Duration
}

// Disambiguator frames scanner bursts out of a keystroke stream using
// only inter-character timing. It is not safe for concurrent use.
type Disambiguator struct {
	threshold time.Duration
	buf       strings.Builder
	last      time.Time
}

func NewDisambiguator(cfg KeyboardConfig) *Disambiguator {
	if cfg.ResetThreshold <= 0 {
		cfg.ResetThreshold = DefaultResetThreshold
	}
	return &Disambiguator{threshold: cfg.ResetThreshold}
}

// Feed consumes one event and returns a token when it completes a scan.
func (d *Disambiguator) Feed(ev KeyEvent) (string, bool) {
	if ev.Ctrl || ev.Meta || ev.Alt {
		return "", false
	}
	if ev.Target == TargetTextInput {
		return "", false
	}

	if ev.Key == KeyEnter {
		tok := strings.TrimSpace(d.buf.String())
		d.Reset()
		if tok == "" {
			return "", false
		}
		return tok, true
	}

	if utf8.RuneCountInString(ev.Key) != 1 {
		return "", false
	}

	if d.buf.Len() > 0 && ev.At.Sub(d.last) > d.threshold {
		d.buf.Reset()
	}
	d.buf.WriteString(ev.Key)
	d.last = ev.At
	return "", false
}

// Reset drops any buffered characters.
func (d *Disambiguator) Reset() {
	d.buf.Reset()
	d.last = time.Time{}
}

// Listener owns one disambiguator for the lifetime of a Run call.
type Listener struct {
	cfg KeyboardConfig
	log *zap.SugaredLogger
}

func NewListener(cfg KeyboardConfig, log *zap.SugaredLogger) *Listener {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Listener{cfg: cfg, log: log}
}

// Run feeds events into a fresh disambiguator and hands each completed
// token to emit. It returns when ctx is done or events is closed.
func (l *Listener) Run(ctx context.Context, events <-chan KeyEvent, emit func(Token)) error {
	d := NewDisambiguator(l.cfg)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			text, done := d.Feed(ev)
			if !done {
				continue
			}
			tok := newToken(text, SourceKeyboard)
			l.log.Debugw("keyboard scan", "scan_id", tok.ScanID, "len", len(text))
			emit(tok)
		}
	}
}

// DefaultRefocusDelay is how long the capture element may stay blurred.
const DefaultRefocusDelay = 100 * time.Millisecond

// Focuser moves input focus back to the capture element.
type Focuser interface {
	Focus()
}

// FocusKeeper re-acquires focus on the capture element after a blur.
type FocusKeeper struct {
	f     Focuser
	delay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func NewFocusKeeper(f Focuser, delay time.Duration) *FocusKeeper {
	if delay <= 0 {
		delay = DefaultRefocusDelay
	}
	return &FocusKeeper{f: f, delay: delay}
}

// OnBlur schedules a refocus. Repeated blurs keep a single pending timer.
func (k *FocusKeeper) OnBlur() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed || k.timer != nil {
		return
	}
	k.timer = time.AfterFunc(k.delay, k.fire)
}

// OnFocus cancels a pending refocus.
func (k *FocusKeeper) OnFocus() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopLocked()
}

func (k *FocusKeeper) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	k.stopLocked()
}

func (k *FocusKeeper) fire() {
	k.mu.Lock()
	if k.closed || k.timer == nil {
		k.mu.Unlock()
		return
	}
	k.timer = nil
	k.mu.Unlock()

	k.f.Focus()
}

func (k *FocusKeeper) stopLocked() {
	if k.timer != nil {
		k.timer.Stop()
		k.timer = nil
	}
}
