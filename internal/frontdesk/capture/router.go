package capture

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ManualEntryKey, pressed with Ctrl, moves focus to the manual member-id
// field.
const ManualEntryKey = "n"

// DefaultManualIdle is how long an untouched manual field keeps focus.
const DefaultManualIdle = 15 * time.Second

// RouterHooks receive what the router does not forward as scanner input.
type RouterHooks struct {
	// Manual gets the submitted text of the manual field.
	Manual func(text string)
	// Edit is called after every change to the manual field; active is
	// false once focus has returned to the capture element.
	Edit func(text string, active bool)
	// Interrupt is called on Ctrl+C, which a raw terminal does not turn
	// into a signal.
	Interrupt func()
}

// KeyRouter stamps key events with the element holding focus. Focus starts
// on the scanner capture element. Ctrl+N focuses the manual field; there
// Enter submits, Escape cancels, and an idle field hands focus back to the
// capture element through a FocusKeeper. Events typed into the manual
// field carry TargetTextInput, so the Disambiguator ignores them and slow
// human typing is never timed out.
type KeyRouter struct {
	hooks  RouterHooks
	keeper *FocusKeeper

	mu     sync.Mutex
	target Target
	buf    []rune
}

func NewKeyRouter(idle time.Duration, hooks RouterHooks) *KeyRouter {
	if idle <= 0 {
		idle = DefaultManualIdle
	}
	r := &KeyRouter{hooks: hooks, target: TargetCapture}
	r.keeper = NewFocusKeeper(r, idle)
	return r
}

// Focus returns focus to the capture element, dropping a partial entry.
func (r *KeyRouter) Focus() {
	r.mu.Lock()
	wasActive := r.target == TargetTextInput
	r.target = TargetCapture
	r.buf = nil
	r.mu.Unlock()

	if wasActive && r.hooks.Edit != nil {
		r.hooks.Edit("", false)
	}
}

// Target reports which element has focus.
func (r *KeyRouter) Target() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

func (r *KeyRouter) Close() { r.keeper.Close() }

// Route applies one event to the focus state and returns it stamped.
func (r *KeyRouter) Route(ev KeyEvent) KeyEvent {
	if ev.Ctrl && ev.Key == "c" {
		if r.hooks.Interrupt != nil {
			r.hooks.Interrupt()
		}
		return ev
	}

	r.mu.Lock()
	if ev.Ctrl && ev.Key == ManualEntryKey {
		r.target = TargetTextInput
		r.buf = r.buf[:0]
		r.mu.Unlock()
		r.touch()
		r.edit("", true)
		ev.Target = TargetTextInput
		return ev
	}
	if r.target != TargetTextInput {
		r.mu.Unlock()
		ev.Target = TargetCapture
		return ev
	}

	ev.Target = TargetTextInput
	var (
		submit string
		done   bool
	)
	switch {
	case ev.Key == KeyEnter:
		submit, done = strings.TrimSpace(string(r.buf)), true
	case ev.Key == "Escape":
		done = true
	case ev.Key == "Backspace":
		if len(r.buf) > 0 {
			r.buf = r.buf[:len(r.buf)-1]
		}
	case !ev.Ctrl && !ev.Meta && !ev.Alt && utf8.RuneCountInString(ev.Key) == 1:
		r.buf = append(r.buf, []rune(ev.Key)...)
	}
	text := string(r.buf)
	if done {
		r.target = TargetCapture
		r.buf = nil
	}
	r.mu.Unlock()

	if done {
		r.keeper.OnFocus()
		r.edit("", false)
		if submit != "" && r.hooks.Manual != nil {
			r.hooks.Manual(submit)
		}
		return ev
	}
	r.touch()
	r.edit(text, true)
	return ev
}

// Run routes events from in to out until in closes or ctx is done. It
// closes out on return.
func (r *KeyRouter) Run(ctx context.Context, in <-chan KeyEvent, out chan<- KeyEvent) error {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-in:
			if !ok {
				return nil
			}
			select {
			case out <- r.Route(ev):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// touch restarts the idle countdown of the manual field.
func (r *KeyRouter) touch() {
	r.keeper.OnFocus()
	r.keeper.OnBlur()
}

func (r *KeyRouter) edit(text string, active bool) {
	if r.hooks.Edit != nil {
		r.hooks.Edit(text, active)
	}
}
