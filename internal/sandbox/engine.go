// Package sandbox executes untrusted per-node interaction scripts in an
// isolated goja runtime with a deliberately narrow capability surface: a
// mutable game state handle, an append-only log function, a render function,
// and the rendering surface itself. Nothing else of the host is reachable.
package sandbox

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/gamestate"
	"github.com/storyloom/storyloom/internal/models"
)

// ErrClosed signals use of an engine after Close.
var ErrClosed = errors.NewSentinel("sandbox engine closed")

// capitalizedState matches the one known author/generator drift: scripts
// referring to the state handle with a capital letter.
var capitalizedState = regexp.MustCompile(`\bGameState\b`)

// NormalizeIdentifiers rewrites references to the capitalized state
// identifier to the canonical lowercase one, tolerating generation-service
// output drift without rejecting the script outright.
func NormalizeIdentifiers(source string) string {
	return capitalizedState.ReplaceAllString(source, "gameState")
}

// Engine owns a game state instance and a JavaScript event loop for one
// playback session. The initial portion of each activation runs
// synchronously from the caller's point of view; callbacks a script
// registers (timers, surface event listeners) fire later on the loop and may
// keep mutating the state and appending log entries.
//
// goja.Runtime is not goroutine-safe: every touch of the VM or the state map
// is routed through the event loop.
type Engine struct {
	logger *slog.Logger
	loop   *eventloop.EventLoop
	state  gamestate.State
	closed bool

	// Activation-scoped: replaced wholesale every time a node is entered, so
	// listeners of a left node never see later events. Only touched on loop.
	listeners map[string][]goja.Callable
	sink      LogSink
	surface   Surface
}

// NewEngine starts the event loop over a fresh game state.
func NewEngine(logger *slog.Logger) *Engine {
	loop := eventloop.NewEventLoop()
	loop.Start()
	return &Engine{
		logger:    logger.With("source", "sandbox.Engine"),
		loop:      loop,
		state:     gamestate.New(),
		listeners: map[string][]goja.Callable{},
	}
}

// Close stops the event loop. Pending jobs are discarded.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.loop.StopNoWait()
}

// State returns a copy of the current game state, read on the loop so it
// never races script callbacks.
func (e *Engine) State() gamestate.State {
	out := make(chan gamestate.State, 1)
	e.loop.RunOnLoop(func(_ *goja.Runtime) {
		out <- e.state.Clone()
	})
	return <-out
}

// MutateState applies fn to the live state on the loop.
func (e *Engine) MutateState(fn func(state gamestate.State)) {
	done := make(chan struct{})
	e.loop.RunOnLoop(func(_ *goja.Runtime) {
		defer close(done)
		fn(e.state)
	})
	<-done
}

// StripNodeScoped clears node-scoped keys in place on the loop. Lingering
// callbacks keep their reference to the same map, so their later writes to
// node-scoped keys are superseded by the next strip while writes to
// allow-listed keys persist.
func (e *Engine) StripNodeScoped(settings models.WorldSettings) {
	e.MutateState(func(state gamestate.State) {
		state.StripNodeScoped(settings)
	})
}

// Activate executes the script once against the current game state. The
// call returns once the synchronous portion has run. Exceptions and panics
// are caught here, appended to the log as an error entry, and never
// propagate: a broken script degrades the node's interactivity but never
// crashes playback.
func (e *Engine) Activate(source string, sink LogSink, surface Surface) error {
	if e.closed {
		return ErrClosed
	}
	normalized := NormalizeIdentifiers(source)
	done := make(chan struct{})
	e.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer close(done)
		e.listeners = map[string][]goja.Callable{}
		e.sink = sink
		e.surface = surface
		e.runScript(vm, normalized)
	})
	<-done
	return nil
}

// Dispatch delivers a surface input event to listeners the active script
// registered. It returns after every handler has run.
func (e *Engine) Dispatch(event string, payload any) {
	if e.closed {
		return
	}
	done := make(chan struct{})
	e.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer close(done)
		sink := e.sink
		for _, handler := range e.listeners[event] {
			if _, err := handler(goja.Undefined(), vm.ToValue(payload)); err != nil {
				e.reportScriptError(sink, err)
			}
		}
	})
	<-done
}

// runScript compiles and invokes the script in a fresh function scope with
// exactly the capability arguments. Strict mode keeps accidental globals
// from leaking between activations.
func (e *Engine) runScript(vm *goja.Runtime, source string) {
	sink := e.sink
	defer func() {
		if r := recover(); r != nil {
			e.reportScriptError(sink, fmt.Errorf("script panicked: %v", r))
		}
	}()

	wrapped := "(function (gameState, log, render, surface) {\n\"use strict\";\n" + source + "\n})"
	value, err := vm.RunScript("interaction", wrapped)
	if err != nil {
		e.reportScriptError(sink, err)
		return
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		e.reportScriptError(sink, fmt.Errorf("script did not compile to a function"))
		return
	}

	_, err = fn(goja.Undefined(),
		vm.ToValue(map[string]any(e.state)),
		vm.ToValue(e.logFunc(sink)),
		vm.ToValue(e.renderFunc()),
		e.surfaceObject(vm),
	)
	if err != nil {
		e.reportScriptError(sink, err)
	}
}

// logFunc is the one-argument append-only logging capability.
func (e *Engine) logFunc(sink LogSink) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		text := ""
		if len(call.Arguments) > 0 {
			text = fmt.Sprintf("%v", call.Arguments[0].Export())
		}
		sink.Append(Entry{Level: LevelInfo, Text: text})
		return goja.Undefined()
	}
}

// renderFunc replaces the surface contents with a markup fragment.
func (e *Engine) renderFunc() func(goja.FunctionCall) goja.Value {
	surface := e.surface
	return func(call goja.FunctionCall) goja.Value {
		html := ""
		if len(call.Arguments) > 0 {
			html = call.Arguments[0].String()
		}
		surface.ReplaceContent(html)
		return goja.Undefined()
	}
}

// surfaceObject is the direct surface handle: scripts use it to attach
// input-event listeners and replace content without going through render.
func (e *Engine) surfaceObject(vm *goja.Runtime) goja.Value {
	surface := e.surface
	obj := vm.NewObject()
	_ = obj.Set("replace", func(call goja.FunctionCall) goja.Value {
		html := ""
		if len(call.Arguments) > 0 {
			html = call.Arguments[0].String()
		}
		surface.ReplaceContent(html)
		return goja.Undefined()
	})
	_ = obj.Set("on", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		event := call.Arguments[0].String()
		handler, ok := goja.AssertFunction(call.Arguments[1])
		if !ok {
			return goja.Undefined()
		}
		e.listeners[event] = append(e.listeners[event], handler)
		return goja.Undefined()
	})
	return obj
}

func (e *Engine) reportScriptError(sink LogSink, err error) {
	if sink != nil {
		sink.Append(Entry{Level: LevelError, Text: fmt.Sprintf("script error: %v", err)})
	}
	e.logger.Debug("interaction script failed", errors.SlogError(err))
}
