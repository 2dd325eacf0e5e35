// Package launcher creates the application's single window, restores its
// maximized state and persists that state when the window closes.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/winlaunch/internal/config"
	"github.com/1broseidon/winlaunch/internal/platform"
	"github.com/1broseidon/winlaunch/internal/storage"
)

var (
	// ErrWindowActive is returned by Launch while a window is live or being
	// created. Only one window is supported at a time.
	ErrWindowActive = errors.New("window already active")
	// ErrNoWindow is returned by operations that need a live window.
	ErrNoWindow = errors.New("no active window")
)

// Options are the fixed window parameters.
type Options struct {
	URL         string
	WindowID    string
	TopbarColor string
	MinWidth    int
	AspectRatio float64
}

// OptionsFromConfig extracts window options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:         cfg.Window.URL,
		WindowID:    cfg.Window.ID,
		TopbarColor: cfg.Window.TopbarColor,
		MinWidth:    cfg.Window.MinWidth,
		AspectRatio: cfg.Window.AspectRatio,
	}
}

// Status is a snapshot of the launcher state.
type Status struct {
	WindowActive       bool              `json:"window_active"`
	WindowID           platform.WindowID `json:"window_id,omitempty"`
	Launching          bool              `json:"launching"`
	CallbackRegistered bool              `json:"callback_registered"`
}

// Launcher owns the window handle and the window-created callback slot. The
// platform may invoke close listeners from its own event goroutine, so all
// state is guarded by mu; mu is never held across platform calls or while
// running the callback.
type Launcher struct {
	backend platform.Backend
	store   storage.Store
	logger  *slog.Logger

	mu        sync.Mutex
	opts      Options
	window    platform.Window
	launching bool
	onCreated func()
}

func New(backend platform.Backend, store storage.Store, opts Options, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Launcher{
		backend: backend,
		store:   store,
		opts:    opts,
		logger:  logger,
	}
}

// UpdateOptions replaces the window options used by later launches.
func (l *Launcher) UpdateOptions(opts Options) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opts = opts
}

// Launch creates the window. It reads the persisted placement, creates a
// hidden window centred on the available area, re-applies maximize (the
// platform drops the start state of hidden windows), wires the close listener
// and finally runs the window-created callback if one is registered.
func (l *Launcher) Launch(ctx context.Context) error {
	l.mu.Lock()
	if l.window != nil || l.launching {
		l.mu.Unlock()
		return ErrWindowActive
	}
	l.launching = true
	opts := l.opts
	l.mu.Unlock()

	win, err := l.create(ctx, opts)

	l.mu.Lock()
	l.launching = false
	callback := l.onCreated
	l.mu.Unlock()

	if err != nil {
		return err
	}

	l.logger.Info("window created", "window_id", win.ID(), "url", opts.URL)

	if callback != nil {
		callback()
	}
	return nil
}

func (l *Launcher) create(ctx context.Context, opts Options) (platform.Window, error) {
	placement, err := LoadPlacement(l.store)
	if err != nil {
		return nil, err
	}

	area, err := l.backend.AvailableArea()
	if err != nil {
		return nil, fmt.Errorf("failed to query available screen area: %w", err)
	}
	geom := ComputeGeometry(opts.MinWidth, opts.AspectRatio, area)

	win, err := l.backend.CreateWindow(ctx, opts.URL, platform.CreateOptions{
		ID:         opts.WindowID,
		FrameColor: opts.TopbarColor,
		Hidden:     true,
		Bounds:     geom.Bounds(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if placement.ShouldMaximize() {
		if err := win.Maximize(); err != nil {
			l.logger.Error("failed to restore maximized state", "window_id", win.ID(), "error", err)
		}
	}

	// Publish the handle before wiring the listener so an early close
	// clears it.
	l.mu.Lock()
	l.window = win
	l.mu.Unlock()

	win.OnClosed(func() { l.handleClosed(win) })
	return win, nil
}

// handleClosed persists the live state of win. The two writes are
// independent and best effort.
func (l *Launcher) handleClosed(win platform.Window) {
	maximized := win.IsMaximized()
	fullscreen := win.IsFullscreen()

	if err := l.store.Set(map[string]bool{keyMaximized: maximized}); err != nil {
		l.logger.Error("failed to persist maximized state", "error", err)
	}
	if err := l.store.Set(map[string]bool{keyFullscreen: fullscreen}); err != nil {
		l.logger.Error("failed to persist fullscreen state", "error", err)
	}

	l.mu.Lock()
	if l.window == win {
		l.window = nil
	}
	l.mu.Unlock()

	l.logger.Info("window closed",
		"window_id", win.ID(),
		"maximized", maximized,
		"fullscreen", fullscreen)
}

// HandleExternalMessage answers a control message. Only TrustedSenderID may
// register the window-created callback; anything else is dropped with a
// warning. A later registration replaces an earlier one.
func (l *Launcher) HandleExternalMessage(msg Message, sender Sender, respond func()) Disposition {
	if sender.ID != TrustedSenderID {
		l.logger.Warn("unknown sender id", "sender_id", sender.ID)
		return Handled
	}

	switch msg.Action {
	case ActionSetWindowCreatedCallback:
		l.mu.Lock()
		l.onCreated = respond
		l.mu.Unlock()
		return ResponsePending
	default:
		l.logger.Warn("unknown action", "action", string(msg.Action))
		return Handled
	}
}

// Show maps the live window.
func (l *Launcher) Show() error {
	win := l.current()
	if win == nil {
		return ErrNoWindow
	}
	return win.Show()
}

// Close closes the live window; the close listener persists its state.
func (l *Launcher) Close() error {
	win := l.current()
	if win == nil {
		return ErrNoWindow
	}
	return win.Close()
}

// Placement returns the persisted placement state.
func (l *Launcher) Placement() (PlacementState, error) {
	return LoadPlacement(l.store)
}

func (l *Launcher) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Status{
		Launching:          l.launching,
		CallbackRegistered: l.onCreated != nil,
	}
	if l.window != nil {
		st.WindowActive = true
		st.WindowID = l.window.ID()
	}
	return st
}

func (l *Launcher) current() platform.Window {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window
}
