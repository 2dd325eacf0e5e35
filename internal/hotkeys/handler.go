// Package hotkeys binds global X11 key sequences to window actions.
package hotkeys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/winlaunch/internal/launcher"
	"github.com/1broseidon/winlaunch/internal/platform"
)

// WindowLauncher is the launcher surface driven by hotkeys.
type WindowLauncher interface {
	Launch(ctx context.Context) error
	Show() error
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	launcher WindowLauncher
	logger   *slog.Logger

	mu     sync.Mutex
	bound  string
	ctx    context.Context
	cancel context.CancelFunc
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler. The backend must be X11 backed.
func NewHandler(backend platform.Backend, l WindowLauncher, logger *slog.Logger) (*Handler, error) {
	accessor, ok := backend.(x11Accessor)
	if !ok || accessor.XUtil() == nil {
		return nil, fmt.Errorf("global hotkeys need an X11 backend")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		xu:       xu,
		root:     accessor.RootWindow(),
		launcher: l,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// BindLaunch binds keySequence to launchOrShow, replacing any previous
// binding. An empty sequence only removes the old one.
func (h *Handler) BindLaunch(keySequence string) error {
	keySequence = strings.TrimSpace(keySequence)

	h.mu.Lock()
	defer h.mu.Unlock()

	if keySequence == h.bound {
		return nil
	}
	if h.bound != "" {
		keybind.Detach(h.xu, h.root)
		h.bound = ""
	}
	if keySequence == "" {
		return nil
	}

	if err := h.registerFunc(keySequence, h.launchOrShow); err != nil {
		return fmt.Errorf("failed to register launch hotkey %q: %w", keySequence, err)
	}
	h.bound = keySequence
	h.logger.Info("launch hotkey registered", "keys", keySequence)
	return nil
}

// Close removes all bindings and cancels in-flight launches.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancel()
	if h.bound != "" {
		keybind.Detach(h.xu, h.root)
		h.bound = ""
	}
}

// launchOrShow creates the window, or maps the live one.
func (h *Handler) launchOrShow() {
	err := h.launcher.Launch(h.ctx)
	if errors.Is(err, launcher.ErrWindowActive) {
		err = h.launcher.Show()
		if errors.Is(err, launcher.ErrNoWindow) {
			// Still being created.
			return
		}
		if err != nil {
			h.logger.Error("hotkey: failed to show window", "error", err)
		}
		return
	}
	if err != nil {
		h.logger.Error("hotkey: failed to launch window", "error", err)
	}
}

func (h *Handler) registerFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	xevent.IgnoreMods = ignoreMasks(caps, numLock, scrollLock)
}

// ignoreMasks returns every combination of the lock modifiers, including none,
// so a binding fires whatever locks are active.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	ignore := make([]uint16, 0, 1<<len(base))
	for subset := 0; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
