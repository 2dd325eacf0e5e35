package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateMaximizedVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaximizedHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateFullscreen    = "_NET_WM_STATE_FULLSCREEN"

	netWmStateAdd    = 1
	sourceIndication = 1 // normal application
)

// AppWindowOptions describes a top-level window owned by this process.
type AppWindowOptions struct {
	Title      string
	Instance   string
	Class      string
	X          int
	Y          int
	Width      int
	Height     int
	MinWidth   int
	Background uint32
}

// AppWindow is a top-level window created by this process.
type AppWindow struct {
	conn *Connection
	win  *xwindow.Window

	mu         sync.Mutex
	mapped     bool
	closed     bool
	maximized  bool
	fullscreen bool
	onClosed   []func()
}

// CreateAppWindow creates an unmapped top-level window. Call Show to map it.
func (c *Connection) CreateAppWindow(opts AppWindowOptions) (*AppWindow, error) {
	xu := c.XUtil
	win, err := xwindow.Generate(xu)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	err = win.CreateChecked(c.Root, opts.X, opts.Y, opts.Width, opts.Height,
		xproto.CwBackPixel|xproto.CwEventMask,
		opts.Background,
		xproto.EventMaskStructureNotify|xproto.EventMaskPropertyChange)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	aw := &AppWindow{conn: c, win: win}

	if opts.Title != "" {
		if err := icccm.WmNameSet(xu, win.Id, opts.Title); err != nil {
			return nil, aw.abort(fmt.Errorf("failed to set WM_NAME: %w", err))
		}
		if err := ewmh.WmNameSet(xu, win.Id, opts.Title); err != nil {
			return nil, aw.abort(fmt.Errorf("failed to set _NET_WM_NAME: %w", err))
		}
	}
	if err := icccm.WmClassSet(xu, win.Id, &icccm.WmClass{Instance: opts.Instance, Class: opts.Class}); err != nil {
		return nil, aw.abort(fmt.Errorf("failed to set WM_CLASS: %w", err))
	}

	hints := &icccm.NormalHints{
		Flags:     icccm.SizeHintUSPosition | icccm.SizeHintUSSize | icccm.SizeHintPMinSize,
		X:         opts.X,
		Y:         opts.Y,
		Width:     uint(opts.Width),
		Height:    uint(opts.Height),
		MinWidth:  uint(opts.MinWidth),
		MinHeight: 1,
	}
	if err := icccm.WmNormalHintsSet(xu, win.Id, hints); err != nil {
		return nil, aw.abort(fmt.Errorf("failed to set WM_NORMAL_HINTS: %w", err))
	}

	if err := icccm.WmProtocolsSet(xu, win.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		return nil, aw.abort(fmt.Errorf("failed to set WM_PROTOCOLS: %w", err))
	}

	xevent.ClientMessageFun(aw.handleClientMessage).Connect(xu, win.Id)
	xevent.PropertyNotifyFun(aw.handlePropertyNotify).Connect(xu, win.Id)
	xevent.DestroyNotifyFun(aw.handleDestroyNotify).Connect(xu, win.Id)

	return aw, nil
}

// ID returns the X11 window id.
func (w *AppWindow) ID() uint32 {
	return uint32(w.win.Id)
}

// Show maps the window.
func (w *AppWindow) Show() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("window %d is closed", w.win.Id)
	}
	w.mapped = true
	w.mu.Unlock()

	return xproto.MapWindowChecked(w.conn.XUtil.Conn(), w.win.Id).Check()
}

// Maximize asks for both maximized states. While the window is unmapped the
// window manager ignores client messages, so the property is written directly
// and honoured when the window is mapped.
func (w *AppWindow) Maximize() error {
	w.mu.Lock()
	mapped := w.mapped
	w.mu.Unlock()

	if !mapped {
		states, err := ewmh.WmStateGet(w.conn.XUtil, w.win.Id)
		if err != nil {
			states = nil
		}
		states = appendMissing(states, stateMaximizedVert, stateMaximizedHorz)
		if err := ewmh.WmStateSet(w.conn.XUtil, w.win.Id, states); err != nil {
			return fmt.Errorf("failed to set _NET_WM_STATE: %w", err)
		}
		w.refreshState()
		return nil
	}

	return w.conn.sendWmState(w.win.Id, netWmStateAdd, stateMaximizedVert, stateMaximizedHorz)
}

// IsMaximized reports whether both maximized states are set.
func (w *AppWindow) IsMaximized() bool {
	w.refreshState()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximized
}

// IsFullscreen reports whether the fullscreen state is set.
func (w *AppWindow) IsFullscreen() bool {
	w.refreshState()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

// OnClosed registers fn to run once when the window closes. Listeners run
// before the window is destroyed, so they may still query its state. On a
// window that is already closed fn runs immediately.
func (w *AppWindow) OnClosed(fn func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		fn()
		return
	}
	w.onClosed = append(w.onClosed, fn)
	w.mu.Unlock()
}

// Close runs the close listeners and destroys the window.
func (w *AppWindow) Close() error {
	if !w.fireClosed() {
		return nil
	}
	xevent.Detach(w.conn.XUtil, w.win.Id)
	return xproto.DestroyWindowChecked(w.conn.XUtil.Conn(), w.win.Id).Check()
}

// refreshState re-reads _NET_WM_STATE. On failure the last known values are
// kept, which is what listeners see after an external destroy.
func (w *AppWindow) refreshState() {
	states, err := ewmh.WmStateGet(w.conn.XUtil, w.win.Id)
	if err != nil {
		return
	}
	var vert, horz, full bool
	for _, s := range states {
		switch s {
		case stateMaximizedVert:
			vert = true
		case stateMaximizedHorz:
			horz = true
		case stateFullscreen:
			full = true
		}
	}
	w.mu.Lock()
	w.maximized = vert && horz
	w.fullscreen = full
	w.mu.Unlock()
}

func (w *AppWindow) fireClosed() bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.closed = true
	listeners := append([]func(){}, w.onClosed...)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return true
}

func (w *AppWindow) abort(err error) error {
	xproto.DestroyWindow(w.conn.XUtil.Conn(), w.win.Id)
	return err
}

func (w *AppWindow) handleClientMessage(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
	protocols, err := w.conn.internAtom("WM_PROTOCOLS")
	if err != nil || ev.Type != protocols {
		return
	}
	deleteWindow, err := w.conn.internAtom("WM_DELETE_WINDOW")
	if err != nil || xproto.Atom(ev.Data.Data32[0]) != deleteWindow {
		return
	}
	w.Close()
}

func (w *AppWindow) handlePropertyNotify(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	state, err := w.conn.internAtom("_NET_WM_STATE")
	if err != nil || ev.Atom != state {
		return
	}
	w.refreshState()
}

func (w *AppWindow) handleDestroyNotify(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	if ev.Window != w.win.Id {
		return
	}
	w.fireClosed()
	xevent.Detach(xu, w.win.Id)
}

// sendWmState sends a _NET_WM_STATE client message to the root window per
// EWMH. Built by hand like the other root messages in this package.
func (c *Connection) sendWmState(win xproto.Window, action uint32, first, second string) error {
	stateAtom, err := c.internAtom("_NET_WM_STATE")
	if err != nil {
		return err
	}
	firstAtom, err := c.internAtom(first)
	if err != nil {
		return err
	}
	var secondAtom xproto.Atom
	if second != "" {
		if secondAtom, err = c.internAtom(second); err != nil {
			return err
		}
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   stateAtom,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			action, uint32(firstAtom), uint32(secondAtom), sourceIndication, 0,
		}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

func appendMissing(states []string, want ...string) []string {
	for _, w := range want {
		found := false
		for _, s := range states {
			if s == w {
				found = true
				break
			}
		}
		if !found {
			states = append(states, w)
		}
	}
	return states
}
