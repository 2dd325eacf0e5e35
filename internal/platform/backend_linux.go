//go:build linux

package platform

import (
	"context"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/1broseidon/winlaunch/internal/config"
	"github.com/1broseidon/winlaunch/internal/x11"
)

const windowClass = "winlaunch"

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display ($DISPLAY
// when empty).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops a running EventLoop.
func (b *LinuxBackend) Quit() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil exposes the X11 utility connection for global key bindings.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the root window of the default screen.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

func (b *LinuxBackend) AvailableArea() (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	area, err := conn.AvailableArea()
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: area.X, Y: area.Y, Width: area.Width, Height: area.Height}, nil
}

func (b *LinuxBackend) CreateWindow(ctx context.Context, url string, opts CreateOptions) (Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	background, err := config.ParseHexColor(opts.FrameColor)
	if err != nil {
		return nil, err
	}

	aw, err := conn.CreateAppWindow(x11.AppWindowOptions{
		Title:      url,
		Instance:   opts.ID,
		Class:      windowClass,
		X:          opts.Bounds.Left,
		Y:          opts.Bounds.Top,
		Width:      opts.Bounds.Width,
		Height:     opts.Bounds.Height,
		MinWidth:   opts.Bounds.MinWidth,
		Background: background,
	})
	if err != nil {
		return nil, err
	}

	w := &linuxWindow{aw: aw}
	if !opts.Hidden {
		if err := aw.Show(); err != nil {
			aw.Close()
			return nil, fmt.Errorf("failed to map window: %w", err)
		}
	}
	return w, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

type linuxWindow struct {
	aw *x11.AppWindow
}

func (w *linuxWindow) ID() WindowID       { return WindowID(w.aw.ID()) }
func (w *linuxWindow) Maximize() error    { return w.aw.Maximize() }
func (w *linuxWindow) IsMaximized() bool  { return w.aw.IsMaximized() }
func (w *linuxWindow) IsFullscreen() bool { return w.aw.IsFullscreen() }
func (w *linuxWindow) OnClosed(fn func()) { w.aw.OnClosed(fn) }
func (w *linuxWindow) Show() error        { return w.aw.Show() }
func (w *linuxWindow) Close() error       { return w.aw.Close() }
