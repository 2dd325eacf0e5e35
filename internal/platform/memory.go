package platform

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend is a headless Backend. It records every creation request and
// hands out MemoryWindows whose state callers can change to simulate a user.
type MemoryBackend struct {
	mu      sync.Mutex
	area    Rect
	nextID  WindowID
	windows []*MemoryWindow

	AreaErr   error
	CreateErr error
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend(area Rect) *MemoryBackend {
	return &MemoryBackend{area: area, nextID: 1}
}

func (b *MemoryBackend) AvailableArea() (Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.AreaErr != nil {
		return Rect{}, b.AreaErr
	}
	return b.area, nil
}

func (b *MemoryBackend) CreateWindow(ctx context.Context, url string, opts CreateOptions) (Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CreateErr != nil {
		return nil, b.CreateErr
	}
	w := &MemoryWindow{
		id:      b.nextID,
		URL:     url,
		Options: opts,
		visible: !opts.Hidden,
	}
	b.nextID++
	b.windows = append(b.windows, w)
	return w, nil
}

// Windows returns every window created so far, oldest first.
func (b *MemoryBackend) Windows() []*MemoryWindow {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*MemoryWindow, len(b.windows))
	copy(out, b.windows)
	return out
}

// MemoryWindow is the Window handed out by MemoryBackend.
type MemoryWindow struct {
	URL     string
	Options CreateOptions

	mu            sync.Mutex
	id            WindowID
	maximized     bool
	fullscreen    bool
	visible       bool
	closed        bool
	maximizeCalls int
	onClosed      []func()
}

func (w *MemoryWindow) ID() WindowID { return w.id }

func (w *MemoryWindow) Maximize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("window %d is closed", w.id)
	}
	w.maximizeCalls++
	w.maximized = true
	return nil
}

func (w *MemoryWindow) IsMaximized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximized
}

func (w *MemoryWindow) IsFullscreen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

// OnClosed registers fn to run when the window closes. On a window that is
// already closed fn runs immediately.
func (w *MemoryWindow) OnClosed(fn func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		fn()
		return
	}
	w.onClosed = append(w.onClosed, fn)
	w.mu.Unlock()
}

func (w *MemoryWindow) Show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("window %d is closed", w.id)
	}
	w.visible = true
	return nil
}

// Close runs the close listeners once, outside the window lock.
func (w *MemoryWindow) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	listeners := append([]func(){}, w.onClosed...)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// SetMaximized simulates the user toggling maximize.
func (w *MemoryWindow) SetMaximized(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maximized = v
}

// SetFullscreen simulates the user toggling fullscreen.
func (w *MemoryWindow) SetFullscreen(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fullscreen = v
}

func (w *MemoryWindow) MaximizeCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximizeCalls
}

func (w *MemoryWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *MemoryWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
