package platform

import "context"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Bounds are the requested inner bounds of a new window. MinWidth is a hard
// floor: the window may grow but never shrink below it.
type Bounds struct {
	Left     int
	Top      int
	Width    int
	Height   int
	MinWidth int
}

// CreateOptions describe a window creation request.
type CreateOptions struct {
	ID         string
	FrameColor string
	Hidden     bool
	Bounds     Bounds
}

// Window is a handle to a created application window.
type Window interface {
	ID() WindowID
	Maximize() error
	IsMaximized() bool
	IsFullscreen() bool
	// OnClosed registers fn to run once when the window closes, before it
	// is torn down.
	OnClosed(fn func())
	Show() error
	Close() error
}

// Backend abstracts the window system.
type Backend interface {
	// AvailableArea is the screen area usable by application windows.
	AvailableArea() (Rect, error)
	CreateWindow(ctx context.Context, url string, opts CreateOptions) (Window, error)
}
