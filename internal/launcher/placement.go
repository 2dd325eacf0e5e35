package launcher

import (
	"fmt"

	"github.com/1broseidon/winlaunch/internal/storage"
)

const (
	keyMaximized  = "maximized"
	keyFullscreen = "fullscreen"
)

// PlacementState is the persisted window state. Missing keys read as false.
type PlacementState struct {
	Maximized  bool `json:"maximized"`
	Fullscreen bool `json:"fullscreen"`
}

// ShouldMaximize reports whether the next window starts maximized. Fullscreen
// is restored as maximized so the top bar stays usable.
func (p PlacementState) ShouldMaximize() bool {
	return p.Maximized || p.Fullscreen
}

// LoadPlacement reads the persisted state from store.
func LoadPlacement(store storage.Store) (PlacementState, error) {
	values, err := store.Get(map[string]bool{
		keyMaximized:  false,
		keyFullscreen: false,
	})
	if err != nil {
		return PlacementState{}, fmt.Errorf("failed to read placement state: %w", err)
	}
	return PlacementState{
		Maximized:  values[keyMaximized],
		Fullscreen: values[keyFullscreen],
	}, nil
}
