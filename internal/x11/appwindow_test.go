package x11

import (
	"os"
	"reflect"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"
)

func TestAppendMissing(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		want   []string
	}{
		{"empty", nil, []string{stateMaximizedVert, stateMaximizedHorz}},
		{"keeps others", []string{stateFullscreen}, []string{stateFullscreen, stateMaximizedVert, stateMaximizedHorz}},
		{"no duplicates", []string{stateMaximizedHorz}, []string{stateMaximizedHorz, stateMaximizedVert}},
		{"already set", []string{stateMaximizedVert, stateMaximizedHorz}, []string{stateMaximizedVert, stateMaximizedHorz}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendMissing(tt.states, stateMaximizedVert, stateMaximizedHorz)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("appendMissing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppWindow_OnClosed(t *testing.T) {
	w := &AppWindow{}

	var order []string
	w.OnClosed(func() { order = append(order, "before") })
	if !w.fireClosed() {
		t.Fatal("first fireClosed reported already closed")
	}
	if w.fireClosed() {
		t.Fatal("second fireClosed ran listeners again")
	}
	w.OnClosed(func() { order = append(order, "after") })

	if !reflect.DeepEqual(order, []string{"before", "after"}) {
		t.Fatalf("listener order = %v", order)
	}
}

func TestCreateAppWindow(t *testing.T) {
	// Skip if no X server is available
	if os.Getenv("DISPLAY") == "" {
		t.Skip("DISPLAY not set")
	}
	conn, err := NewConnection("")
	if err != nil {
		t.Skipf("X server not available: %v", err)
	}
	defer conn.Close()

	w, err := conn.CreateAppWindow(AppWindowOptions{
		Title:      "winlaunch test",
		Instance:   "main",
		Class:      "Winlaunch",
		X:          10,
		Y:          20,
		Width:      768,
		Height:     432,
		MinWidth:   768,
		Background: 0x000000,
	})
	if err != nil {
		t.Fatalf("CreateAppWindow: %v", err)
	}
	id := xproto.Window(w.ID())

	attrs, err := xproto.GetWindowAttributes(conn.XUtil.Conn(), id).Reply()
	if err != nil {
		t.Fatalf("GetWindowAttributes: %v", err)
	}
	if attrs.MapState != xproto.MapStateUnmapped {
		t.Fatalf("map state = %d, want unmapped", attrs.MapState)
	}

	hints, err := icccm.WmNormalHintsGet(conn.XUtil, id)
	if err != nil {
		t.Fatalf("WmNormalHintsGet: %v", err)
	}
	if hints.Flags&icccm.SizeHintPMinSize == 0 || hints.MinWidth != 768 {
		t.Fatalf("normal hints = %+v, want min width 768", hints)
	}

	class, err := icccm.WmClassGet(conn.XUtil, id)
	if err != nil {
		t.Fatalf("WmClassGet: %v", err)
	}
	if class.Instance != "main" || class.Class != "Winlaunch" {
		t.Fatalf("WM_CLASS = %+v", class)
	}

	closed := 0
	w.OnClosed(func() { closed++ })
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed != 1 {
		t.Fatalf("close listeners ran %d times, want 1", closed)
	}
}
