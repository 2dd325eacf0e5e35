package runtimepath

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestDir_PrefersXDGRuntimeDir(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallsBackWithoutXDGRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	uid := strconv.Itoa(os.Getuid())
	wantRun := filepath.Join("/run/user", uid)
	wantTmp := filepath.Join(os.TempDir(), "winlaunch-runtime-"+uid)
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)
	t.Setenv("WINLAUNCH_SOCKET", "")

	got, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if want := filepath.Join(td, "winlaunch.sock"); got != want {
		t.Fatalf("SocketPath() = %q, want %q", got, want)
	}
}

func TestSocketPath_Override(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.sock")
	t.Setenv("WINLAUNCH_SOCKET", want)

	got, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if got != want {
		t.Fatalf("SocketPath() = %q, want %q", got, want)
	}
}

func TestXDGDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name string
		env  string
		val  string
		fn   func() (string, error)
		want string
	}{
		{"data from env", "XDG_DATA_HOME", "/srv/data", DataDir, "/srv/data/winlaunch"},
		{"data default", "XDG_DATA_HOME", "", DataDir, filepath.Join(home, ".local", "share", "winlaunch")},
		{"data relative env ignored", "XDG_DATA_HOME", "rel", DataDir, filepath.Join(home, ".local", "share", "winlaunch")},
		{"config from env", "XDG_CONFIG_HOME", "/etc/xdg", ConfigDir, "/etc/xdg/winlaunch"},
		{"config default", "XDG_CONFIG_HOME", "", ConfigDir, filepath.Join(home, ".config", "winlaunch")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
