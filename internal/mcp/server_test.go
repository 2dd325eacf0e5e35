package mcp

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/winlaunch/internal/config"
	"github.com/1broseidon/winlaunch/internal/ipc"
	"github.com/1broseidon/winlaunch/internal/launcher"
	"github.com/1broseidon/winlaunch/internal/platform"
	"github.com/1broseidon/winlaunch/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *platform.MemoryBackend, *storage.MemoryStore) {
	t.Helper()

	cfg := config.DefaultConfig()
	backend := platform.NewMemoryBackend(platform.Rect{Width: 1920, Height: 1080})
	store := storage.NewMemoryStore(nil)
	l := launcher.New(backend, store, launcher.OptionsFromConfig(cfg), nil)

	socketPath := filepath.Join(t.TempDir(), "m.sock")
	daemon := ipc.NewServerAt(socketPath, cfg, l, make(chan struct{}, 1))
	if err := daemon.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(daemon.Stop)

	return NewServer(ipc.NewClientAt(socketPath), nil), backend, store
}

func TestWindowTools_LaunchStatusClose(t *testing.T) {
	s, backend, store := newTestServer(t)
	ctx := context.Background()

	_, launched, err := s.handleLaunchWindow(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("launch_window: %v", err)
	}
	if !launched.WindowActive || launched.WindowID == 0 || !launched.DaemonRunning {
		t.Fatalf("launch_window = %+v", launched)
	}

	if _, _, err := s.handleLaunchWindow(ctx, nil, EmptyInput{}); err == nil {
		t.Fatal("second launch_window should fail")
	}

	_, status, err := s.handleWindowStatus(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("window_status: %v", err)
	}
	if !status.WindowActive {
		t.Fatalf("window_status = %+v", status)
	}

	if _, out, err := s.handleShowWindow(ctx, nil, EmptyInput{}); err != nil || !out.OK {
		t.Fatalf("show_window = %+v, %v", out, err)
	}

	backend.Windows()[0].SetMaximized(true)
	if _, out, err := s.handleCloseWindow(ctx, nil, EmptyInput{}); err != nil || !out.OK {
		t.Fatalf("close_window = %+v, %v", out, err)
	}
	if v, ok := store.Value("maximized"); !ok || !v {
		t.Fatalf("maximized stored = %v, %v", v, ok)
	}

	_, placement, err := s.handleGetPlacement(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("get_placement: %v", err)
	}
	if !placement.Maximized || placement.Fullscreen || !placement.ShouldMaximize {
		t.Fatalf("get_placement = %+v", placement)
	}
}

func TestWaitWindowCreated(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()

	type result struct {
		out WaitWindowCreatedOutput
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, out, err := s.handleWaitWindowCreated(ctx, nil, WaitWindowCreatedInput{Timeout: 5})
		done <- result{out, err}
	}()

	deadline := time.Now().Add(3 * time.Second)
	for {
		_, status, err := s.handleWindowStatus(ctx, nil, EmptyInput{})
		if err == nil && status.CallbackRegistered {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("callback never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, _, err := s.handleLaunchWindow(ctx, nil, EmptyInput{}); err != nil {
		t.Fatalf("launch_window: %v", err)
	}

	r := <-done
	if r.err != nil {
		t.Fatalf("wait_window_created: %v", r.err)
	}
	if !r.out.Created || r.out.SenderID != launcher.TrustedSenderID {
		t.Fatalf("wait_window_created = %+v", r.out)
	}
}

func TestWaitWindowCreated_Timeout(t *testing.T) {
	s, _, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, out, err := s.handleWaitWindowCreated(ctx, nil, WaitWindowCreatedInput{Timeout: 60})
	if err != nil {
		t.Fatalf("wait_window_created: %v", err)
	}
	if out.Created {
		t.Fatal("created should be false on timeout")
	}
}

func TestWaitWindowCreated_UntrustedSender(t *testing.T) {
	s, _, _ := newTestServer(t)

	_, _, err := s.handleWaitWindowCreated(context.Background(), nil, WaitWindowCreatedInput{SenderID: "abc", Timeout: 5})
	if err == nil {
		t.Fatal("expected error for untrusted sender")
	}
}

func TestAuthenticatorTools(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()

	_, created, err := s.handleCreateAuthenticator(ctx, nil, CreateAuthenticatorInput{Protocol: "CTAP2"})
	if err != nil {
		t.Fatalf("create_authenticator: %v", err)
	}
	if created.ID == "" || created.KeyCount != 0 || !created.UserPresent {
		t.Fatalf("create_authenticator = %+v", created)
	}

	handle := base64.RawURLEncoding.EncodeToString([]byte("credential-1"))
	_, reg, err := s.handleRegisterKey(ctx, nil, RegisterKeyInput{
		AuthenticatorID: created.ID,
		KeyHandle:       handle,
		RPID:            "example.test",
	})
	if err != nil {
		t.Fatalf("register_key: %v", err)
	}
	if !reg.Added || reg.KeyCount != 1 {
		t.Fatalf("register_key = %+v", reg)
	}

	_, presence, err := s.handleSetUserPresence(ctx, nil, SetUserPresenceInput{AuthenticatorID: created.ID, Present: false})
	if err != nil {
		t.Fatalf("set_user_presence: %v", err)
	}
	if presence.UserPresent {
		t.Fatal("user presence should be false")
	}

	_, list, err := s.handleListAuthenticators(ctx, nil, EmptyInput{})
	if err != nil {
		t.Fatalf("list_authenticators: %v", err)
	}
	if len(list.Authenticators) != 1 || list.Authenticators[0].KeyCount != 1 {
		t.Fatalf("list_authenticators = %+v", list)
	}

	_, removed, err := s.handleRemoveAuthenticator(ctx, nil, RemoveAuthenticatorInput{ID: created.ID})
	if err != nil || !removed.Removed {
		t.Fatalf("remove_authenticator = %+v, %v", removed, err)
	}
	if _, _, err := s.handleRegisterKey(ctx, nil, RegisterKeyInput{
		AuthenticatorID: created.ID,
		KeyHandle:       handle,
		RPID:            "example.test",
	}); err == nil {
		t.Fatal("register_key on removed authenticator should fail")
	}
}

func TestRegisterKey_Validation(t *testing.T) {
	s, _, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterKeyInput
	}{
		{"missing rp id", RegisterKeyInput{AuthenticatorID: "x", KeyHandle: "AQ"}},
		{"bad key handle", RegisterKeyInput{AuthenticatorID: "x", KeyHandle: "!!", RPID: "a"}},
		{"empty key handle", RegisterKeyInput{AuthenticatorID: "x", RPID: "a"}},
		{"unknown authenticator", RegisterKeyInput{AuthenticatorID: "x", KeyHandle: "AQ", RPID: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.handleRegisterKey(ctx, nil, tt.in); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
