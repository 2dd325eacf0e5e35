package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winlaunch/internal/launcher"
	"github.com/1broseidon/winlaunch/internal/virtauthn"
)

const defaultWaitTimeout = 30 * time.Second

func (s *Server) handleLaunchWindow(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, WindowStatusOutput, error) {
	status, err := s.daemon.Launch()
	if err != nil {
		return nil, WindowStatusOutput{}, err
	}
	out := statusOutput(*status)
	out.DaemonRunning = true
	return nil, out, nil
}

func (s *Server) handleWindowStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, WindowStatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, WindowStatusOutput{}, err
	}
	out := statusOutput(status.Window)
	out.DaemonRunning = status.DaemonRunning
	out.UptimeSeconds = status.UptimeSeconds
	return nil, out, nil
}

func statusOutput(st launcher.Status) WindowStatusOutput {
	return WindowStatusOutput{
		WindowActive:       st.WindowActive,
		WindowID:           uint32(st.WindowID),
		Launching:          st.Launching,
		CallbackRegistered: st.CallbackRegistered,
	}
}

func (s *Server) handleGetPlacement(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, PlacementOutput, error) {
	placement, err := s.daemon.GetPlacement()
	if err != nil {
		return nil, PlacementOutput{}, err
	}
	return nil, PlacementOutput{
		Maximized:      placement.Maximized,
		Fullscreen:     placement.Fullscreen,
		ShouldMaximize: placement.ShouldMaximize(),
	}, nil
}

func (s *Server) handleShowWindow(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	if err := s.daemon.ShowWindow(); err != nil {
		return nil, WindowActionOutput{}, err
	}
	return nil, WindowActionOutput{OK: true}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, WindowActionOutput, error) {
	if err := s.daemon.CloseWindow(); err != nil {
		return nil, WindowActionOutput{}, err
	}
	return nil, WindowActionOutput{OK: true}, nil
}

func (s *Server) handleWaitWindowCreated(ctx context.Context, _ *mcpsdk.CallToolRequest, args WaitWindowCreatedInput) (*mcpsdk.CallToolResult, WaitWindowCreatedOutput, error) {
	senderID := strings.TrimSpace(args.SenderID)
	if senderID == "" {
		senderID = launcher.TrustedSenderID
	}
	timeout := time.Duration(args.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.daemon.WaitWindowCreated(waitCtx, senderID)
	if errors.Is(err, context.DeadlineExceeded) {
		log.Printf("MCP: wait_window_created timed out after %s", timeout)
		return nil, WaitWindowCreatedOutput{Created: false, SenderID: senderID}, nil
	}
	if err != nil {
		return nil, WaitWindowCreatedOutput{}, err
	}
	return nil, WaitWindowCreatedOutput{Created: true, SenderID: senderID}, nil
}

func (s *Server) handleCreateAuthenticator(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateAuthenticatorInput) (*mcpsdk.CallToolResult, AuthenticatorInfo, error) {
	a, err := s.authn.CreateAuthenticator(ctx, virtauthn.AuthenticatorOptions{
		Protocol:            virtauthn.Protocol(strings.ToLower(strings.TrimSpace(args.Protocol))),
		Transport:           virtauthn.Transport(strings.ToLower(strings.TrimSpace(args.Transport))),
		Attachment:          virtauthn.Attachment(strings.ToLower(strings.TrimSpace(args.Attachment))),
		HasResidentKey:      args.HasResidentKey,
		HasUserVerification: args.HasUserVerification,
	})
	if err != nil {
		return nil, AuthenticatorInfo{}, err
	}
	info, err := describeAuthenticator(ctx, a)
	if err != nil {
		return nil, AuthenticatorInfo{}, err
	}
	return nil, info, nil
}

func (s *Server) handleListAuthenticators(ctx context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListAuthenticatorsOutput, error) {
	all, err := s.authn.Authenticators(ctx)
	if err != nil {
		return nil, ListAuthenticatorsOutput{}, err
	}
	out := ListAuthenticatorsOutput{Authenticators: make([]AuthenticatorInfo, 0, len(all))}
	for _, a := range all {
		info, err := describeAuthenticator(ctx, a)
		if err != nil {
			return nil, ListAuthenticatorsOutput{}, err
		}
		out.Authenticators = append(out.Authenticators, info)
	}
	return nil, out, nil
}

func (s *Server) handleRemoveAuthenticator(ctx context.Context, _ *mcpsdk.CallToolRequest, args RemoveAuthenticatorInput) (*mcpsdk.CallToolResult, RemoveAuthenticatorOutput, error) {
	id := strings.TrimSpace(args.ID)
	if id == "" {
		return nil, RemoveAuthenticatorOutput{}, fmt.Errorf("id is required")
	}
	removed, err := s.authn.RemoveAuthenticator(ctx, id)
	if err != nil {
		return nil, RemoveAuthenticatorOutput{}, err
	}
	return nil, RemoveAuthenticatorOutput{Removed: removed}, nil
}

func (s *Server) handleRegisterKey(ctx context.Context, _ *mcpsdk.CallToolRequest, args RegisterKeyInput) (*mcpsdk.CallToolResult, RegisterKeyOutput, error) {
	if strings.TrimSpace(args.RPID) == "" {
		return nil, RegisterKeyOutput{}, fmt.Errorf("rp_id is required")
	}
	keyHandle, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(args.KeyHandle, "="))
	if err != nil {
		return nil, RegisterKeyOutput{}, fmt.Errorf("key_handle is not base64url: %w", err)
	}
	if len(keyHandle) == 0 {
		return nil, RegisterKeyOutput{}, fmt.Errorf("key_handle is required")
	}

	a, err := s.findAuthenticator(ctx, args.AuthenticatorID)
	if err != nil {
		return nil, RegisterKeyOutput{}, err
	}
	added, err := a.GenerateAndRegisterKey(ctx, keyHandle, args.RPID)
	if err != nil {
		return nil, RegisterKeyOutput{}, err
	}
	keys, err := a.RegisteredKeys(ctx)
	if err != nil {
		return nil, RegisterKeyOutput{}, err
	}
	return nil, RegisterKeyOutput{Added: added, KeyCount: len(keys)}, nil
}

func (s *Server) handleSetUserPresence(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetUserPresenceInput) (*mcpsdk.CallToolResult, AuthenticatorInfo, error) {
	a, err := s.findAuthenticator(ctx, args.AuthenticatorID)
	if err != nil {
		return nil, AuthenticatorInfo{}, err
	}
	if err := a.SetUserPresence(ctx, args.Present); err != nil {
		return nil, AuthenticatorInfo{}, err
	}
	info, err := describeAuthenticator(ctx, a)
	if err != nil {
		return nil, AuthenticatorInfo{}, err
	}
	return nil, info, nil
}

func (s *Server) findAuthenticator(ctx context.Context, id string) (*virtauthn.Authenticator, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("authenticator_id is required")
	}
	all, err := s.authn.Authenticators(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range all {
		got, err := a.ID(ctx)
		if err != nil {
			return nil, err
		}
		if got == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no authenticator with id %q", id)
}

func describeAuthenticator(ctx context.Context, a *virtauthn.Authenticator) (AuthenticatorInfo, error) {
	id, err := a.ID(ctx)
	if err != nil {
		return AuthenticatorInfo{}, err
	}
	keys, err := a.RegisteredKeys(ctx)
	if err != nil {
		return AuthenticatorInfo{}, err
	}
	present, err := a.UserPresence(ctx)
	if err != nil {
		return AuthenticatorInfo{}, err
	}
	return AuthenticatorInfo{ID: id, KeyCount: len(keys), UserPresent: present}, nil
}
