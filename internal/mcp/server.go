// Package mcp exposes the launcher daemon and the virtual authenticator
// manager as MCP tools for test automation clients.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winlaunch/internal/ipc"
	"github.com/1broseidon/winlaunch/internal/launcher"
	"github.com/1broseidon/winlaunch/internal/virtauthn"
)

const (
	ServerName    = "winlaunch"
	ServerVersion = "0.1.0"
)

// DaemonClient is the subset of the IPC client the tools need.
type DaemonClient interface {
	Launch() (*launcher.Status, error)
	GetStatus() (*ipc.StatusData, error)
	GetPlacement() (*launcher.PlacementState, error)
	ShowWindow() error
	CloseWindow() error
	WaitWindowCreated(ctx context.Context, senderID string) error
}

var _ DaemonClient = (*ipc.Client)(nil)

// Server is the MCP server for winlaunch test automation.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    DaemonClient
	authn     *virtauthn.Manager
}

// NewServer creates a new MCP server. Authenticator tools run against an
// in-process manager when authn is nil.
func NewServer(daemon DaemonClient, authn *virtauthn.Manager) *Server {
	if authn == nil {
		authn = virtauthn.NewManager(virtauthn.NewMemoryManager())
	}

	s := &Server{
		daemon: daemon,
		authn:  authn,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "launch_window",
		Description: "Ask the winlaunch daemon to create the application window. Fails if a window is already live. The window starts hidden and is maximized if the previous session ended maximized or fullscreen.",
	}, s.handleLaunchWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_status",
		Description: "Report whether the daemon is running, whether a window is live and whether a window-created callback is registered.",
	}, s.handleWindowStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_placement",
		Description: "Read the persisted maximized and fullscreen flags written when the window last closed.",
	}, s.handleGetPlacement)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_window",
		Description: "Map the hidden application window.",
	}, s.handleShowWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close the application window. Its live maximized and fullscreen state is persisted.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wait_window_created",
		Description: "Register the window-created callback as the given extension and wait until a window is created. Messages from untrusted senders are dropped and reported as an error. Returns created=false on timeout (default 30s).",
	}, s.handleWaitWindowCreated)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_authenticator",
		Description: "Create a virtual WebAuthn authenticator. Unset options default to a CTAP2 cross-platform USB key with resident keys and user verification.",
	}, s.handleCreateAuthenticator)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_authenticators",
		Description: "List virtual authenticators with their registered key count and user presence.",
	}, s.handleListAuthenticators)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "remove_authenticator",
		Description: "Remove a virtual authenticator by id.",
	}, s.handleRemoveAuthenticator)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "register_key",
		Description: "Generate a P-256 credential for a relying party and register it on a virtual authenticator under the given key handle.",
	}, s.handleRegisterKey)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_user_presence",
		Description: "Set whether the simulated user is present on a virtual authenticator.",
	}, s.handleSetUserPresence)
}
