package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/winlaunch/internal/config"
	"github.com/1broseidon/winlaunch/internal/launcher"
	"github.com/1broseidon/winlaunch/internal/runtimepath"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	loadConfig   func() (*config.Config, error)
	launcher     *launcher.Launcher
	startTime    time.Time
	reloadChan   chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	shuttingDown bool
	shutdownMu   sync.Mutex
	waiting      atomic.Int32 // connections held for a pending response
}

// NewServer creates a new IPC server on the default socket path
func NewServer(cfg *config.Config, l *launcher.Launcher, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, cfg, l, reloadChan), nil
}

// NewServerAt creates a new IPC server listening on socketPath.
func NewServerAt(socketPath string, cfg *config.Config, l *launcher.Launcher, reloadChan chan struct{}) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		cfg:        cfg,
		loadConfig: config.Load,
		launcher:   l,
		startTime:  time.Now(),
		reloadChan: reloadChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetConfigLoader replaces the function RELOAD uses to read the config.
// Call before Start.
func (s *Server) SetConfigLoader(load func() (*config.Config, error)) {
	s.loadConfig = load
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	if req.Command == CommandExternalMessage {
		s.handleExternalMessage(conn, reader, req.Payload)
		return
	}

	s.writeResponse(conn, s.handleCommand(req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandLaunch:
		return s.handleLaunch()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetPlacement:
		return s.handleGetPlacement()
	case CommandShowWindow:
		return s.handleShowWindow()
	case CommandCloseWindow:
		return s.handleCloseWindow()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := s.loadConfig()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.UpdateConfig(newCfg)

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleLaunch() *Response {
	log.Println("IPC: Received LAUNCH command")

	if err := s.launcher.Launch(s.ctx); err != nil {
		if !errors.Is(err, launcher.ErrWindowActive) {
			log.Printf("IPC: launch failed: %v", err)
		}
		return NewErrorResponse(fmt.Sprintf("Failed to launch: %v", err))
	}

	resp, _ := NewOKResponse(s.launcher.Status())
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Window:        s.launcher.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleGetPlacement() *Response {
	placement, err := s.launcher.Placement()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read placement: %v", err))
	}

	resp, _ := NewOKResponse(placement)
	return resp
}

func (s *Server) handleShowWindow() *Response {
	if err := s.launcher.Show(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to show window: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleCloseWindow() *Response {
	if err := s.launcher.Close(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to close window: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleExternalMessage hands the message to the launcher. A dropped message
// closes the connection with no response. An accepted registration keeps the
// connection open until the window-created callback writes the response, the
// client hangs up, or the server stops.
func (s *Server) handleExternalMessage(conn net.Conn, reader *bufio.Reader, payload json.RawMessage) {
	var msg ExternalMessagePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid external message payload: %v", err))
		return
	}

	// The launcher keeps respond after this connection is gone, so a later
	// window creation must not write to it once the handler has returned.
	var (
		once      sync.Once
		mu        sync.Mutex
		finished  bool
		responded = make(chan struct{})
	)
	respond := func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			if finished {
				return
			}
			resp, _ := NewOKResponse(nil)
			s.writeResponse(conn, resp)
			close(responded)
		})
	}

	disposition := s.launcher.HandleExternalMessage(msg.Message, launcher.Sender{ID: msg.SenderID}, respond)
	if disposition != launcher.ResponsePending {
		return
	}

	s.waiting.Add(1)
	defer func() {
		mu.Lock()
		finished = true
		mu.Unlock()
		s.waiting.Add(-1)
	}()

	hangup := make(chan struct{})
	go func() {
		// Unblocks on client close or when the deferred conn.Close runs.
		io.Copy(io.Discard, reader)
		close(hangup)
	}()

	select {
	case <-responded:
	case <-hangup:
	case <-s.ctx.Done():
	}
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	s.writeResponse(conn, NewErrorResponse(errMsg))
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config and the launcher's window options (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	s.launcher.UpdateOptions(launcher.OptionsFromConfig(cfg))
}
