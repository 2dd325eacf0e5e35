package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/1broseidon/winlaunch/internal/launcher"
	"github.com/1broseidon/winlaunch/internal/runtimepath"
)

// ErrMessageRejected is returned when the daemon closes the connection
// without answering an external message.
var ErrMessageRejected = errors.New("external message dropped by daemon")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := writeRequest(conn, req); err != nil {
		return nil, err
	}
	resp, err := readResponse(bufio.NewReader(conn))
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, err
}

func writeRequest(conn net.Conn, req *Request) error {
	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

func readResponse(reader *bufio.Reader) (*Response, error) {
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(respData) == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Launch asks the daemon to create the window.
func (c *Client) Launch() (*launcher.Status, error) {
	resp, err := c.sendRequest(&Request{Command: CommandLaunch})
	if err != nil {
		return nil, err
	}

	var status launcher.Status
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse launch data: %w", err)
	}
	return &status, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// GetPlacement retrieves the persisted window placement.
func (c *Client) GetPlacement() (*launcher.PlacementState, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetPlacement})
	if err != nil {
		return nil, err
	}

	var placement launcher.PlacementState
	if err := json.Unmarshal(resp.Data, &placement); err != nil {
		return nil, fmt.Errorf("failed to parse placement data: %w", err)
	}
	return &placement, nil
}

// ShowWindow maps the hidden window.
func (c *Client) ShowWindow() error {
	_, err := c.sendRequest(&Request{Command: CommandShowWindow})
	return err
}

// CloseWindow closes the live window.
func (c *Client) CloseWindow() error {
	_, err := c.sendRequest(&Request{Command: CommandCloseWindow})
	return err
}

// WaitWindowCreated registers the window-created callback as senderID and
// blocks until the daemon reports that a window was created. It returns
// ErrMessageRejected if the daemon drops the message. The only deadline is
// the one carried by ctx.
func (c *Client) WaitWindowCreated(ctx context.Context, senderID string) error {
	payload, err := json.Marshal(ExternalMessagePayload{
		SenderID: senderID,
		Message:  launcher.Message{Action: launcher.ActionSetWindowCreatedCallback},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal external message: %w", err)
	}

	var d net.Dialer
	d.Timeout = c.timeout
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := writeRequest(conn, &Request{Command: CommandExternalMessage, Payload: payload}); err != nil {
		return err
	}

	_, err = readResponse(bufio.NewReader(conn))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, io.EOF) {
			return ErrMessageRejected
		}
		return err
	}
	return nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
