package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/winlaunch/internal/ipc"
	"github.com/1broseidon/winlaunch/internal/launcher"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Width(25).
			Align(lipgloss.Right).
			PaddingRight(2)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)

	yesStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	noStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// outputStyled reports whether human output should be rendered: stdout is a
// terminal and JSON was not requested.
func outputStyled(jsonOut bool) bool {
	if jsonOut {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func yesNo(v bool) string {
	if v {
		return yesStyle.Render("yes")
	}
	return noStyle.Render("no")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatus(w io.Writer, status *ipc.StatusData, styled bool) error {
	if !styled {
		return writeJSON(w, status)
	}

	windowID := noStyle.Render("-")
	if status.Window.WindowActive {
		windowID = valueStyle.Render(fmt.Sprintf("0x%x", uint32(status.Window.WindowID)))
	}
	lines := []string{
		row("Daemon", yesNo(status.DaemonRunning)),
		row("Uptime", valueStyle.Render((time.Duration(status.UptimeSeconds) * time.Second).String())),
		row("Window active", yesNo(status.Window.WindowActive)),
		row("Window id", windowID),
		row("Launching", yesNo(status.Window.Launching)),
		row("Callback registered", yesNo(status.Window.CallbackRegistered)),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func renderLaunch(w io.Writer, status *launcher.Status, styled bool) error {
	if !styled {
		return writeJSON(w, status)
	}
	_, err := fmt.Fprintln(w, row("Window created", valueStyle.Render(fmt.Sprintf("0x%x", uint32(status.WindowID)))))
	return err
}

func renderPlacement(w io.Writer, placement *launcher.PlacementState, styled bool) error {
	if !styled {
		return writeJSON(w, placement)
	}
	lines := []string{
		row("Maximized", yesNo(placement.Maximized)),
		row("Fullscreen", yesNo(placement.Fullscreen)),
		row("Next launch maximized", yesNo(placement.ShouldMaximize())),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
