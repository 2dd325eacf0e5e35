package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winlaunch/internal/config"
	"github.com/1broseidon/winlaunch/internal/ipc"
	"github.com/1broseidon/winlaunch/internal/launcher"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "launch":
		os.Exit(runLaunch(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "placement":
		os.Exit(runPlacement(os.Args[2:]))
	case "show":
		os.Exit(runWindowCommand("show", "Map the hidden application window.", os.Args[2:], (*ipc.Client).ShowWindow))
	case "close":
		os.Exit(runWindowCommand("close", "Close the application window and persist its state.", os.Args[2:], (*ipc.Client).CloseWindow))
	case "wait-created":
		os.Exit(runWaitCreated(os.Args[2:]))
	case "reload":
		os.Exit(runWindowCommand("reload", "Ask the daemon to reload its configuration.", os.Args[2:], (*ipc.Client).Reload))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winlaunch <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the winlaunch daemon (foreground)")
	fmt.Fprintln(w, "  launch              Create the application window")
	fmt.Fprintln(w, "  status              Show daemon and window status")
	fmt.Fprintln(w, "  placement           Show the persisted window placement")
	fmt.Fprintln(w, "  show                Map the hidden window")
	fmt.Fprintln(w, "  close               Close the window")
	fmt.Fprintln(w, "  wait-created        Block until the next window is created")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write a default config file")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winlaunch <command> --help' for command-specific options.")
}

func runLaunch(args []string) int {
	fs := flag.NewFlagSet("launch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Print JSON output")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winlaunch launch [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to create the application window. Fails while a window is live.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "launch takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().Launch()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := renderLaunch(os.Stdout, status, outputStyled(*jsonOut)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Print JSON output")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winlaunch status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := renderStatus(os.Stdout, status, outputStyled(*jsonOut)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPlacement(args []string) int {
	fs := flag.NewFlagSet("placement", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Print JSON output")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winlaunch placement [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the maximized/fullscreen state persisted when the window last closed.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "placement takes no arguments")
		fs.Usage()
		return 2
	}

	placement, err := ipc.NewClient().GetPlacement()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := renderPlacement(os.Stdout, placement, outputStyled(*jsonOut)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runWindowCommand runs an argument-less IPC command.
func runWindowCommand(name, help string, args []string, call func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: winlaunch %s\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, help)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	if err := call(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runWaitCreated(args []string) int {
	fs := flag.NewFlagSet("wait-created", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sender := fs.String("sender", launcher.TrustedSenderID, "Extension id to send the message as")
	timeout := fs.Duration("timeout", 0, "Give up after this long (default: wait forever)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winlaunch wait-created [--sender ID] [--timeout DURATION]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Register the window-created callback and block until a window is created.")
		fmt.Fprintln(os.Stderr, "Exits 1 if the daemon drops the message (untrusted sender).")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "wait-created takes no arguments")
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	err := ipc.NewClient().WaitWindowCreated(ctx, *sender)
	switch {
	case err == nil:
		fmt.Printf("window created after %s\n", time.Since(start).Round(time.Millisecond))
		return 0
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(os.Stderr, "timed out after %s\n", *timeout)
		return 1
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  winlaunch config init [--path PATH] [--force]")
		fmt.Fprintln(os.Stderr, "  winlaunch config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  winlaunch config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("init", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winlaunch/config.yaml)")
		force := fs.Bool("force", false, "Overwrite an existing file")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		written, err := initConfig(*path, *force)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("config: wrote %s\n", written)
		return 0

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winlaunch/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if _, err := loadConfig(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/winlaunch/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			var err error
			if cfg, err = loadConfig(*path); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		if storagePath, err := cfg.ResolvedStoragePath(); err == nil {
			fmt.Printf("# resolved_storage_path: %s\n", storagePath)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

// initConfig writes the default configuration to path, or the default
// location when path is empty. An existing file is kept unless force is set.
func initConfig(path string, force bool) (string, error) {
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return "", err
		}
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// loadConfig reads path, or the default location when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}
