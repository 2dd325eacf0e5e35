package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/1broseidon/winlaunch/internal/config"
	"github.com/1broseidon/winlaunch/internal/hotkeys"
	"github.com/1broseidon/winlaunch/internal/ipc"
	"github.com/1broseidon/winlaunch/internal/launcher"
	"github.com/1broseidon/winlaunch/internal/platform"
	"github.com/1broseidon/winlaunch/internal/storage"
)

// headlessArea is the screen reported by the in-memory backend.
var headlessArea = platform.Rect{Width: 1920, Height: 1080}

// eventLoop is the blocking main loop of a backend.
type eventLoop interface {
	EventLoop()
	Quit()
}

// idleLoop blocks until Quit for backends without an event source.
type idleLoop struct {
	once sync.Once
	done chan struct{}
}

func newIdleLoop() *idleLoop {
	return &idleLoop{done: make(chan struct{})}
}

func (l *idleLoop) EventLoop() { <-l.done }

func (l *idleLoop) Quit() { l.once.Do(func() { close(l.done) }) }

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	headless := fs.Bool("headless", false, "Use an in-memory window backend instead of X11")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/winlaunch/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winlaunch daemon [--headless] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Create the application window, then serve IPC until interrupted.")
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
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			log.Fatalf("Failed to resolve config path: %v", err)
		}
	}
	load := func() (*config.Config, error) { return config.LoadFromPath(path) }

	cfg, err := load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// NewServer removes a stale socket, so refuse to take over a live one.
	if err := ipc.NewClient().Ping(); err == nil {
		log.Fatalf("winlaunch daemon is already running")
	}

	storagePath, err := cfg.ResolvedStoragePath()
	if err != nil {
		log.Fatalf("Failed to resolve storage path: %v", err)
	}
	store := storage.NewFileStore(storagePath)
	logger.Info("configuration loaded", "path", path, "storage", store.Path(), "url", cfg.Window.URL)

	var (
		backend platform.Backend
		loop    eventLoop
		linux   *platform.LinuxBackend
	)
	if *headless {
		backend = platform.NewMemoryBackend(headlessArea)
		loop = newIdleLoop()
		logger.Info("using headless backend")
	} else {
		if xauth := strings.TrimSpace(cfg.XAuthority); xauth != "" {
			os.Setenv("XAUTHORITY", xauth)
		}
		linux, err = platform.NewLinuxBackendFromDisplay(cfg.Display)
		if err != nil {
			log.Fatalf("Failed to connect to display: %v", err)
		}
		defer linux.Disconnect()
		backend = linux
		loop = linux
	}

	l := launcher.New(backend, store, launcher.OptionsFromConfig(cfg), logger)

	var keys *hotkeys.Handler
	if linux != nil {
		if keys, err = hotkeys.NewHandler(linux, l, logger); err != nil {
			logger.Warn("global hotkeys unavailable", "error", err)
		} else {
			defer keys.Close()
			if err := keys.BindLaunch(cfg.LaunchHotkey); err != nil {
				logger.Warn("failed to bind launch hotkey", "error", err)
			}
		}
	}
	rebindKeys := func(newCfg *config.Config) {
		if keys == nil {
			return
		}
		if err := keys.BindLaunch(newCfg.LaunchHotkey); err != nil {
			logger.Warn("failed to bind launch hotkey", "error", err)
		}
	}

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(cfg, l, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	ipcServer.SetConfigLoader(load)
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The daemon starting is the launch signal.
	if err := l.Launch(ctx); err != nil {
		logger.Error("initial launch failed", "error", err)
	}

	applyConfig := func(newCfg *config.Config) {
		ipcServer.UpdateConfig(newCfg)
		level.Set(newCfg.SlogLevel())
		rebindKeys(newCfg)
		logger.Info("config reloaded", "url", newCfg.Window.URL, "log_level", newCfg.LogLevel)
	}

	go func() {
		err := config.Watch(ctx, path, applyConfig, func(err error) {
			logger.Warn("config reload failed", "error", err)
		})
		if err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					logger.Info("received SIGHUP, reloading config")
					newCfg, err := load()
					if err != nil {
						logger.Warn("config reload failed", "error", err)
						continue
					}
					applyConfig(newCfg)

				case os.Interrupt, syscall.SIGTERM:
					logger.Info("shutting down winlaunch daemon")
					// Closing persists the window state before the loop exits.
					if err := l.Close(); err != nil && !errors.Is(err, launcher.ErrNoWindow) {
						logger.Error("failed to close window", "error", err)
					}
					cancel()
					loop.Quit()
					return
				}

			case <-reloadChan:
				// IPC already applied the new config to the launcher.
				newCfg := ipcServer.GetConfig()
				level.Set(newCfg.SlogLevel())
				rebindKeys(newCfg)
			}
		}
	}()

	logger.Info("entering event loop")
	loop.EventLoop()
	return 0
}
