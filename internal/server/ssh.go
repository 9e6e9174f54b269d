// Package server serves the livepane studio over SSH.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"charm.land/log/v2"
	"charm.land/wish/v2"
	"charm.land/wish/v2/bubbletea"
	"charm.land/wish/v2/logging"
	"github.com/Gaurav-Gosain/livepane/internal/app"
	"github.com/Gaurav-Gosain/livepane/internal/config"
	"github.com/Gaurav-Gosain/livepane/internal/input"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
	"github.com/Gaurav-Gosain/livepane/internal/workspace"
	"github.com/charmbracelet/ssh"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	Host    string
	Port    string
	KeyPath string

	// Workspace, when set, seeds every session's buffers, and changes made
	// on disk reach all sessions through the file watcher.
	Workspace *workspace.Workspace
	// Starter replaces the built-in starter page when no workspace is set.
	Starter *preview.Buffers
	// Surfaces are loaded alongside each session's terminal pane, e.g. the
	// browser preview hub.
	Surfaces []sandbox.Surface
	Sink     app.BufferSink

	Config     *config.Config
	ExportDir  string
	PreviewURL string
	Logger     *log.Logger
}

// DefaultHostKeyPath is where the host key is kept when none is configured.
func DefaultHostKeyPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ssh", "livepane_host_key"), nil
}

// StartSSHServer runs the SSH server until ctx is cancelled.
func StartSSHServer(ctx context.Context, cfg *SSHServerConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	hostKeyPath := cfg.KeyPath
	if hostKeyPath == "" {
		p, err := DefaultHostKeyPath()
		if err != nil {
			return err
		}
		hostKeyPath = p
	}

	// Set once, before any session goroutine reads it.
	app.SetInputHandler(input.HandleInput)

	server, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			// Bubble Tea middleware for interactive sessions
			bubbletea.Middleware(TeaHandler(cfg)),
			// Logging middleware for connection tracking
			logging.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting SSH server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("SSH server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down SSH server")
	return server.Shutdown(context.WithoutCancel(ctx))
}

// TeaHandler creates a studio for each SSH session.
func TeaHandler(cfg *SSHServerConfig) bubbletea.Handler {
	return func(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, active := sess.Pty()
		if !active {
			wish.Fatalln(sess, "livepane needs an interactive terminal; connect with ssh -t")
			return nil, nil
		}

		m, err := NewSessionStudio(sess.Context(), cfg)
		if err != nil {
			wish.Fatalln(sess, err.Error())
			return nil, nil
		}
		m.Width = pty.Window.Width
		m.Height = pty.Window.Height

		return m, []tea.ProgramOption{
			tea.WithFPS(config.NormalFPS),
			tea.WithFilter(app.FilterMouseMotion),
		}
	}
}

// NewSessionStudio builds a studio for one session. The workspace watcher,
// if any, stops with ctx. Callers install the input handler beforehand.
func NewSessionStudio(ctx context.Context, cfg *SSHServerConfig) (*app.Studio, error) {
	userConfig := cfg.Config
	if userConfig == nil {
		userConfig = config.DefaultConfig()
	}

	starter := preview.Starter()
	if cfg.Starter != nil {
		starter = *cfg.Starter
	}

	opts := app.Options{
		Config:     userConfig,
		Buffers:    starter,
		Surfaces:   cfg.Surfaces,
		Sink:       cfg.Sink,
		ExportDir:  cfg.ExportDir,
		PreviewURL: cfg.PreviewURL,
		Logger:     cfg.Logger,
	}

	if ws := cfg.Workspace; ws != nil {
		buffers, err := ws.Load(starter)
		if err != nil {
			return nil, fmt.Errorf("load workspace: %w", err)
		}
		changes, err := ws.Watch(ctx)
		if err != nil {
			return nil, fmt.Errorf("watch workspace: %w", err)
		}
		opts.Buffers = buffers
		opts.Changes = changes
	}

	return app.New(opts), nil
}
