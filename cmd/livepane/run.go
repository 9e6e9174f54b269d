package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/livepane/internal/app"
	"github.com/Gaurav-Gosain/livepane/internal/config"
	"github.com/Gaurav-Gosain/livepane/internal/input"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
	"github.com/Gaurav-Gosain/livepane/internal/server"
	"github.com/Gaurav-Gosain/livepane/internal/theme"
	"github.com/Gaurav-Gosain/livepane/internal/web"
	"github.com/Gaurav-Gosain/livepane/internal/workspace"
	"github.com/Gaurav-Gosain/sip"
	"github.com/charmbracelet/colorprofile"
	"golang.org/x/term"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// loadConfig reads the user config and applies the global flags over it.
func loadConfig() *config.Config {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if themeName != "" {
		cfg.Appearance.Theme = themeName
	}
	if asciiOnly {
		cfg.Appearance.ASCIIOnly = true
	}
	if borderStyle != "" {
		cfg.Appearance.BorderStyle = borderStyle
	}
	if noPreview {
		cfg.Preview.Enabled = false
	}

	if err := theme.Initialize(cfg.Appearance.Theme, cfg.Appearance.DarkMode); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return cfg
}

// newLogger builds the shared logger and hands it to every package that
// logs. The terminal UI must not write to its own screen, so it logs to the
// state file; the headless commands log to stderr.
func newLogger(toFile bool) (*log.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if toFile {
		path, err := config.GetLogPath()
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	if debugMode {
		logger.SetLevel(log.DebugLevel)
	}

	web.SetLogger(logger.WithPrefix("web"))
	sandbox.SetLogger(logger.WithPrefix("sandbox"))
	workspace.SetLogger(logger.WithPrefix("workspace"))
	return logger, closer, nil
}

// openWorkspace opens --workspace, if given.
func openWorkspace(cfg *config.Config) (*workspace.Workspace, error) {
	if workspaceDir == "" {
		return nil, nil
	}
	ws, err := workspace.Open(workspaceDir, cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	return ws, nil
}

// startPreview starts the browser preview server in the background. The
// returned hub is nil when the preview is disabled.
func startPreview(ctx context.Context, cfg *config.Config, logger *log.Logger) (*web.Hub, string) {
	if !cfg.Preview.Enabled {
		return nil, ""
	}

	webCfg := web.DefaultConfig()
	webCfg.Host = cfg.Preview.Host
	webCfg.Port = cfg.Preview.Port
	webCfg.MaxConnections = cfg.Preview.MaxConnections
	webCfg.AllowOrigins = cfg.Preview.AllowOrigins
	webCfg.Debug = debugMode

	hub := web.NewHub()
	srv := web.NewServer(webCfg, hub)
	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.Error("preview server stopped", "err", err)
		}
	}()
	return hub, srv.URL()
}

func runLocal(parent context.Context) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	cfg := loadConfig()
	logger, closer, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Set up the input handler to break circular dependency
	app.SetInputHandler(input.HandleInput)

	opts := app.Options{
		Config:    cfg,
		Buffers:   preview.Starter(),
		ExportDir: exportDir,
		Logger:    logger.WithPrefix("studio"),
	}

	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	if ws != nil {
		if opts.Buffers, err = ws.Load(preview.Starter()); err != nil {
			return fmt.Errorf("load workspace: %w", err)
		}
		if opts.Changes, err = ws.Watch(ctx); err != nil {
			return fmt.Errorf("watch workspace: %w", err)
		}
	}

	if hub, url := startPreview(ctx, cfg, logger); hub != nil {
		opts.Surfaces = []sandbox.Surface{hub}
		opts.Sink = hub
		opts.PreviewURL = url
	}

	configPath, _ := config.GetConfigPath()
	logger.Info("starting studio", "config", configPath, "workspace", workspaceDir, "preview", opts.PreviewURL)

	p := tea.NewProgram(
		app.New(opts),
		tea.WithContext(ctx),
		tea.WithFPS(config.NormalFPS),
		tea.WithFilter(app.FilterMouseMotion),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// runServe pushes the workspace to browsers without a terminal UI. The
// renderer stands in for the studio: every file change is recomposed and
// loaded into the hub.
func runServe(parent context.Context, host, port string, maxConnections int) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	cfg := loadConfig()
	logger, _, err := newLogger(false)
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Preview.Host = host
	}
	if port != "" {
		cfg.Preview.Port = port
	}
	if maxConnections > 0 {
		cfg.Preview.MaxConnections = maxConnections
	}

	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	if ws == nil {
		if ws, err = workspace.Open(".", cfg.Workspace); err != nil {
			return fmt.Errorf("open workspace: %w", err)
		}
	}

	buffers, err := ws.Load(preview.Starter())
	if err != nil {
		return fmt.Errorf("load workspace: %w", err)
	}
	changes, err := ws.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch workspace: %w", err)
	}

	webCfg := web.DefaultConfig()
	webCfg.Host = cfg.Preview.Host
	webCfg.Port = cfg.Preview.Port
	webCfg.MaxConnections = cfg.Preview.MaxConnections
	webCfg.AllowOrigins = cfg.Preview.AllowOrigins
	webCfg.Debug = debugMode

	hub := web.NewHub()
	renderer := sandbox.NewRenderer(hub)
	publish := func(b preview.Buffers) {
		hub.SetBuffers(b)
		renderer.Update(b.Compose())
	}
	publish(buffers)

	go func() {
		for change := range changes {
			buffers = buffers.With(change.Kind, change.Content)
			logger.Info("reloaded", "file", ws.Path(change.Kind))
			publish(buffers)
		}
	}()

	srv := web.NewServer(webCfg, hub)
	logger.Info("serving workspace", "dir", ws.Dir, "url", srv.URL())
	return srv.Start(ctx)
}

func runExport(out, kind string, stdout bool) error {
	cfg := loadConfig()

	buffers := preview.Starter()
	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	if ws != nil {
		if buffers, err = ws.Load(preview.Starter()); err != nil {
			return fmt.Errorf("load workspace: %w", err)
		}
	}

	if !stdout {
		paths, err := preview.Export(out, buffers)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	content := buffers.Compose()
	if kind != "" {
		k, err := preview.ParseKind(kind)
		if err != nil {
			return err
		}
		content = preview.ExportContent(buffers, k)
	}

	if _, err := io.WriteString(os.Stdout, content); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	// Keep the shell prompt off the last line when printing to a terminal.
	if term.IsTerminal(int(os.Stdout.Fd())) && len(content) > 0 && content[len(content)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

func runSSHServer(parent context.Context, sshHost, sshPort, sshKeyPath string) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	cfg := loadConfig()
	logger, _, err := newLogger(false)
	if err != nil {
		return err
	}

	sshCfg := &server.SSHServerConfig{
		Host:      sshHost,
		Port:      sshPort,
		KeyPath:   sshKeyPath,
		Config:    cfg,
		ExportDir: exportDir,
		Logger:    logger.WithPrefix("ssh"),
	}
	if sshCfg.ExportDir == "" {
		sshCfg.ExportDir = "."
	}

	if sshCfg.Workspace, err = openWorkspace(cfg); err != nil {
		return err
	}
	if hub, url := startPreview(ctx, cfg, logger); hub != nil {
		sshCfg.Surfaces = []sandbox.Surface{hub}
		sshCfg.Sink = hub
		sshCfg.PreviewURL = url
	}

	logger.Info("starting livepane SSH server", "host", sshHost, "port", sshPort)
	if err := server.StartSSHServer(ctx, sshCfg); err != nil {
		return fmt.Errorf("SSH server error: %w", err)
	}
	return nil
}

func runWebServer(parent context.Context, host, port string, readOnly bool, maxConnections int) error {
	// Force TrueColor before any styles are created; stdout is not the
	// terminal the studio is drawn on.
	lipgloss.Writer.Profile = colorprofile.TrueColor
	_ = os.Setenv("TERM", "xterm-256color")
	_ = os.Setenv("COLORTERM", "truecolor")

	ctx, cancel := signalContext(parent)
	defer cancel()

	cfg := loadConfig()
	logger, _, err := newLogger(false)
	if err != nil {
		return err
	}

	sessCfg := &server.SSHServerConfig{
		Config:    cfg,
		ExportDir: ".",
		Logger:    logger.WithPrefix("studio"),
	}
	// sip sessions carry no context of their own, so the workspace is read
	// once here instead of watched per session.
	ws, err := openWorkspace(cfg)
	if err != nil {
		return err
	}
	if ws != nil {
		buffers, err := ws.Load(preview.Starter())
		if err != nil {
			return fmt.Errorf("load workspace: %w", err)
		}
		sessCfg.Starter = &buffers
	}
	if hub, url := startPreview(ctx, cfg, logger); hub != nil {
		sessCfg.Surfaces = []sandbox.Surface{hub}
		sessCfg.Sink = hub
		sessCfg.PreviewURL = url
	}

	app.SetInputHandler(input.HandleInput)

	sipConfig := sip.DefaultConfig()
	sipConfig.Host = host
	sipConfig.Port = port
	sipConfig.ReadOnly = readOnly
	sipConfig.MaxConnections = maxConnections
	sipConfig.Debug = debugMode

	return sip.NewServer(sipConfig).Serve(ctx, func(sess sip.Session) (tea.Model, []tea.ProgramOption) {
		m, err := server.NewSessionStudio(ctx, sessCfg)
		if err != nil {
			logger.Error("session setup failed", "err", err)
			m = app.New(app.Options{Config: cfg, Buffers: preview.Starter(), ExportDir: "."})
		}
		pty := sess.Pty()
		m.Width = pty.Width
		m.Height = pty.Height
		return m, []tea.ProgramOption{
			tea.WithFPS(config.NormalFPS),
			tea.WithFilter(app.FilterMouseMotion),
		}
	})
}
