// Package web serves the live preview to browsers.
// Documents are pushed over WebSocket or WebTransport and loaded into a
// sandboxed iframe, replacing the previous document on every push.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"charm.land/log/v2"
	"github.com/Gaurav-Gosain/livepane/internal/preview"
	"github.com/Gaurav-Gosain/livepane/internal/sandbox"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
)

//go:embed static/*
var staticFiles embed.FS

// Package-level logger
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "web",
})

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	logger = l
}

// SetLogLevel sets the logging level for the web package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// Config holds the preview server configuration.
type Config struct {
	Host           string   // Host to bind to (default: "localhost")
	Port           string   // Port to listen on (default: "7690")
	MaxConnections int      // Maximum concurrent browsers (0 = unlimited)
	AllowOrigins   []string // Allowed origins for WebSocket (empty = all)
	WebTransport   bool     // Also serve WebTransport on port+1
	Debug          bool     // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         "7690",
		WebTransport: true,
	}
}

// Server is the browser preview server.
type Server struct {
	config     Config
	hub        *Hub
	httpServer *http.Server
	wtServer   *webtransport.Server
	connCount  atomic.Int32
	certInfo   *CertInfo
	wtPort     string
}

// NewServer creates a preview server publishing hub's documents.
func NewServer(config Config, hub *Hub) *Server {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == "" {
		config.Port = "7690"
	}

	if config.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	wtPort := "7691"
	if p, err := strconv.Atoi(config.Port); err == nil {
		wtPort = strconv.Itoa(p + 1)
	}

	logger.Debug("creating preview server",
		"host", config.Host,
		"port", config.Port,
		"max_connections", config.MaxConnections,
		"webtransport", config.WebTransport,
	)

	return &Server{
		config: config,
		hub:    hub,
		wtPort: wtPort,
	}
}

// Hub returns the hub the server publishes.
func (s *Server) Hub() *Hub {
	return s.hub
}

// URL returns the address browsers should open.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(s.config.Host, s.config.Port))
}

// Handler returns the HTTP routes. WebTransport is served separately.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/static/", s.handleStatic)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/document", s.handleDocument)
	mux.HandleFunc("GET /export/{name}", s.handleExport)

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Certificate hash endpoint for WebTransport
	mux.HandleFunc("/cert-hash", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if s.certInfo == nil {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"available": false})
			return
		}
		hashArray := make([]int, len(s.certInfo.Hash))
		for i, b := range s.certInfo.Hash {
			hashArray[i] = int(b)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"available": true,
			"algorithm": "sha-256",
			"hashBytes": hashArray,
			"wtUrl":     fmt.Sprintf("https://127.0.0.1:%s/webtransport", s.wtPort),
		})
	})

	return mux
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	httpAddr := net.JoinHostPort(s.config.Host, s.config.Port)

	if s.config.WebTransport {
		if err := s.startWebTransport(); err != nil {
			logger.Warn("WebTransport disabled", "err", err)
		}
	}

	s.httpServer = &http.Server{
		Addr:        httpAddr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("preview server starting", "url", s.URL())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		if s.wtServer != nil {
			_ = s.wtServer.Close()
		}
		return nil
	case err := <-errChan:
		if s.wtServer != nil {
			_ = s.wtServer.Close()
		}
		return err
	}
}

func (s *Server) startWebTransport() error {
	logger.Debug("generating self-signed certificate")
	certInfo, err := GenerateSelfSignedCert(s.config.Host)
	if err != nil {
		return fmt.Errorf("generate certificate: %w", err)
	}
	s.certInfo = certInfo

	wtMux := http.NewServeMux()
	wtMux.HandleFunc("/webtransport", s.handleWebTransport)

	wtAddr := net.JoinHostPort("127.0.0.1", s.wtPort)
	s.wtServer = &webtransport.Server{
		H3: http3.Server{
			Addr:            wtAddr,
			TLSConfig:       certInfo.TLSConfig,
			Handler:         wtMux,
			EnableDatagrams: true,
		},
		CheckOrigin: s.checkOrigin,
	}

	go func() {
		logger.Info("WebTransport server starting", "addr", wtAddr, "protocol", "QUIC/UDP")
		if err := s.wtServer.ListenAndServe(); err != nil {
			logger.Warn("WebTransport server error", "err", err)
		}
	}()
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.config.AllowOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) || strings.HasSuffix(origin, "://"+allowed) {
			return true
		}
	}
	return false
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	logger.Debug("serving index", "remote", r.RemoteAddr)

	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	data, err := staticFiles.ReadFile(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	}
	_, _ = w.Write(data)
}

// handleDocument serves the composed document on its own. The CSP sandbox
// gives it the same isolation as the iframe.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.hub.Document()
	if !ok {
		http.Error(w, "no document yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", sandbox.CSPPolicy)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var kind preview.Kind
	found := false
	for _, k := range preview.Kinds {
		if k.ExportName() == name {
			kind, found = k, true
			break
		}
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", kind.MIME())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if kind == preview.Markup {
		w.Header().Set("Content-Security-Policy", sandbox.CSPPolicy)
	}
	_, _ = w.Write([]byte(preview.ExportContent(s.hub.Buffers(), kind)))
}

// checkConnectionLimit returns true if connection is allowed.
func (s *Server) checkConnectionLimit() bool {
	if s.config.MaxConnections <= 0 {
		return true
	}
	newCount := s.connCount.Add(1)
	if int(newCount) > s.config.MaxConnections {
		s.connCount.Add(-1)
		logger.Warn("connection limit reached",
			"current", newCount-1,
			"max", s.config.MaxConnections,
		)
		return false
	}
	logger.Debug("connection accepted", "count", newCount)
	return true
}

func (s *Server) releaseConnection() {
	if s.config.MaxConnections <= 0 {
		return
	}
	newCount := s.connCount.Add(-1)
	logger.Debug("connection released", "count", newCount)
}
