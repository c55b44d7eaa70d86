package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foomo/ophelia-mcp/config"
	"github.com/foomo/ophelia-mcp/mcp"
	"github.com/foomo/ophelia-mcp/preferences"
	"github.com/foomo/ophelia-mcp/service"
	"github.com/foomo/ophelia-mcp/session"
	"github.com/foomo/ophelia-mcp/storage"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func main() {
	stdioMode := flag.Bool("stdio", true, "Run in stdio mode")
	httpAddr := flag.String("http", "", "HTTP server address (e.g., ':8080')")
	landingURL := flag.String("landing-url", "", "Site URL opened from the bot link; its token or user_id parameter is stored")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	l, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = l.Sync() }()

	if err := run(l, cfg, *stdioMode, *httpAddr, *landingURL); err != nil {
		l.Fatal("ophelia-mcp failed", zap.Error(err))
	}
}

// newLogger writes to stderr so that stdout stays free for the stdio transport.
func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

func run(l *zap.Logger, cfg config.Config, stdioMode bool, httpAddr, landingURL string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if landingURL != "" {
		cleaned, err := session.Capture(ctx, l, store, landingURL)
		if err != nil {
			return err
		}
		l.Info("landing url processed", zap.String("url", cleaned))
	}

	apiBase, err := session.LoadAPIBase(ctx, store, cfg.APIBase)
	if err != nil {
		return err
	}
	credential, err := session.LoadCredential(ctx, store)
	if err != nil {
		return err
	}
	l.Info("content client configured",
		zap.String("apiBase", apiBase),
		zap.Stringer("credential", credential),
	)

	svc := service.NewService(l, service.Settings{
		BaseURL:    apiBase,
		Credential: credential,
	}, &http.Client{Timeout: cfg.HTTPTimeout})
	prefs := preferences.New(l, store)
	s := mcp.NewServer(l, svc, prefs)

	if httpAddr != "" {
		return serveHTTP(ctx, l, s, svc, prefs, cfg.MCPEndpoint, httpAddr)
	}
	if !stdioMode {
		l.Info("no transport selected, falling back to stdio")
	}
	l.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s)
}

func serveHTTP(ctx context.Context, l *zap.Logger, s *server.MCPServer, svc service.Service, prefs *preferences.Store, endpoint, addr string) error {
	handler := mcp.NewMcpHTTPSSEServer(l, s, svc, prefs, endpoint, mcp.DefaultSSEServerConfig())
	defer handler.Close()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("starting MCP server", zap.String("addr", addr), zap.String("endpoint", endpoint))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// stop streaming handlers before draining connections
	handler.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
