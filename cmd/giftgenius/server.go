package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/giftgenius/internal/api"
	"github.com/kalambet/giftgenius/internal/config"
	"github.com/kalambet/giftgenius/internal/engine"
	"github.com/kalambet/giftgenius/internal/gateway"
	"github.com/kalambet/giftgenius/internal/metrics"
	"github.com/kalambet/giftgenius/internal/models"
	"github.com/kalambet/giftgenius/internal/ollama"
	"github.com/kalambet/giftgenius/internal/session"
	"github.com/kalambet/giftgenius/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the giftgenius server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running giftgenius server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server, provider and storage status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve MCP tools on stdin/stdout")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "giftgenius.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// loadRegistry returns the model list selected by the configuration.
func loadRegistry(cfg config.Config) (*models.Registry, error) {
	if cfg.Models.RegistryFile != "" {
		return models.LoadFile(cfg.Models.RegistryFile, cfg.Models.Default)
	}
	reg := models.DefaultRegistry()
	if cfg.Models.Default == "" {
		return reg, nil
	}
	return reg.WithDefault(cfg.Models.Default)
}

func credentials(cfg config.Config) engine.Credentials {
	return engine.Credentials{
		GeminiAPIKey:     cfg.Providers.GeminiAPIKey,
		GroqAPIKey:       cfg.Providers.GroqAPIKey,
		OpenRouterAPIKey: cfg.Providers.OpenRouterAPIKey,
		OllamaBaseURL:    cfg.Providers.OllamaBaseURL,
		Timeout:          cfg.Providers.Timeout,
	}
}

// app is the wired server without its listener.
type app struct {
	registry *models.Registry
	gateway  *gateway.Gateway
	sessions *session.Manager
	metrics  *metrics.Metrics
	handler  http.Handler
}

func newApp(cfg config.Config, store session.Store, engines gateway.EngineSource) (*app, error) {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading model registry: %w", err)
	}
	m := metrics.New()
	gw := gateway.New(reg, engines, m)
	mgr := session.NewManager(store, gw, m)
	return &app{
		registry: reg,
		gateway:  gw,
		sessions: mgr,
		metrics:  m,
		handler: api.NewHandler(api.Deps{
			Generator: gw,
			Sessions:  mgr,
			Metrics:   m,
			Token:     cfg.Server.APIToken,
		}),
	}, nil
}

// localModels lists the registry entries served by Ollama.
func localModels(reg *models.Registry) []string {
	var ids []string
	for _, m := range reg.Models() {
		if m.Provider == models.ProviderOllama {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "giftgenius version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(serverURL(cfg) + "/health"); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("giftgenius is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("giftgenius is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	a, err := newApp(cfg, store, engine.NewSet(credentials(cfg)))
	if err != nil {
		return err
	}
	slog.Info("model registry loaded", "models", len(a.registry.Models()), "default", a.registry.Default())

	if local := localModels(a.registry); len(local) > 0 {
		oc := ollama.New(cfg.Providers.OllamaBaseURL, 5*time.Second)
		if err := ollama.CheckModels(ctx, oc, local, os.Stderr); err != nil {
			slog.Warn("local models unavailable", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("giftgenius listening", "addr", cfg.Addr(), "auth", cfg.Server.APIToken != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Generator: a.gateway, Version: version})
		stdio := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdio.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP stdio server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("giftgenius is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop giftgenius (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to giftgenius (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(serverURL(cfg) + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on %s", cfg.Addr())
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	for _, p := range []struct {
		name string
		key  string
	}{
		{"Gemini", cfg.Providers.GeminiAPIKey},
		{"Groq", cfg.Providers.GroqAPIKey},
		{"OpenRouter", cfg.Providers.OpenRouterAPIKey},
	} {
		if p.key == "" {
			printStatus(p.name, "no API key")
		} else {
			printStatus(p.name, "API key set")
		}
	}

	oc := ollama.New(cfg.Providers.OllamaBaseURL, 2*time.Second)
	if oc.IsRunning(context.Background()) {
		printStatus("Ollama", "running at %s", cfg.Providers.OllamaBaseURL)
	} else {
		printStatus("Ollama", "not running")
	}

	if reg, err := loadRegistry(cfg); err == nil {
		printStatus("Default model", "%s", reg.Default())
	} else {
		printStatus("Default model", "registry error: %v", err)
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
