// Command memorymatch starts the Memory Match server.
//
// Commands:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" checks the tier JSON files in the config directory
//  4. "watch" prints game events published on NATS
//
// Settings come from MEMORY_* environment variables (a .env file is loaded
// first); command-line flags override them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/memorymatch/api"
	"github.com/wricardo/mcp-training/memorymatch/game/config"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
	"github.com/wricardo/mcp-training/memorymatch/game/session"
	"github.com/wricardo/mcp-training/memorymatch/transport/mcp"
	natstransport "github.com/wricardo/mcp-training/memorymatch/transport/nats"
	"github.com/wricardo/mcp-training/memorymatch/transport/websocket"
	"github.com/wricardo/mcp-training/memorymatch/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Match Server"
)

const storeSyncInterval = 5 * time.Second

var logger = logrus.New()

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Warn("Error loading .env file")
		}
	} else {
		logger.Info("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logger.WithError(err).Fatal("Exiting")
	}
}

// newApp builds the command tree; flags are shared by every command
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "memorymatch",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.StringFlag{Name: "config-dir", Usage: "directory containing difficulty tiers"},
			&cli.StringFlag{Name: "static-dir", Usage: "directory served at /"},
			&cli.StringFlag{Name: "store", Usage: "session store: file, sqlite, redis or memory"},
			&cli.StringFlag{Name: "sessions-dir", Usage: "directory for the file store"},
			&cli.StringFlag{Name: "sqlite-path", Usage: "database path for the sqlite store"},
			&cli.StringFlag{Name: "redis-addr", Usage: "address for the redis store"},
			&cli.StringFlag{Name: "nats-url", Usage: "publish game events to this NATS server"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token (or NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain"},
		},
		Action: serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server, starting an internal HTTP API when needed",
				Action:  stdioAction,
			},
			{
				Name:   "validate",
				Usage:  "validate the tier files in the config directory",
				Action: validateAction,
			},
			{
				Name:  "watch",
				Usage: "print game events published on NATS",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "session", Usage: "only events for this session"},
				},
				Action: watchAction,
			},
		},
	}
}

// loadSettings reads the environment and applies flag overrides
func loadSettings(cmd *cli.Command) (*config.ServerConfig, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("config-dir") {
		cfg.ConfigDir = cmd.String("config-dir")
	} else if dir := os.Getenv("CONFIG_DIR"); dir != "" && os.Getenv("MEMORY_CONFIG_DIR") == "" {
		cfg.ConfigDir = dir
	}
	if cmd.IsSet("static-dir") {
		cfg.StaticDir = cmd.String("static-dir")
	}
	if cmd.IsSet("store") {
		cfg.Store = cmd.String("store")
	}
	if cmd.IsSet("sessions-dir") {
		cfg.SessionsDir = cmd.String("sessions-dir")
	}
	if cmd.IsSet("sqlite-path") {
		cfg.SQLitePath = cmd.String("sqlite-path")
	}
	if cmd.IsSet("redis-addr") {
		cfg.RedisAddr = cmd.String("redis-addr")
	}
	if cmd.IsSet("nats-url") {
		cfg.NATSURL = cmd.String("nats-url")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		cfg.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.NgrokAuthToken = cmd.String("ngrok-auth")
	} else if cfg.NgrokAuthToken == "" {
		cfg.NgrokAuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.NgrokDomain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger.WithField("store", cfg.Store).Infof("Starting %s v%s", AppName, Version)

	app, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer app.Close()

	return runHTTPServer(ctx, cfg, app)
}

func stdioAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	// stdout belongs to the MCP protocol
	logger.SetOutput(os.Stderr)

	app, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer app.Close()

	return runStdioMCPWithInternalServer(ctx, cfg, app)
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	results, err := validate.ValidateDir(cfg.ConfigDir)
	if err != nil {
		return err
	}
	if invalid := validate.Report(cmd.Root().Writer, results); invalid > 0 {
		return cli.Exit(fmt.Sprintf("%d invalid tier files", invalid), 1)
	}
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	publisher, err := natstransport.Connect(cfg.NATSURL, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	subject := natstransport.AllEvents()
	if id := cmd.String("session"); id != "" {
		subject = natstransport.SessionWildcard(id)
	}

	out := cmd.Root().Writer
	sub, err := publisher.Subscribe(subject, func(event service.GameEvent) {
		printEvent(out, event)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	logger.WithField("subject", subject).Info("Watching game events")
	<-ctx.Done()
	return nil
}

func printEvent(w io.Writer, event service.GameEvent) {
	fmt.Fprintf(w, "%s %-8s %-16s cards=%v moves=%d %s\n",
		event.Timestamp.Format("15:04:05"), event.SessionID, event.Type, event.CardIDs, event.Moves, event.Message)
}

// services bundles the long-lived components shared by the HTTP and stdio modes
type services struct {
	game        service.GameService
	sessions    *session.Manager
	configs     *config.Manager
	persistence session.SessionPersistence
	hub         *websocket.Hub
	publisher   *natstransport.Publisher
}

// initializeServices wires config/session managers, the hub, the optional
// NATS publisher and the game service.
func initializeServices(cfg *config.ServerConfig) (*services, error) {
	// First run gets the easy, medium and hard tiers; edited files are kept
	if err := config.WriteBuiltinConfigs(cfg.ConfigDir); err != nil {
		return nil, err
	}

	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := newPersistence(cfg, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	var sessionManager *session.Manager
	if persistence != nil {
		sessionManager = session.NewManagerWithPersistence(persistence, session.WithLogger(logger))
		if err := sessionManager.LoadPersistedSessions(); err != nil {
			logger.WithError(err).Warn("Failed to load persisted sessions")
		}
	} else {
		sessionManager = session.NewManager(session.WithLogger(logger))
	}

	hub := websocket.NewHub(logger)
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithStateListener(hub),
	}

	var publisher *natstransport.Publisher
	if cfg.NATSURL != "" {
		publisher, err = natstransport.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("NATS unavailable, game events will not be published")
		} else {
			opts = append(opts, service.WithEventPublisher(publisher))
		}
	}

	gameService := service.NewGameService(sessionManager, configManager, opts...)
	hub.SetActionFunc(hub.ServiceActions(gameService))

	return &services{
		game:        gameService,
		sessions:    sessionManager,
		configs:     configManager,
		persistence: persistence,
		hub:         hub,
		publisher:   publisher,
	}, nil
}

// newPersistence returns the configured session store, nil for memory-only
func newPersistence(cfg *config.ServerConfig, configs service.ConfigManager) (session.SessionPersistence, error) {
	switch cfg.Store {
	case config.StoreFile:
		return session.NewFilePersistence(cfg.SessionsDir, configs)
	case config.StoreSQLite:
		return session.NewSQLitePersistence(cfg.SQLitePath, configs)
	case config.StoreRedis:
		return session.NewRedisPersistence(session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SessionTTL,
		}, configs)
	case config.StoreMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// start launches the hub and the maintenance routines; they stop with ctx
func (s *services) start(ctx context.Context, cfg *config.ServerConfig, wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, s.sessions, s.persistence, cfg.CleanupInterval, cfg.SessionTTL)
	}()

	if s.persistence != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			storeSyncRoutine(ctx, s.sessions, s.persistence, storeSyncInterval)
		}()
	}
}

// Close saves every session and releases store and broker connections
func (s *services) Close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		logger.WithError(err).Warn("Failed to save sessions on shutdown")
	}
	if closer, ok := s.persistence.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close session store")
		}
	}
	if s.publisher != nil {
		s.publisher.Close()
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and the /mcp endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cfg *config.ServerConfig, app *services) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	app.start(ctx, cfg, &wg)

	addr := cfg.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	apiServer := api.NewServer(app.game, app.hub,
		api.WithLogger(logger),
		api.WithStaticDir(cfg.StaticDir),
		api.WithMCPHandler(mcpClient.HTTPHandler()),
	)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", addr)
		logger.Infof("REST API: http://%s/api", addr)
		logger.Infof("WebSocket: ws://%s/ws?session=<session_id>", addr)
		logger.Infof("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, apiServer)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err = <-serveErr:
		logger.WithError(err).Error("HTTP server failed")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.WithError(shutdownErr).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Info("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, cfg *config.ServerConfig, handler http.Handler) {
	if cfg.NgrokAuthToken == "" {
		logger.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logger.Info("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logger.WithField("domain", cfg.NgrokDomain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		logger.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.Infof("🚀 Ngrok tunnel established: %s", ngrokURL)
	logger.Infof("  REST API (ngrok): %s/api", ngrokURL)
	logger.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	logger.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)
	logger.Infof("  Game UI (ngrok): %s/", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.WithError(err).Warn("Ngrok server error")
	}
	logger.Info("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(ttl)
			pruneExpiredRecords(manager, persistence, ttl)
		}
	}
}

// expiringStore is a store that can drop stale records in bulk
type expiringStore interface {
	DeleteOlderThan(cutoff time.Time, keep ...string) (int, error)
}

// pruneExpiredRecords removes stored sessions nobody loaded within ttl.
// Sessions only on disk are never seen by the in-memory cleanup; sessions
// held in memory keep their rows because reads do not rewrite them.
func pruneExpiredRecords(manager *session.Manager, persistence session.SessionPersistence, ttl time.Duration) int {
	store, ok := persistence.(expiringStore)
	if !ok {
		return 0
	}
	var live []string
	for _, sess := range manager.List() {
		live = append(live, sess.ID)
	}
	n, err := store.DeleteOlderThan(time.Now().Add(-ttl), live...)
	if err != nil {
		logger.WithError(err).Warn("Failed to prune expired stored sessions")
		return 0
	}
	if n > 0 {
		logger.WithField("removed", n).Info("Expired stored sessions pruned")
	}
	return n
}

// storeSyncRoutine drops in-memory sessions whose stored copy was removed
// outside the server, e.g. a deleted session file.
func storeSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphanedSessions(manager, persistence)
		}
	}
}

func pruneOrphanedSessions(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.WithField("session", sess.ID).Info("Pruned session from memory (stored copy deleted)")
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already listening on the configured address; otherwise it
// starts an internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cfg *config.ServerConfig, app *services) error {
	externalURL := fmt.Sprintf("http://%s", cfg.Addr())
	baseURL := externalURL

	logger.Infof("Checking for external API server at %s...", externalURL)
	if !apiAvailable(externalURL) {
		logger.Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		// cancel runs before wg.Wait
		var wg sync.WaitGroup
		defer wg.Wait()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		app.start(ctx, cfg, &wg)

		httpServer := &http.Server{
			Handler: api.NewServer(app.game, app.hub, api.WithLogger(logger), api.WithStaticDir(cfg.StaticDir)),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("Internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		logger.Infof("Internal HTTP server on %s for MCP stdio", baseURL)
	} else {
		logger.Infof("External API server found at %s, using it for MCP", externalURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a Memory Match API answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
