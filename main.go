// Command looney-race runs the Looney Race.
//
// It supports three modes:
//  1. "run" (default) – plays one race in the terminal, printing every turn
//  2. "server" – runs the HTTP server exposing the REST API, the WebSocket
//     spectator feed and an /mcp HTTP endpoint
//  3. "stdio-mcp" – runs an MCP stdio server, reusing an API server if one is
//     listening and starting an internal one otherwise
//
// Flags control pacing, host/port, debug logging and optional ngrok
// tunneling. Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/looney-race/api"
	"github.com/wricardo/looney-race/game/config"
	"github.com/wricardo/looney-race/game/engine"
	"github.com/wricardo/looney-race/game/service"
	"github.com/wricardo/looney-race/game/session"
	"github.com/wricardo/looney-race/transport/mcp"
	"github.com/wricardo/looney-race/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Looney Race"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Race output goes to out.
func newApp(out io.Writer) *cli.Command {
	defaults := config.Default()

	return &cli.Command{
		Name:    "looney-race",
		Usage:   "four characters, two carrots, one mountain",
		Version: Version,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "delay",
				Value:   defaults.Delay,
				Usage:   "pause each actor takes between turns",
				Sources: cli.EnvVars("RACE_DELAY"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   defaults.Host,
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runAction(ctx, cmd, out)
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "play one race in the terminal",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runAction(ctx, cmd, out)
				},
			},
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "serve the REST API, WebSocket feed and /mcp endpoint",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := settingsFromCommand(cmd)
					if err != nil {
						return err
					}
					return runHTTPServer(ctx, settings)
				},
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "serve MCP over stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := settingsFromCommand(cmd)
					if err != nil {
						return err
					}
					return runStdioMCPWithInternalServer(ctx, settings)
				},
			},
		},
	}
}

// settingsFromCommand reads and validates the flags, then sets up logging
func settingsFromCommand(cmd *cli.Command) (config.Settings, error) {
	settings := config.Default()
	settings.Delay = cmd.Duration("delay")
	settings.Host = cmd.String("host")
	settings.Port = int(cmd.Int("port"))
	settings.Debug = cmd.Bool("debug")
	settings.NgrokEnabled = cmd.Bool("ngrok")
	settings.NgrokAuthToken = cmd.String("ngrok-auth")
	settings.NgrokDomain = cmd.String("ngrok-domain")

	if err := settings.Validate(); err != nil {
		return settings, err
	}

	if settings.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	return settings, nil
}

func runAction(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	settings, err := settingsFromCommand(cmd)
	if err != nil {
		return err
	}
	_, err = runRace(ctx, settings, out)
	return err
}

// runRace plays one race, printing each turn to out. Cancelling ctx stops
// the race.
func runRace(ctx context.Context, settings config.Settings, out io.Writer) (engine.Result, error) {
	opts := append(settings.RaceOptions(), engine.WithRenderer(engine.NewTextRenderer(out)))
	race, err := engine.NewRace(engine.DefaultRules(), opts...)
	if err != nil {
		return engine.Result{}, fmt.Errorf("failed to set up race: %w", err)
	}

	if err := race.Start(); err != nil {
		return engine.Result{}, err
	}

	select {
	case <-race.Done():
	case <-ctx.Done():
		race.Stop()
	}

	result := race.Wait()
	fmt.Fprintln(out, "Game Over.")
	return result, nil
}

// initializeServices wires the session manager and the race service. Races
// publish their turns to hub.
func initializeServices(settings config.Settings, hub *websocket.Hub) (service.RaceService, *session.Manager) {
	opts := []session.Option{session.WithRaceOptions(settings.RaceOptions()...)}
	if hub != nil {
		opts = append(opts, session.WithNotifier(hub))
	}
	sessionManager := session.NewManager(opts...)

	raceService := service.NewRaceService(sessionManager, service.WithDefaultDelay(settings.Delay))
	return raceService, sessionManager
}

// newHTTPHandler combines the API server with the /mcp endpoint
func newHTTPHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// sessionCleanupRoutine periodically forgets finished races nobody looked at
// within the retention window
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, settings config.Settings) {
	if settings.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(settings.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupFinished(settings.RetainFinished); removed > 0 {
				log.Printf("Cleaned up %d finished races", removed)
			}
		}
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp endpoint. If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, settings config.Settings) error {
	log.Printf("Starting %s v%s (mode: server)", AppName, Version)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	raceService, sessionManager := initializeServices(settings, hub)
	defer sessionManager.StopAll()

	addr := settings.Addr()
	apiServer := api.NewServer(raceService, hub)
	mcpClient := mcp.NewClient(settings.BaseURL())
	handler := newHTTPHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: hijacked WebSocket connections manage their own deadlines
		IdleTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sessionCleanupRoutine(ctx, sessionManager, settings)

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?race=<race_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	if settings.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, settings, handler)
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	select {
	case err := <-serverErr:
		return err
	default:
		return nil
	}
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, settings config.Settings, handler http.Handler) {
	if settings.NgrokAuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if settings.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", settings.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(settings.NgrokAuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?race=<race_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// externalAPIAvailable reports whether an API server answers at baseURL
func externalAPIAvailable(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/api")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses an API
// server at the configured address when one answers; otherwise it starts an
// internal one on a random loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, settings config.Settings) error {
	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	baseURL := settings.BaseURL()
	log.Printf("Checking for external API server at %s...", baseURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	if externalAPIAvailable(testClient, baseURL) {
		log.Printf("External API server found at %s, using it for MCP", baseURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		raceService, sessionManager := initializeServices(settings, nil)
		defer sessionManager.StopAll()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go sessionCleanupRoutine(ctx, sessionManager, settings)

		httpServer := &http.Server{Handler: api.NewServer(raceService, nil)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + internalAddr
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
