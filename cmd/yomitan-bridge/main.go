// Command yomitan-bridge runs the native companion bridge for the Yomitan
// browser extension. Extension contexts connect over WebSocket and exchange
// {action, params} messages with the bridge's message router; changes to the
// options file are pushed back to all connected contexts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/IMakeBotsForYou/yomitan/internal/channel"
	"github.com/IMakeBotsForYou/yomitan/internal/config"
	"github.com/IMakeBotsForYou/yomitan/internal/diag"
	"github.com/IMakeBotsForYou/yomitan/internal/logging"
	"github.com/IMakeBotsForYou/yomitan/internal/message"
	"github.com/IMakeBotsForYou/yomitan/internal/options"
)

const (
	appName    = "Yomitan Bridge"
	appVersion = "0.1.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "Path to TOML config file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	optionsPath := flag.String("options", "", "Options file to watch (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg = applyOverrides(cfg, *listenAddr, *optionsPath)

	logging.Setup(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	log := logging.ForComponent(logging.CompBridge)

	srv := channel.NewServer()
	router := message.NewRouter(srv, message.WithLocation(func() string {
		return cfg.BridgeURL
	}))

	reporter := diag.NewReporter(appName, appVersion, diag.WithOrigin(func() string {
		return cfg.BridgeURL
	}))
	router.On(message.EventOrphaned, func(details any) {
		if d, ok := details.(message.OrphanedDetails); ok && d.Err != nil {
			reporter.LogError(d.Err, false)
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.OptionsPath != "" {
		watcher, err := options.NewWatcher(cfg.OptionsPath, func(source string) {
			router.Trigger(message.EventOptionsUpdate, message.OptionsUpdateDetails{Source: source})
			srv.Broadcast(message.ActionOptionsUpdate, map[string]string{"source": source})
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("options_watcher_stopped", slog.String("error", err.Error()))
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newHandler(srv),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	fmt.Printf("%s: %s\n", appName, cfg.BridgeURL)
	fmt.Println("Press Ctrl+C to stop.")
	log.Info("bridge_started",
		slog.String("listen", cfg.ListenAddr),
		slog.String("bridge_url", cfg.BridgeURL))

	select {
	case <-ctx.Done():
		log.Info("bridge_stopping")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			// The serving context is gone; tell local subscribers before
			// exiting.
			router.TriggerOrphaned(err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// newHandler builds the HTTP mux: the WebSocket channel endpoint plus a
// health probe.
func newHandler(srv *channel.Server) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":       true,
			"version":  appVersion,
			"contexts": srv.ClientCount(),
		})
	})
	return mux
}

// applyOverrides layers command-line flags over the loaded config. A listen
// override re-derives the bridge URL unless one was set explicitly in the
// config file.
func applyOverrides(cfg config.Config, listenAddr, optionsPath string) config.Config {
	if listenAddr != "" {
		derived := cfg.BridgeURL == "ws://"+cfg.ListenAddr+"/ws"
		cfg.ListenAddr = listenAddr
		if derived {
			cfg.BridgeURL = "ws://" + listenAddr + "/ws"
		}
	}
	if optionsPath != "" {
		cfg.OptionsPath = optionsPath
	}
	return cfg
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "yomitan-bridge.toml"
	}
	return filepath.Join(dir, "yomitan-bridge", "config.toml")
}
