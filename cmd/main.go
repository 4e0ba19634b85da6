// File: dmdaksh/confkit/cmd/main.go
// Long-running demo: watches config.toml and reports changes until interrupted.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmdaksh/confkit"
)

// AppConfig represents our application configuration
type AppConfig struct {
	Server struct {
		Host string `toml:"host"`
		Port int64  `toml:"port"`
	} `toml:"server"`

	Database struct {
		URL         string        `toml:"url"`
		MaxConns    int64         `toml:"max_conns"`
		IdleTimeout time.Duration `toml:"idle_timeout"`
	} `toml:"database"`

	Features struct {
		RateLimit bool `toml:"rate_limit"`
		Caching   bool `toml:"caching"`
	} `toml:"features"`
}

func main() {
	// Create configuration with defaults
	defaults := &AppConfig{}
	defaults.Server.Host = "localhost"
	defaults.Server.Port = 8080
	defaults.Database.MaxConns = 10
	defaults.Database.IdleTimeout = 30 * time.Second

	// Build configuration
	store, err := confkit.NewBuilder().
		WithDefaults(defaults).
		WithEnvPrefix("MYAPP_").
		WithFile("config.toml").
		Build()
	if err != nil && !errors.Is(err, confkit.ErrConfigNotFound) {
		log.Fatal("Failed to load config:", err)
	}

	// Enable auto-update with custom options
	watchOpts := confkit.WatchOptions{
		Debounce:      200 * time.Millisecond, // Quick response
		MaxWatchers:   10,
		ReloadTimeout: 2 * time.Second,
	}
	if err := store.AutoUpdateWithOptions(watchOpts); err != nil {
		log.Fatal("Failed to start watcher:", err)
	}
	defer store.StopAutoUpdate()

	// Start watching for changes
	changes := store.Watch()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Log initial configuration
	logConfig(store)

	// Watch for changes
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case key := <-changes:
				handleConfigChange(store, key)
			}
		}
	}()

	// Main loop
	log.Println("Watching for configuration changes. Edit config.toml to see updates.")
	log.Println("Press Ctrl+C to exit.")

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Println("Shutting down...")
			return

		case <-ticker.C:
			// Periodic health check
			port, _ := store.Int64("server.port")
			log.Printf("Server still running on port %d", port)
		}
	}
}

func handleConfigChange(store *confkit.Store, key string) {
	switch {
	case key == "file_deleted":
		log.Println("⚠️  Config file was deleted!")
	case key == "reload_timeout":
		log.Println("⚠️  Config reload timed out")
	case strings.HasPrefix(key, "reload_error:"):
		log.Printf("❌ Failed to reload config: %s", strings.TrimPrefix(key, "reload_error:"))
	default:
		// Normal configuration change
		value, _ := store.Value(key)
		log.Printf("📝 Config changed: %s = %v", key, value)

		// Handle specific changes
		switch key {
		case "server.port":
			log.Println("Port changed - server restart required")
		case "database.url":
			log.Println("Database URL changed - reconnection required")
		case "features.rate_limit":
			if enabled, _ := store.Bool("features.rate_limit"); enabled {
				log.Println("Rate limiting enabled")
			} else {
				log.Println("Rate limiting disabled")
			}
		}
	}
}

func logConfig(store *confkit.Store) {
	host, _ := store.String("server.host")
	port, _ := store.Int64("server.port")
	dbURL, _ := store.String("database.url")
	maxConns, _ := store.Int64("database.max_conns")
	rateLimit, _ := store.Bool("features.rate_limit")
	caching, _ := store.Bool("features.caching")

	log.Println("Current configuration:")
	log.Printf("  Server: %s:%d", host, port)
	log.Printf("  Database: %s (max_conns=%d)", dbURL, maxConns)
	log.Printf("  Features: rate_limit=%v, caching=%v", rateLimit, caching)
}

// Example config.toml file:
/*
[server]
host = "localhost"
port = 8080

[database]
url = "postgres://localhost/myapp"
max_conns = 25
idle_timeout = "30s"

[features]
rate_limit = true
caching = false
*/
