// File: dmdaksh/confkit/example/main.go
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmdaksh/confkit"
	"github.com/sirupsen/logrus"
)

// AppConfig defines the demo configuration structure.
type AppConfig struct {
	Server struct {
		Host     string `toml:"host"`
		Port     int64  `toml:"port"`
		LogLevel string `toml:"log_level"`
	} `toml:"server"`
	Timeout int64 `toml:"timeout"`
}

const configFilePath = "config.toml"

func main() {
	// =========================================================================
	// PART 1: INITIAL SETUP
	// Create a clean config.toml file on disk for our program to read.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 1: Creating initial configuration file...")

	// Defer cleanup to run at the very end of the program.
	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.Remove(configFilePath)
		// Unset the environment variable we use for testing.
		os.Unsetenv("APP_SERVER_PORT")
		log.Printf("Removed %s and unset APP_SERVER_PORT.", configFilePath)
	}()

	initialData := &AppConfig{}
	initialData.Server.Host = "localhost"
	initialData.Server.Port = 8080
	initialData.Server.LogLevel = "info"
	initialData.Timeout = 30

	if err := createInitialConfigFile(initialData); err != nil {
		log.Fatalf("❌ Failed during initial file creation: %v", err)
	}
	log.Printf("✅ Initial configuration saved to %s.", configFilePath)

	// =========================================================================
	// PART 2: BUILDER, TYPED ACCESS, AND TYPED ERRORS
	// This demonstrates source precedence and the exact-type contract.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 2: Building the store and reading typed values...")

	// Set an environment variable to demonstrate source precedence (Env > File).
	os.Setenv("APP_SERVER_PORT", "8888")
	log.Println("   (Set environment variable APP_SERVER_PORT=8888)")

	// Inject an explicit logger so the loaders' debug output is visible.
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	store, err := confkit.NewBuilder().
		WithDefaults(initialData).
		WithFile(configFilePath).
		WithEnvPrefix("APP_").
		WithValidator(func(s *confkit.Store) error {
			return s.Validate("server.host", "server.port")
		}).
		WithLogger(logger).
		Build()
	if err != nil {
		log.Fatalf("❌ Builder failed: %v", err)
	}
	log.Println("✅ Builder finished successfully. Initial values loaded.")

	// Typed reads: the stored type must match the requested type exactly.
	host, err := confkit.Get[string](store, "server.host")
	if err != nil {
		log.Fatalf("❌ Failed to read server.host: %v", err)
	}
	port, err := confkit.Get[int64](store, "server.port")
	if err != nil {
		log.Fatalf("❌ Failed to read server.port: %v", err)
	}
	log.Printf("✅ server.host=%q server.port=%d (env var won over the file)", host, port)

	// GetOrDefault only falls back when the key is absent.
	timeout, _ := confkit.GetOrDefault[int64](store, "timeout", 60)
	retries, _ := confkit.GetOrDefault[int64](store, "retries", 3)
	log.Printf("✅ timeout=%d (stored value), retries=%d (fallback default)", timeout, retries)

	// A present key read with the wrong type fails loudly instead of converting.
	if _, err := confkit.Get[string](store, "server.port"); err != nil {
		var mismatch *confkit.TypeMismatchError
		if errors.As(err, &mismatch) {
			log.Printf("✅ Expected type mismatch: requested %v, stored %v", mismatch.Requested, mismatch.Stored)
		}
	}

	// A missing key is a distinct error condition.
	if _, err := confkit.Get[string](store, "no.such.key"); errors.Is(err, confkit.ErrKeyNotFound) {
		log.Printf("✅ Expected missing key: %v", err)
	}

	printCurrentState(store, "Initial State (Env overrides File)")

	// =========================================================================
	// PART 3: DYNAMIC RELOADING WITH THE WATCHER
	// We'll now modify the file and verify the watcher updates the store.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 3: Testing the file watcher...")

	watchOpts := confkit.WatchOptions{
		Debounce: 100 * time.Millisecond,
	}
	if err := store.AutoUpdateWithOptions(watchOpts); err != nil {
		log.Fatalf("❌ Failed to start watcher: %v", err)
	}
	changes := store.Watch()
	log.Println("✅ Watcher is now active with custom options.")

	// Start a goroutine to modify the file after a short delay.
	var wg sync.WaitGroup
	wg.Add(1)
	go modifyFileOnDisk(&wg)
	log.Println("   (Modifier goroutine dispatched to change file in 1 second...)")

	log.Println("   (Waiting for watcher notification...)")
	select {
	case key := <-changes:
		log.Printf("✅ Watcher detected a change for key: '%s'", key)
		log.Println("   Verifying in-memory store...")

		level, err := confkit.Get[string](store, "server.log_level")
		if err != nil {
			log.Fatalf("❌ Failed to read server.log_level after update: %v", err)
		}
		if level != "debug" {
			log.Fatalf("❌ VERIFICATION FAILED: Expected log_level 'debug', but got '%s'.", level)
		}

		log.Println("✅ VERIFICATION SUCCESSFUL: In-memory store was updated by the watcher.")
		printCurrentState(store, "Final State (Updated by Watcher)")

	case <-time.After(5 * time.Second):
		log.Fatalf("❌ TEST FAILED: Timed out waiting for watcher notification.")
	}

	wg.Wait()
	store.StopAutoUpdate()
}

// createInitialConfigFile is a helper to set up the initial file state.
func createInitialConfigFile(data *AppConfig) error {
	store := confkit.New()
	if err := store.SetDefaults("", data); err != nil {
		return err
	}
	return store.Save(configFilePath)
}

// modifyFileOnDisk simulates an external program changing the config file.
func modifyFileOnDisk(wg *sync.WaitGroup) {
	defer wg.Done()
	time.Sleep(1 * time.Second)
	log.Println("   (Modifier goroutine: now changing file on disk...)")

	modifier := confkit.New()
	if err := modifier.LoadFile(configFilePath); err != nil {
		log.Fatalf("❌ Modifier failed to load file: %v", err)
	}

	confkit.Set(modifier, "server.log_level", "debug")

	if err := modifier.Save(configFilePath); err != nil {
		log.Fatalf("❌ Modifier failed to save file: %v", err)
	}
	log.Println("   (Modifier goroutine: finished.)")
}

// printCurrentState is a helper to display the scanned config state.
func printCurrentState(store *confkit.Store, title string) {
	cfg := &AppConfig{}
	if err := store.Scan("", cfg); err != nil {
		log.Fatalf("❌ Scan failed: %v", err)
	}

	fmt.Println("   --------------------------------------------------")
	fmt.Printf("             %s\n", title)
	fmt.Println("   --------------------------------------------------")
	fmt.Printf("     Server Host:      %s\n", cfg.Server.Host)
	fmt.Printf("     Server Port:      %d\n", cfg.Server.Port)
	fmt.Printf("     Server Log Level: %s\n", cfg.Server.LogLevel)
	fmt.Printf("     Timeout:          %d\n", cfg.Timeout)
	fmt.Println("   --------------------------------------------------")
}
