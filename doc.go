// File: dmdaksh/confkit/doc.go

// Package confkit provides a thread-safe, type-checked configuration store for
// Go applications with support for multiple sources: TOML, JSON, and YAML
// files, environment variables, command-line arguments, and default values
// with configurable precedence.
//
// Every value carries the type it was stored with. The generic accessors
// enforce that type exactly at retrieval:
//
//	confkit.Set(store, "retries", 3)              // stored as int
//	n, err := confkit.Get[int](store, "retries")  // n == 3
//	_, err = confkit.Get[int64](store, "retries") // *TypeMismatchError
//	_, err = confkit.Get[int](store, "missing")   // *KeyNotFoundError
//
// Features:
//   - Exact type matching on retrieval, with typed errors for mismatches
//   - Multiple configuration sources with customizable precedence
//   - Thread-safe operations using sync.RWMutex
//   - Lenient coercing getters (String, Int64, Bool, Float64) for loader data
//   - Struct-based default seeding and struct scanning with tag support
//   - Environment variable auto-discovery and mapping
//   - Builder pattern for easy initialization
//   - Hot reload via filesystem notifications with change channels
//   - Configuration validation
//
// Quick Start:
//
//	type Config struct {
//	    Server struct {
//	        Host string `toml:"host"`
//	        Port int    `toml:"port"`
//	    } `toml:"server"`
//	}
//
//	defaults := Config{}
//	defaults.Server.Host = "localhost"
//	defaults.Server.Port = 8080
//
//	store, err := confkit.Quick(defaults, "MYAPP_", "config.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, _ := confkit.Get[string](store, "server.host")
//	port, _ := store.Int64("server.port")
//
// Default Precedence (highest to lowest):
//  1. Command-line arguments (--server.port=9090)
//  2. Environment variables (MYAPP_SERVER_PORT=9090)
//  3. Configuration file (config.toml)
//  4. Default values
//
// Custom Precedence:
//
//	store, err := confkit.NewBuilder().
//	    WithDefaults(defaults).
//	    WithSources(
//	        confkit.SourceEnv,     // Environment the highest priority
//	        confkit.SourceCLI,
//	        confkit.SourceFile,
//	        confkit.SourceDefault,
//	    ).
//	    Build()
//
// Thread Safety:
// All operations are thread-safe. The package uses read-write mutexes to allow
// concurrent reads while protecting writes.
package confkit
