// File: dmdaksh/confkit/env_test.go
package confkit_test

import (
	"testing"

	"github.com/dmdaksh/confkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnvironmentVariables exercises env loading through the public API
func TestEnvironmentVariables(t *testing.T) {
	t.Run("Basic Environment Loading", func(t *testing.T) {
		t.Setenv("EXTTEST_SERVER_HOST", "env-host")
		t.Setenv("EXTTEST_SERVER_PORT", "9999")
		t.Setenv("EXTTEST_DEBUG", "true")

		store := confkit.New()
		confkit.Set(store, "server.host", "default-host")
		confkit.Set(store, "server.port", int64(8080))
		confkit.Set(store, "debug", false)

		require.NoError(t, store.LoadEnv("EXTTEST_"))

		host, err := confkit.Get[string](store, "server.host")
		require.NoError(t, err)
		assert.Equal(t, "env-host", host)

		port, err := store.Int64("server.port")
		require.NoError(t, err)
		assert.Equal(t, int64(9999), port)

		debug, err := confkit.Get[bool](store, "debug")
		require.NoError(t, err)
		assert.True(t, debug)
	})

	t.Run("Custom Environment Transform", func(t *testing.T) {
		t.Setenv("PORT", "3000")
		t.Setenv("DATABASE_URL", "postgres://localhost/test")

		store := confkit.New()
		confkit.Set(store, "server.port", int64(8080))
		confkit.Set(store, "database.url", "sqlite://memory")

		opts := confkit.LoadOptions{
			Sources: []confkit.Source{confkit.SourceEnv, confkit.SourceDefault},
			EnvTransform: func(key string) string {
				mapping := map[string]string{
					"server.port":  "PORT",
					"database.url": "DATABASE_URL",
				}
				return mapping[key]
			},
		}

		require.NoError(t, store.LoadWithOptions("", nil, opts))

		port, err := store.Int64("server.port")
		require.NoError(t, err)
		assert.Equal(t, int64(3000), port)

		dbURL, err := confkit.Get[string](store, "database.url")
		require.NoError(t, err)
		assert.Equal(t, "postgres://localhost/test", dbURL)
	})

	t.Run("Environment Discovery", func(t *testing.T) {
		t.Setenv("EXTAPP_SERVER_HOST", "discovered")
		t.Setenv("EXTAPP_SERVER_PORT", "4444")
		t.Setenv("EXTAPP_UNSEEDED", "ignored")

		store := confkit.New()
		confkit.Set(store, "server.host", "default")
		confkit.Set(store, "server.port", int64(8080))
		confkit.Set(store, "server.timeout", int64(30))

		discovered := store.DiscoverEnv("EXTAPP_")

		assert.Len(t, discovered, 2)
		assert.Equal(t, "EXTAPP_SERVER_HOST", discovered["server.host"])
		assert.Equal(t, "EXTAPP_SERVER_PORT", discovered["server.port"])
		assert.NotContains(t, discovered, "unseeded")
	})

	t.Run("Environment Whitelist", func(t *testing.T) {
		t.Setenv("SECRET_API_KEY", "secret-value")
		t.Setenv("SECRET_DATABASE_PASSWORD", "db-pass")
		t.Setenv("SECRET_SERVER_PORT", "5555")

		store := confkit.New()
		confkit.Set(store, "api.key", "")
		confkit.Set(store, "database.password", "")
		confkit.Set(store, "server.port", int64(8080))

		opts := confkit.LoadOptions{
			Sources:   []confkit.Source{confkit.SourceEnv, confkit.SourceDefault},
			EnvPrefix: "SECRET_",
			EnvWhitelist: map[string]bool{
				"api.key":           true,
				"database.password": true,
				// server.port is NOT whitelisted
			},
		}

		require.NoError(t, store.LoadWithOptions("", nil, opts))

		apiKey, err := confkit.Get[string](store, "api.key")
		require.NoError(t, err)
		assert.Equal(t, "secret-value", apiKey)

		dbPass, err := confkit.Get[string](store, "database.password")
		require.NoError(t, err)
		assert.Equal(t, "db-pass", dbPass)

		// Non-whitelisted keys keep their defaults
		port, err := confkit.Get[int64](store, "server.port")
		require.NoError(t, err)
		assert.Equal(t, int64(8080), port)
	})

	t.Run("Type Parsing from Environment", func(t *testing.T) {
		t.Setenv("TYPES_STRING", "hello world")
		t.Setenv("TYPES_INT", "42")
		t.Setenv("TYPES_FLOAT", "3.14159")
		t.Setenv("TYPES_BOOL_TRUE", "true")
		t.Setenv("TYPES_BOOL_FALSE", "false")
		t.Setenv("TYPES_QUOTED", `"quoted string"`)

		store := confkit.New()
		confkit.Set(store, "string", "")
		confkit.Set(store, "int", int64(0))
		confkit.Set(store, "float", 0.0)
		confkit.Set(store, "bool.true", false)
		confkit.Set(store, "bool.false", true)
		confkit.Set(store, "quoted", "")

		require.NoError(t, store.LoadEnv("TYPES_"))

		s, err := confkit.Get[string](store, "string")
		require.NoError(t, err)
		assert.Equal(t, "hello world", s)

		i, err := confkit.Get[int64](store, "int")
		require.NoError(t, err)
		assert.Equal(t, int64(42), i)

		f, err := confkit.Get[float64](store, "float")
		require.NoError(t, err)
		assert.Equal(t, 3.14159, f)

		bt, err := confkit.Get[bool](store, "bool.true")
		require.NoError(t, err)
		assert.True(t, bt)

		bf, err := confkit.Get[bool](store, "bool.false")
		require.NoError(t, err)
		assert.False(t, bf)

		q, err := confkit.Get[string](store, "quoted")
		require.NoError(t, err)
		assert.Equal(t, "quoted string", q)
	})

	t.Run("Typed Access After Env Load", func(t *testing.T) {
		t.Setenv("MIX_LIMIT", "250")

		store := confkit.New()
		confkit.Set(store, "limit", 100)

		require.NoError(t, store.LoadEnv("MIX_"))

		// The env loader stores what it parsed, so the original static type
		// no longer matches
		_, err := confkit.Get[int](store, "limit")
		assert.ErrorIs(t, err, confkit.ErrTypeMismatch)

		limit, err := confkit.Get[int64](store, "limit")
		require.NoError(t, err)
		assert.Equal(t, int64(250), limit)
	})
}
