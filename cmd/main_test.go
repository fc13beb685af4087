package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfgPkg "github.com/xhad/giavang/pkg/config"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: http\n  addr: \":9999\"\n"), 0644))

	config, err := loadConfig(options{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, cfgPkg.TransportHTTP, config.Server.Transport)
	assert.Equal(t, ":9999", config.Server.Addr)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: smoke-signals\n"), 0644))

	_, err := loadConfig(options{configPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.transport")
}

func TestNewLogger(t *testing.T) {
	config := &cfgPkg.Config{}
	config.Log.Level = "warn"
	assert.Equal(t, zerolog.WarnLevel, newLogger(config).GetLevel())

	config.Log.Level = "not-a-level"
	assert.Equal(t, zerolog.InfoLevel, newLogger(config).GetLevel())
}

func TestNewToolServer(t *testing.T) {
	config := &cfgPkg.Config{}
	config.Source.URL = "https://example.com/gia-vang"
	config.Source.RateLimit = 1

	s, err := newToolServer(config, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, s.MCPServer())
}

func TestRunServeHTTPShutsDownOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: http\n  addr: \"127.0.0.1:0\"\nlog:\n  level: error\n"), 0644))

	config, err := loadConfig(options{configPath: path})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, runServe(ctx, config))
}
