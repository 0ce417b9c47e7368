// Package config loads the server configuration: built-in defaults, an
// optional YAML file, then environment overrides, in that order.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config is the top-level server configuration.
type Config struct {
	// Transport selects how the MCP server is exposed: "stdio" or "sse".
	Transport string `yaml:"transport"`

	// Host/Port are the HTTP listen address in SSE mode.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// SSEPath and MessagePath are the SSE endpoints in SSE mode.
	SSEPath     string `yaml:"sse_path"`
	MessagePath string `yaml:"message_path"`

	// BaseURL is the upstream schedule proxy.
	BaseURL string `yaml:"base_url"`

	// AssetsURL is the base of the four directory JSON documents.
	AssetsURL string `yaml:"assets_url"`

	// TimeoutSeconds bounds every upstream fetch.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MyEDT is the fallback timetable name used when a caller asks for
	// "my" next class without supplying one.
	MyEDT string `yaml:"my_edt"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Transport:      TransportStdio,
		Host:           "127.0.0.1",
		Port:           8000,
		SSEPath:        "/sse",
		MessagePath:    "/messages/",
		BaseURL:        "https://edt.infuseting.fr",
		AssetsURL:      "https://edt.infuseting.fr/assets/json/",
		TimeoutSeconds: 15,
	}
}

// Load builds the effective configuration. path may be empty, meaning no
// file; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	switch cfg.Transport {
	case TransportStdio, TransportSSE:
	default:
		return nil, fmt.Errorf("unknown transport %q (want %q or %q)", cfg.Transport, TransportStdio, TransportSSE)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = Default().TimeoutSeconds
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Transport, "MCP_TRANSPORT")
	setString(&c.Host, "MCP_HOST")
	setInt(&c.Port, "MCP_PORT")
	setString(&c.SSEPath, "MCP_SSE_PATH")
	setString(&c.MessagePath, "MCP_MESSAGE_PATH")
	setString(&c.BaseURL, "EDT_BASE_URL")
	setString(&c.AssetsURL, "EDT_ASSETS_URL")
	setInt(&c.TimeoutSeconds, "EDT_TIMEOUT")
	setString(&c.MyEDT, "MY_EDT")
}

// Timeout is TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ListenAddr is the SSE listen address.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
