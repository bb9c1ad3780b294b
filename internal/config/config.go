// Package config handles bridgebot configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (BRIDGEBOT_*)
//  2. Config file (~/.config/bridgebot/config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bridgebot-dev/bridgebot/internal/paths"
)

const (
	// DefaultAgentPath is the agent executable looked up on PATH.
	DefaultAgentPath = "cline"
	// DefaultModel is the model passed to fresh (non-resumed) invocations.
	DefaultModel = "z-ai/glm-5"
	// DefaultTimeoutSeconds bounds a single invocation.
	DefaultTimeoutSeconds = 120
	// DefaultMaxMessageLen is the transport message size bound.
	DefaultMaxMessageLen = 4000
	// DefaultMaxFileMB is the largest file forwarded to the transport.
	DefaultMaxFileMB = 50
)

// Config holds the bridgebot configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	v.SetDefault("agent.path", DefaultAgentPath)
	v.SetDefault("agent.model", DefaultModel)
	v.SetDefault("agent.timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("agent.working_dir", "")
	v.SetDefault("agent.auto_approve", true)
	v.SetDefault("agent.mode", "per-request")
	v.SetDefault("agent.prompt_marker", "> ")
	v.SetDefault("transport.max_message_len", DefaultMaxMessageLen)
	v.SetDefault("transport.max_file_mb", DefaultMaxFileMB)

	if configDir, err := paths.ConfigRoot(); err == nil {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BRIDGEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// Get returns a configuration value, or nil when unset.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool returns a configuration value as bool.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	c.v.Set(key, value)

	configFile, err := paths.ConfigFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return err
	}

	return c.v.WriteConfigAs(configFile)
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// AgentPath returns the configured agent executable path.
func (c *Config) AgentPath() string {
	return c.GetString("agent.path")
}

// Model returns the default model.
func (c *Config) Model() string {
	return c.GetString("agent.model")
}

// Timeout returns the invocation timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.GetInt("agent.timeout_seconds")) * time.Second
}

// WorkingDir returns the configured working directory, defaulting to the
// process working directory.
func (c *Config) WorkingDir() string {
	if dir := c.GetString("agent.working_dir"); dir != "" {
		return dir
	}

	dir, err := os.Getwd()
	if err != nil {
		return "."
	}

	return dir
}

// AutoApprove reports whether the agent runs unattended (--yolo).
func (c *Config) AutoApprove() bool {
	return c.GetBool("agent.auto_approve")
}

// Mode returns the configured invocation mode string.
func (c *Config) Mode() string {
	return c.GetString("agent.mode")
}

// PromptMarker returns the interactive prompt literal used for
// end-of-turn detection in persistent and pty modes.
func (c *Config) PromptMarker() string {
	return c.GetString("agent.prompt_marker")
}

// MaxMessageLen returns the transport message size bound.
func (c *Config) MaxMessageLen() int {
	return c.GetInt("transport.max_message_len")
}

// MaxFileBytes returns the transport file size bound in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.GetInt("transport.max_file_mb")) * 1024 * 1024
}
