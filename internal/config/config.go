package config

import (
	"time"

	"duplex/internal/logging"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Realtime RealtimeConfig `json:"realtime" yaml:"realtime"`
	Uploads  UploadsConfig  `json:"uploads" yaml:"uploads"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Logging  logging.Config `json:"logging" yaml:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// RealtimeConfig tunes the connection hub.
type RealtimeConfig struct {
	// SendTimeout bounds a single push to one client during fan-out.
	SendTimeout time.Duration `json:"send_timeout" yaml:"send_timeout"`
	// SendBufferSize is the per-connection outbound queue length.
	SendBufferSize int `json:"send_buffer_size" yaml:"send_buffer_size"`
}

// UploadsConfig governs file sharing.
type UploadsConfig struct {
	Dir         string `json:"dir" yaml:"dir"`
	MaxFileSize int64  `json:"max_file_size" yaml:"max_file_size"`
}

// StorageConfig locates the metadata store.
type StorageConfig struct {
	Path string `json:"path" yaml:"path"`
	// InMemory keeps the store off disk, for tests and local runs.
	InMemory bool `json:"in_memory" yaml:"in_memory"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Realtime: RealtimeConfig{
			SendTimeout:    5 * time.Second,
			SendBufferSize: 256,
		},
		Uploads: UploadsConfig{
			Dir:         "uploads",
			MaxFileSize: 10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Path: "data/files",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigError("server.port", "invalid port number")
	}

	if c.Server.ReadTimeout < 0 {
		return NewConfigError("server.read_timeout", "timeout cannot be negative")
	}

	if c.Server.WriteTimeout < 0 {
		return NewConfigError("server.write_timeout", "timeout cannot be negative")
	}

	if c.Realtime.SendTimeout <= 0 {
		return NewConfigError("realtime.send_timeout", "send timeout must be positive")
	}

	if c.Realtime.SendBufferSize <= 0 {
		return NewConfigError("realtime.send_buffer_size", "buffer size must be positive")
	}

	if c.Uploads.MaxFileSize <= 0 {
		return NewConfigError("uploads.max_file_size", "size limit must be positive")
	}

	if c.Uploads.Dir == "" {
		return NewConfigError("uploads.dir", "upload directory is required")
	}

	if !c.Storage.InMemory && c.Storage.Path == "" {
		return NewConfigError("storage.path", "storage path is required")
	}

	return nil
}
