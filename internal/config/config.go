/*
 * This file is part of Listen2 (https://github.com/zachswift615/Listen2-sub000).
 * Copyright (C) 2025 Zach Swift
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Listen2 alignment service
type Config struct {
	Server   ServerConfig
	Model    ModelConfig
	Database DatabaseConfig
	NATS     NATSConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ModelConfig holds acoustic model configuration
type ModelConfig struct {
	Path       string // Path to the exported forced-alignment ONNX model
	LabelsPath string // Path to the vocabulary file (one label per line)
	SampleRate int    // Sample rate the model expects (Hz)
	FrameHop   int    // Samples advanced between emission frames
	Threads    int    // Inference threads (0 = runtime default)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	URL           string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("LISTEN2_HOST", "0.0.0.0"),
			Port:         getEnvInt("LISTEN2_PORT", 8080),
			ReadTimeout:  getEnvDuration("LISTEN2_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("LISTEN2_WRITE_TIMEOUT", 30*time.Second),
		},
		Model: ModelConfig{
			Path:       getEnvString("ALIGN_MODEL_PATH", "./models/mms-fa.onnx"),
			LabelsPath: getEnvString("ALIGN_LABELS_PATH", "./models/labels.txt"),
			SampleRate: getEnvInt("ALIGN_SAMPLE_RATE", 16000),
			FrameHop:   getEnvInt("ALIGN_FRAME_HOP", 320),
			Threads:    getEnvInt("ALIGN_MODEL_THREADS", 0),
		},
		Database: DatabaseConfig{
			Path: getEnvString("DB_PATH", "./data/listen2-align.db"),
		},
		NATS: NATSConfig{
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Model.Path == "" {
		return fmt.Errorf("model path must be provided")
	}

	if c.Model.LabelsPath == "" {
		return fmt.Errorf("labels path must be provided")
	}

	if c.Model.SampleRate <= 0 {
		return fmt.Errorf("model sample rate must be positive: %d", c.Model.SampleRate)
	}

	if c.Model.FrameHop <= 0 {
		return fmt.Errorf("model frame hop must be positive: %d", c.Model.FrameHop)
	}

	if c.NATS.URL == "" {
		return fmt.Errorf("NATS URL must be provided")
	}

	return nil
}

// FrameRate returns the model's emission frame rate in frames per second.
func (m ModelConfig) FrameRate() float64 {
	return float64(m.SampleRate) / float64(m.FrameHop)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
