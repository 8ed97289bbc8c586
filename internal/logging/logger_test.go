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

package logging

import (
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	// Save original environment
	originalLevel := os.Getenv("LOG_LEVEL")
	originalFormat := os.Getenv("LOG_FORMAT")
	defer func() {
		_ = os.Setenv("LOG_LEVEL", originalLevel)
		_ = os.Setenv("LOG_FORMAT", originalFormat)
	}()

	tests := []struct {
		name      string
		logLevel  string
		logFormat string
		wantErr   bool
	}{
		{
			name:      "Default values",
			logLevel:  "",
			logFormat: "",
			wantErr:   false,
		},
		{
			name:      "Info level console format",
			logLevel:  "info",
			logFormat: "console",
			wantErr:   false,
		},
		{
			name:      "Debug level JSON format",
			logLevel:  "debug",
			logFormat: "json",
			wantErr:   false,
		},
		{
			name:      "Invalid format defaults to console",
			logLevel:  "info",
			logFormat: "invalid",
			wantErr:   false,
		},
		{
			name:      "Invalid level defaults to info",
			logLevel:  "invalid",
			logFormat: "console",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.logLevel != "" {
				_ = os.Setenv("LOG_LEVEL", tt.logLevel)
			} else {
				_ = os.Unsetenv("LOG_LEVEL")
			}
			if tt.logFormat != "" {
				_ = os.Setenv("LOG_FORMAT", tt.logFormat)
			} else {
				_ = os.Unsetenv("LOG_FORMAT")
			}

			err := Initialize()

			if tt.wantErr {
				if err == nil {
					t.Error("Initialize() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Initialize() unexpected error: %v", err)
				return
			}

			if Logger == nil {
				t.Error("Logger should not be nil after initialization")
			}
			if Sugar == nil {
				t.Error("Sugar should not be nil after initialization")
			}

			Close()
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	// Set up test logger with observer
	core, recorded := observer.New(zapcore.InfoLevel)
	Logger = zap.New(core)
	Sugar = Logger.Sugar()

	defer func() {
		Close()
		Logger = nil
		Sugar = nil
	}()

	t.Run("LogAlignment", func(t *testing.T) {
		LogAlignment(7, "trellis", zap.Int("frames", 120))

		logs := recorded.All()
		if len(logs) == 0 {
			t.Fatal("Expected log entry but got none")
		}

		log := logs[len(logs)-1]
		if log.Message != "Alignment" {
			t.Errorf("Expected message 'Alignment', got %q", log.Message)
		}

		fields := make(map[string]interface{})
		for _, field := range log.Context {
			switch field.Type {
			case zapcore.StringType:
				fields[field.Key] = field.String
			case zapcore.Int64Type:
				fields[field.Key] = field.Integer
			}
		}

		if fields["component"] != "alignment" {
			t.Errorf("Expected component 'alignment', got %v", fields["component"])
		}
		if fields["unit_id"] != int64(7) {
			t.Errorf("Expected unit_id 7, got %v", fields["unit_id"])
		}
		if fields["stage"] != "trellis" {
			t.Errorf("Expected stage 'trellis', got %v", fields["stage"])
		}
		if fields["frames"] != int64(120) {
			t.Errorf("Expected frames 120, got %v", fields["frames"])
		}
	})

	t.Run("LogModelOperation", func(t *testing.T) {
		LogModelOperation("inference", zap.Int("samples", 16000))

		logs := recorded.All()
		log := logs[len(logs)-1]
		if log.Message != "Model operation" {
			t.Errorf("Expected message 'Model operation', got %q", log.Message)
		}

		fields := make(map[string]interface{})
		for _, field := range log.Context {
			if field.Type == zapcore.StringType {
				fields[field.Key] = field.String
			}
		}

		if fields["component"] != "acoustic_model" {
			t.Errorf("Expected component 'acoustic_model', got %v", fields["component"])
		}
		if fields["operation"] != "inference" {
			t.Errorf("Expected operation 'inference', got %v", fields["operation"])
		}
	})

	t.Run("LogNATSEvent", func(t *testing.T) {
		LogNATSEvent("listen2.alignments.completed", "publish", zap.String("message_id", "msg-456"))

		logs := recorded.All()
		log := logs[len(logs)-1]
		if log.Message != "NATS event" {
			t.Errorf("Expected message 'NATS event', got %q", log.Message)
		}

		hasMessaging := false
		hasSubject := false
		hasAction := false
		for _, field := range log.Context {
			switch field.Key {
			case "component":
				if field.String != "messaging" {
					t.Errorf("Expected component 'messaging', got %q", field.String)
				}
				hasMessaging = true
			case "subject":
				if field.String != "listen2.alignments.completed" {
					t.Errorf("Expected subject 'listen2.alignments.completed', got %q", field.String)
				}
				hasSubject = true
			case "action":
				if field.String != "publish" {
					t.Errorf("Expected action 'publish', got %q", field.String)
				}
				hasAction = true
			}
		}

		if !hasMessaging || !hasSubject || !hasAction {
			t.Error("Missing required NATS event fields")
		}
	})

	t.Run("LogDatabaseOperation", func(t *testing.T) {
		LogDatabaseOperation("INSERT", "alignment_events", zap.Int("affected_rows", 1))

		logs := recorded.All()
		log := logs[len(logs)-1]
		if log.Message != "Database operation" {
			t.Errorf("Expected message 'Database operation', got %q", log.Message)
		}

		fields := make(map[string]interface{})
		for _, field := range log.Context {
			if field.Type == zapcore.StringType {
				fields[field.Key] = field.String
			}
		}

		if fields["component"] != "database" {
			t.Errorf("Expected component 'database', got %v", fields["component"])
		}
		if fields["operation"] != "INSERT" {
			t.Errorf("Expected operation 'INSERT', got %v", fields["operation"])
		}
		if fields["table"] != "alignment_events" {
			t.Errorf("Expected table 'alignment_events', got %v", fields["table"])
		}
	})

	t.Run("LogError", func(t *testing.T) {
		testErr := errors.New("test error")
		LogError(testErr, "Something went wrong", zap.String("context", "test"))

		logs := recorded.All()
		log := logs[len(logs)-1]
		if log.Level != zapcore.ErrorLevel {
			t.Errorf("Expected error level, got %v", log.Level)
		}
		if log.Message != "Something went wrong" {
			t.Errorf("Expected message 'Something went wrong', got %q", log.Message)
		}
	})

	t.Run("LogWarn", func(t *testing.T) {
		LogWarn("Warning message", zap.String("warning_type", "deprecation"))

		logs := recorded.All()
		log := logs[len(logs)-1]
		if log.Level != zapcore.WarnLevel {
			t.Errorf("Expected warn level, got %v", log.Level)
		}
		if log.Message != "Warning message" {
			t.Errorf("Expected message 'Warning message', got %q", log.Message)
		}
	})
}

func TestLoggingFunctions_NilLogger(t *testing.T) {
	// Test that logging functions handle nil logger gracefully
	originalLogger := Logger
	originalSugar := Sugar
	defer func() {
		Logger = originalLogger
		Sugar = originalSugar
	}()

	Logger = nil
	Sugar = nil

	t.Run("Functions with nil logger", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Function panicked with nil logger: %v", r)
			}
		}()

		LogAlignment(0, "stage")
		LogModelOperation("operation")
		LogNATSEvent("subject", "action")
		LogDatabaseOperation("op", "table")
		LogError(errors.New("test"), "message")
		LogWarn("warning")
		Sync() // Should not panic
	})
}

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{
			name:         "Environment variable set",
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			envValue:     "env_value",
			expected:     "env_value",
		},
		{
			name:         "Environment variable not set",
			key:          "TEST_ENV_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				_ = os.Setenv(tt.key, tt.envValue)
				defer func() { _ = os.Unsetenv(tt.key) }()
			} else {
				_ = os.Unsetenv(tt.key)
			}

			result := getEnvOrDefault(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvOrDefault(%q, %q) = %q, want %q", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}
