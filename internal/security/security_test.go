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

package security

import (
	"strings"
	"testing"
)

func TestSanitizeLogInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Clean input",
			input:    "normal log message",
			expected: "normal log message",
		},
		{
			name:     "Single newline",
			input:    "line1\nline2",
			expected: "line1line2",
		},
		{
			name:     "CRLF sequence",
			input:    "line1\r\nline2",
			expected: "line1line2",
		},
		{
			name:     "Log injection attempt",
			input:    "user_input\nERROR: fake error message",
			expected: "user_inputERROR: fake error message",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Only newlines",
			input:    "\n\r\n\r",
			expected: "",
		},
		{
			name:     "Unicode characters preserved",
			input:    "Hello 世界\nSecond line",
			expected: "Hello 世界Second line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeLogInput(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeLogInput(%q) = %q, want %q", tt.input, result, tt.expected)
			}

			// Verify no newlines remain
			if strings.Contains(result, "\n") || strings.Contains(result, "\r") {
				t.Errorf("SanitizeLogInput(%q) still contains line breaks: %q", tt.input, result)
			}
		})
	}
}

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
		wantErr   bool
	}{
		{
			name:      "Valid alphanumeric",
			requestID: "req-123_abc",
			wantErr:   false,
		},
		{
			name:      "Valid UUID style",
			requestID: "f47ac10b-58cc-4372-a567-0e02b2c3d479",
			wantErr:   false,
		},
		{
			name:      "Empty ID",
			requestID: "",
			wantErr:   true,
		},
		{
			name:      "Path separator",
			requestID: "req/123",
			wantErr:   true,
		},
		{
			name:      "Parent directory reference",
			requestID: "..secret",
			wantErr:   true,
		},
		{
			name:      "Whitespace",
			requestID: "req 123",
			wantErr:   true,
		},
		{
			name:      "Newline injection",
			requestID: "req\n123",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestID(tt.requestID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequestID(%q) error = %v, wantErr %v", tt.requestID, err, tt.wantErr)
			}
		})
	}
}
