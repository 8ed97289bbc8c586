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
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidRequestID is returned when a request ID format is invalid
	ErrInvalidRequestID = errors.New("invalid request ID")

	// requestIDPattern validates request IDs to only allow safe characters
	requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SanitizeLogInput removes newline characters to prevent log injection attacks
// This function should be used for all user-controlled data before logging
func SanitizeLogInput(input string) string {
	sanitized := strings.ReplaceAll(input, "\n", "")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")
	return sanitized
}

// ValidateRequestID ensures that a caller-supplied request ID contains only
// safe characters and cannot be used for path traversal. Only allows
// alphanumeric ASCII characters, dashes, and underscores.
func ValidateRequestID(requestID string) error {
	if requestID == "" {
		return ErrInvalidRequestID
	}

	if strings.Contains(requestID, "/") || strings.Contains(requestID, "\\") || strings.Contains(requestID, "..") {
		return ErrInvalidRequestID
	}

	if !requestIDPattern.MatchString(requestID) {
		return ErrInvalidRequestID
	}

	return nil
}
