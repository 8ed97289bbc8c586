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

package events

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
	"unsafe"

	"github.com/google/uuid"

	"github.com/zachswift615/Listen2-sub000/internal/align"
)

// AlignmentEvent represents one completed (or failed) forced-alignment job
// with full traceability
type AlignmentEvent struct {
	// Core identification
	UUID      string    `json:"uuid" db:"uuid"`
	RequestID string    `json:"request_id" db:"request_id"`
	UnitID    int       `json:"unit_id" db:"unit_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Audio metadata
	AudioHash     string  `json:"audio_hash" db:"audio_hash"`
	AudioDuration float64 `json:"audio_duration" db:"audio_duration"`
	SampleRate    int     `json:"sample_rate" db:"sample_rate"`

	// Alignment results
	Transcript  string             `json:"transcript" db:"transcript"`
	WordCount   int                `json:"word_count" db:"word_count"`
	WordTimings []align.WordTiming `json:"word_timings" db:"word_timings"`

	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
	Success        bool   `json:"success" db:"success"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`
}

// NewAlignmentEvent creates a new AlignmentEvent with generated UUID and
// current timestamp
func NewAlignmentEvent(requestID string, unitID int) *AlignmentEvent {
	return &AlignmentEvent{
		UUID:      uuid.New().String(),
		RequestID: requestID,
		UnitID:    unitID,
		Timestamp: time.Now(),
		Success:   true,
	}
}

// SetAudioMetadata sets audio-related metadata for the event
func (ae *AlignmentEvent) SetAudioMetadata(audioData []float32, sampleRate int) {
	ae.AudioHash = ae.calculateAudioHash(audioData)
	ae.AudioDuration = float64(len(audioData)) / float64(sampleRate)
	ae.SampleRate = sampleRate
}

// SetResult records a successful alignment and marks processing as complete
func (ae *AlignmentEvent) SetResult(result align.AlignmentResult, transcript string) {
	ae.Transcript = transcript
	ae.WordTimings = result.WordTimings
	ae.WordCount = len(result.WordTimings)
	ae.AudioDuration = result.TotalDuration
	ae.ProcessingTime = time.Since(ae.Timestamp).Milliseconds()
}

// SetError marks the event as failed with an error message
func (ae *AlignmentEvent) SetError(err error) {
	ae.Success = false
	ae.ErrorMessage = err.Error()
	ae.ProcessingTime = time.Since(ae.Timestamp).Milliseconds()
}

// calculateAudioHash generates a SHA-256 hash of the audio data for duplicate detection
func (ae *AlignmentEvent) calculateAudioHash(audioData []float32) string {
	hasher := sha256.New()

	// Convert float32 slice to bytes for hashing
	for _, sample := range audioData {
		bytes := (*[4]byte)(unsafe.Pointer(&sample))[:]
		hasher.Write(bytes)
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

// WordTimingsJSON returns word timings as JSON string for database storage
func (ae *AlignmentEvent) WordTimingsJSON() (string, error) {
	if ae.WordTimings == nil {
		return "[]", nil
	}

	data, err := json.Marshal(ae.WordTimings)
	if err != nil {
		return "", fmt.Errorf("failed to marshal word timings: %w", err)
	}

	return string(data), nil
}

// SetWordTimingsFromJSON parses JSON string and sets word timings
func (ae *AlignmentEvent) SetWordTimingsFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "[]" {
		ae.WordTimings = []align.WordTiming{}
		ae.WordCount = 0
		return nil
	}

	var timings []align.WordTiming
	if err := json.Unmarshal([]byte(jsonStr), &timings); err != nil {
		return fmt.Errorf("failed to unmarshal word timings JSON: %w", err)
	}

	ae.WordTimings = timings
	ae.WordCount = len(timings)
	return nil
}

// IsValid performs basic validation on the alignment event
func (ae *AlignmentEvent) IsValid() error {
	if ae.UUID == "" {
		return fmt.Errorf("UUID is required")
	}

	if ae.RequestID == "" {
		return fmt.Errorf("requestID is required")
	}

	if ae.UnitID < 0 {
		return fmt.Errorf("unitID must not be negative")
	}

	if ae.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	if ae.AudioDuration < 0 {
		return fmt.Errorf("audio duration must not be negative")
	}

	return nil
}

// String returns a human-readable representation of the alignment event
func (ae *AlignmentEvent) String() string {
	return fmt.Sprintf("AlignmentEvent{UUID: %s, UnitID: %d, Transcript: %q, Words: %d, Duration: %.2fs, Success: %t}",
		ae.UUID, ae.UnitID, ae.Transcript, ae.WordCount, ae.AudioDuration, ae.Success)
}
