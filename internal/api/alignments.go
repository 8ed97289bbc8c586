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

package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zachswift615/Listen2-sub000/internal/align"
	"github.com/zachswift615/Listen2-sub000/internal/events"
	"github.com/zachswift615/Listen2-sub000/internal/logging"
	"github.com/zachswift615/Listen2-sub000/internal/messaging"
	"github.com/zachswift615/Listen2-sub000/internal/security"
	"github.com/zachswift615/Listen2-sub000/internal/storage"
)

// AlignmentsHandler handles HTTP requests for forced alignment
type AlignmentsHandler struct {
	aligner *align.Aligner
	store   *storage.AlignmentEventsStore
	nats    *messaging.NATSService
}

// NewAlignmentsHandler creates a new alignments handler. store and nats may
// be nil; alignment then runs without persistence or event publishing.
func NewAlignmentsHandler(aligner *align.Aligner, store *storage.AlignmentEventsStore, nats *messaging.NATSService) *AlignmentsHandler {
	return &AlignmentsHandler{aligner: aligner, store: store, nats: nats}
}

// AlignRequest represents the request for POST /api/align. Audio arrives
// either as base64 PCM16 little-endian bytes or as raw float32 samples.
type AlignRequest struct {
	RequestID  string    `json:"request_id,omitempty"`
	UnitID     int       `json:"unit_id"`
	Transcript string    `json:"transcript"`
	AudioData  string    `json:"audio_data,omitempty"`
	Samples    []float32 `json:"samples,omitempty"`
	SampleRate int       `json:"sample_rate"`
}

// AlignResponse represents the response for POST /api/align
type AlignResponse struct {
	EventUUID string                `json:"event_uuid"`
	RequestID string                `json:"request_id"`
	Result    align.AlignmentResult `json:"result"`
}

// ListAlignmentsResponse represents the response for listing alignment events
type ListAlignmentsResponse struct {
	Events     []*events.AlignmentEvent `json:"events"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int                      `json:"total_pages"`
}

// HandleAlign handles POST /api/align
func (h *AlignmentsHandler) HandleAlign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AlignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Transcript == "" {
		http.Error(w, "transcript is required", http.StatusBadRequest)
		return
	}
	if req.SampleRate <= 0 {
		http.Error(w, "sample_rate must be positive", http.StatusBadRequest)
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	} else if err := security.ValidateRequestID(req.RequestID); err != nil {
		http.Error(w, "invalid request_id", http.StatusBadRequest)
		return
	}

	samples := req.Samples
	if len(samples) == 0 && req.AudioData != "" {
		audioBytes, err := base64.StdEncoding.DecodeString(req.AudioData)
		if err != nil {
			http.Error(w, "audio_data is not valid base64", http.StatusBadRequest)
			return
		}
		samples = PCM16ToFloat32(audioBytes)
	}
	if len(samples) == 0 {
		http.Error(w, "audio_data or samples is required", http.StatusBadRequest)
		return
	}

	event := events.NewAlignmentEvent(req.RequestID, req.UnitID)
	event.SetAudioMetadata(samples, req.SampleRate)

	result, err := h.aligner.Align(r.Context(), samples, req.SampleRate, req.Transcript, req.UnitID)
	if err != nil {
		event.SetError(err)
		h.persist(event)
		h.publish(event, result)
		logging.LogError(err, "Alignment failed",
			zap.String("request_id", req.RequestID),
			zap.Int("unit_id", req.UnitID),
		)
		http.Error(w, "Alignment failed", http.StatusInternalServerError)
		return
	}

	event.SetResult(result, req.Transcript)
	event.SampleRate = req.SampleRate
	h.persist(event)
	h.publish(event, result)

	logging.Sugar.Infow("Alignment completed via API",
		"event_uuid", event.UUID,
		"request_id", req.RequestID,
		"unit_id", req.UnitID,
		"words", len(result.WordTimings),
		"duration", result.TotalDuration,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AlignResponse{
		EventUUID: event.UUID,
		RequestID: req.RequestID,
		Result:    result,
	})
}

// persist stores the event if a store is configured
func (h *AlignmentsHandler) persist(event *events.AlignmentEvent) {
	if h.store == nil {
		return
	}
	if err := h.store.Insert(event); err != nil {
		logging.LogError(err, "Failed to store alignment event",
			zap.String("event_uuid", event.UUID),
		)
	}
}

// publish announces the event if NATS is connected
func (h *AlignmentsHandler) publish(event *events.AlignmentEvent, result align.AlignmentResult) {
	if h.nats == nil || !h.nats.IsConnected() {
		return
	}
	completed := &messaging.AlignmentCompletedEvent{
		RequestID:     event.RequestID,
		EventUUID:     event.UUID,
		UnitID:        event.UnitID,
		TotalDuration: result.TotalDuration,
		WordTimings:   result.WordTimings,
		Success:       event.Success,
		ErrorMessage:  event.ErrorMessage,
		Timestamp:     time.Now().Unix(),
	}
	if err := h.nats.PublishAlignmentCompleted(completed); err != nil {
		logging.LogError(err, "Failed to publish alignment event",
			zap.String("event_uuid", event.UUID),
		)
	}
}

// HandleAlignments handles GET /api/alignments
func (h *AlignmentsHandler) HandleAlignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		http.Error(w, "Event storage not configured", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()

	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100 // Limit maximum page size
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	options := storage.ListOptions{
		RequestID: query.Get("request_id"),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
		SortBy:    query.Get("sort_by"),
		SortOrder: strings.ToUpper(query.Get("sort_order")),
	}

	if unitStr := query.Get("unit_id"); unitStr != "" {
		if unitID, err := strconv.Atoi(unitStr); err == nil {
			options.UnitID = &unitID
		}
	}
	if successStr := query.Get("success"); successStr != "" {
		if success, err := strconv.ParseBool(successStr); err == nil {
			options.Success = &success
		}
	}
	if startTimeStr := query.Get("start_time"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			options.StartTime = &startTime
		}
	}
	if endTimeStr := query.Get("end_time"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			options.EndTime = &endTime
		}
	}

	total, err := h.store.Count(options)
	if err != nil {
		logging.LogError(err, "Failed to count alignment events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	eventsList, err := h.store.List(options)
	if err != nil {
		logging.LogError(err, "Failed to list alignment events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := ListAlignmentsResponse{
		Events:     eventsList,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleAlignmentByID handles GET /api/alignments/{uuid}
func (h *AlignmentsHandler) HandleAlignmentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		http.Error(w, "Event storage not configured", http.StatusServiceUnavailable)
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/alignments/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	eventUUID := pathParts[0]
	event, err := h.store.GetByUUID(eventUUID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Alignment event not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to get alignment event",
			zap.String("uuid", security.SanitizeLogInput(eventUUID)),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// PCM16ToFloat32 converts little-endian 16-bit PCM bytes to float32 samples
// in [-1, 1]
func PCM16ToFloat32(data []byte) []float32 {
	if len(data) == 0 {
		return []float32{}
	}

	dataLen := len(data)
	if dataLen%2 != 0 {
		logging.LogWarn("PCM16ToFloat32: odd number of bytes, dropping last byte",
			zap.Int("original_length", len(data)),
		)
		dataLen--
	}

	samples := make([]float32, dataLen/2)
	for i := 0; i < len(samples); i++ {
		val := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = float32(val) / 32767.0
	}

	return samples
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(param); err == nil {
		return value
	}

	return defaultValue
}
