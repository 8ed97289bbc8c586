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

package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/zachswift615/Listen2-sub000/internal/align"
	"github.com/zachswift615/Listen2-sub000/internal/api"
	"github.com/zachswift615/Listen2-sub000/internal/config"
	"github.com/zachswift615/Listen2-sub000/internal/events"
	"github.com/zachswift615/Listen2-sub000/internal/logging"
	"github.com/zachswift615/Listen2-sub000/internal/messaging"
	"github.com/zachswift615/Listen2-sub000/internal/storage"
)

// Server hosts the Listen2 alignment engine over HTTP and NATS
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	aligner *align.Aligner
	db      *storage.Database
	store   *storage.AlignmentEventsStore
	nats    *messaging.NATSService

	alignments   *api.AlignmentsHandler
	natsRequests *nats.Subscription

	// Server context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server around an aligner. db and natsService may be nil;
// the corresponding surfaces report unavailable instead of failing startup.
func New(cfg *config.Config, aligner *align.Aligner, db *storage.Database, natsService *messaging.NATSService) *Server {
	mux := http.NewServeMux()
	ctx, cancel := context.WithCancel(context.Background())

	var store *storage.AlignmentEventsStore
	if db != nil {
		store = storage.NewAlignmentEventsStore(db)
	}

	s := &Server{
		cfg:        cfg,
		mux:        mux,
		aligner:    aligner,
		db:         db,
		store:      store,
		nats:       natsService,
		alignments: api.NewAlignmentsHandler(aligner, store, natsService),
		ctx:        ctx,
		cancel:     cancel,
	}

	s.server = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()

	return s
}

// routes sets up HTTP routing
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/align", s.alignments.HandleAlign)
	s.mux.HandleFunc("/api/alignments", s.alignments.HandleAlignments)
	s.mux.HandleFunc("/api/alignments/", s.alignments.HandleAlignmentByID)

	logging.Sugar.Infow("🌐 HTTP routes configured",
		"align_endpoint", "/api/align",
		"list_endpoint", "/api/alignments",
		"health_endpoint", "/health")
}

// Start starts the HTTP server and the NATS request worker
func (s *Server) Start() error {
	if s.nats != nil && s.nats.IsConnected() {
		sub, err := s.nats.SubscribeToAlignmentRequests(s.handleAlignmentRequest)
		if err != nil {
			return fmt.Errorf("subscribing to alignment requests: %w", err)
		}
		s.natsRequests = sub
	}

	logging.Sugar.Infow("🚀 Listen2 alignment engine starting",
		"http_addr", s.server.Addr,
		"nats_connected", s.nats != nil && s.nats.IsConnected(),
		"storage_enabled", s.store != nil)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down Listen2 alignment engine")

	s.cancel()

	if s.natsRequests != nil {
		if err := s.natsRequests.Unsubscribe(); err != nil {
			logging.LogError(err, "Failed to unsubscribe from alignment requests")
		}
		s.natsRequests = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.db != nil {
		if err := s.db.Checkpoint(); err != nil {
			logging.LogError(err, "Failed to checkpoint database during shutdown")
		}
	}

	logging.Sugar.Infow("✅ Listen2 alignment engine shut down successfully")
	return nil
}

// handleAlignmentRequest processes one alignment request arriving over NATS
func (s *Server) handleAlignmentRequest(req *messaging.AlignmentRequestEvent) {
	audioBytes, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		logging.LogError(err, "Alignment request carries invalid base64 audio",
			zap.String("request_id", req.RequestID),
			zap.Int("unit_id", req.UnitID),
		)
		return
	}
	samples := api.PCM16ToFloat32(audioBytes)

	sampleRate := req.SampleRate
	if sampleRate <= 0 {
		sampleRate = s.aligner.Provider().SampleRate()
	}

	event := events.NewAlignmentEvent(req.RequestID, req.UnitID)
	event.SetAudioMetadata(samples, sampleRate)

	result, err := s.aligner.Align(s.ctx, samples, sampleRate, req.Transcript, req.UnitID)
	if err != nil {
		event.SetError(err)
		logging.LogError(err, "Alignment request failed",
			zap.String("request_id", req.RequestID),
			zap.Int("unit_id", req.UnitID),
		)
	} else {
		event.SetResult(result, req.Transcript)
		event.SampleRate = sampleRate
	}

	if s.store != nil {
		if err := s.store.Insert(event); err != nil {
			logging.LogError(err, "Failed to store alignment event",
				zap.String("event_uuid", event.UUID),
			)
		}
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
	if err := s.nats.PublishAlignmentCompleted(completed); err != nil {
		logging.LogError(err, "Failed to publish alignment completion",
			zap.String("event_uuid", event.UUID),
		)
	}
}

// handleHealth provides system health information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
	}

	if provider := s.aligner.Provider(); provider != nil {
		health["model"] = map[string]interface{}{
			"sample_rate": provider.SampleRate(),
			"frame_hop":   provider.FrameHop(),
		}
	} else {
		health["status"] = "degraded"
		health["degradation_reason"] = "acoustic model not loaded"
	}

	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			health["status"] = "degraded"
			health["database"] = "unreachable"
		} else {
			health["database"] = "ok"
		}
	} else {
		health["database"] = "disabled"
	}

	if s.nats != nil && s.nats.IsConnected() {
		health["nats"] = "connected"
	} else {
		health["nats"] = "disconnected"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
