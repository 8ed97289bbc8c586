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

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/zachswift615/Listen2-sub000/internal/align"
	"github.com/zachswift615/Listen2-sub000/internal/config"
	"github.com/zachswift615/Listen2-sub000/internal/logging"
	"github.com/zachswift615/Listen2-sub000/internal/messaging"
	"github.com/zachswift615/Listen2-sub000/internal/model"
	"github.com/zachswift615/Listen2-sub000/internal/server"
	"github.com/zachswift615/Listen2-sub000/internal/storage"
)

func main() {
	// Initialize structured logging
	if err := logging.Initialize(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		logging.LogError(err, "Failed to load configuration")
		log.Fatalf("Failed to load configuration: %v", err)
	}

	vocab, err := align.LoadVocabulary(cfg.Model.LabelsPath)
	if err != nil {
		logging.LogError(err, "Failed to load vocabulary")
		log.Fatalf("Failed to load vocabulary from %s: %v", cfg.Model.LabelsPath, err)
	}

	provider, err := model.NewOnnxProvider(cfg.Model.Path, cfg.Model.SampleRate, cfg.Model.FrameHop, cfg.Model.Threads)
	if err != nil {
		logging.LogError(err, "Failed to load acoustic model")
		log.Fatalf("Failed to load acoustic model from %s: %v", cfg.Model.Path, err)
	}
	defer provider.Close()

	aligner := align.NewAligner(vocab, provider)

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Database.Path})
	if err != nil {
		logging.LogError(err, "Failed to open database")
		log.Fatalf("Failed to open database at %s: %v", cfg.Database.Path, err)
	}
	defer db.Close()

	// NATS is optional; alignment still works over HTTP without it
	natsService, err := messaging.NewNATSService()
	if err == nil {
		if err := natsService.Connect(); err != nil {
			logging.LogError(err, "NATS unavailable, continuing without messaging")
		}
	}

	srv := server.New(cfg, aligner, db, natsService)

	logging.Sugar.Infow("🚀 listen2-align starting",
		"http_port", cfg.Server.Port,
		"model_path", cfg.Model.Path,
		"labels_path", cfg.Model.LabelsPath,
		"db_path", cfg.Database.Path,
		"vocab_size", vocab.Size(),
	)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Sugar.Infow("Received shutdown signal", "signal", sig.String())
		if err := srv.Stop(); err != nil {
			logging.LogError(err, "Shutdown failed")
		}
		if natsService != nil {
			natsService.Close()
		}
	}()

	if err := srv.Start(); err != nil {
		logging.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
