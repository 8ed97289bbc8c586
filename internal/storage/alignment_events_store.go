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

package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/zachswift615/Listen2-sub000/internal/events"
)

// AlignmentEventsStore handles database operations for alignment events
type AlignmentEventsStore struct {
	db *Database
}

// NewAlignmentEventsStore creates a new alignment events store
func NewAlignmentEventsStore(db *Database) *AlignmentEventsStore {
	return &AlignmentEventsStore{db: db}
}

// Insert stores a new alignment event in the database
func (s *AlignmentEventsStore) Insert(event *events.AlignmentEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid alignment event: %w", err)
	}

	timingsJSON, err := event.WordTimingsJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize word timings: %w", err)
	}

	query := `
		INSERT INTO alignment_events (
			uuid, request_id, unit_id, timestamp,
			audio_hash, audio_duration, sample_rate,
			transcript, word_count, word_timings,
			processing_time_ms, success, error_message
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?, ?
		)`

	_, err = s.db.DB().Exec(query,
		event.UUID, event.RequestID, event.UnitID, event.Timestamp,
		event.AudioHash, event.AudioDuration, event.SampleRate,
		event.Transcript, event.WordCount, timingsJSON,
		event.ProcessingTime, event.Success, event.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert alignment event: %w", err)
	}

	log.Printf("📝 Stored alignment event: %s (unit %d, %d words)",
		event.UUID, event.UnitID, event.WordCount)
	return nil
}

// GetByUUID retrieves an alignment event by its UUID
func (s *AlignmentEventsStore) GetByUUID(uuid string) (*events.AlignmentEvent, error) {
	query := selectColumns + ` WHERE uuid = ?`

	row := s.db.DB().QueryRow(query, uuid)
	return s.scanAlignmentEvent(row)
}

// GetByAudioHash finds events with the same audio hash (potential duplicates)
func (s *AlignmentEventsStore) GetByAudioHash(audioHash string) ([]*events.AlignmentEvent, error) {
	query := selectColumns + ` WHERE audio_hash = ? ORDER BY timestamp DESC`

	rows, err := s.db.DB().Query(query, audioHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query by audio hash: %w", err)
	}
	defer rows.Close()

	return s.collectEvents(rows)
}

// List retrieves alignment events with pagination and filtering
func (s *AlignmentEventsStore) List(options ListOptions) ([]*events.AlignmentEvent, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alignment events: %w", err)
	}
	defer rows.Close()

	return s.collectEvents(rows)
}

// Count returns the total number of alignment events matching the filter
func (s *AlignmentEventsStore) Count(options ListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRow(countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alignment events: %w", err)
	}

	return count, nil
}

// GetRecentByRequest retrieves recent events for a specific request
func (s *AlignmentEventsStore) GetRecentByRequest(requestID string, limit int) ([]*events.AlignmentEvent, error) {
	options := ListOptions{
		RequestID: requestID,
		Limit:     limit,
	}
	return s.List(options)
}

// Delete removes an alignment event by UUID
func (s *AlignmentEventsStore) Delete(uuid string) error {
	result, err := s.db.DB().Exec("DELETE FROM alignment_events WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete alignment event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("alignment event not found: %s", uuid)
	}

	log.Printf("🗑️  Deleted alignment event: %s", uuid)
	return nil
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	// Filtering
	RequestID string
	UnitID    *int
	Success   *bool // nil = all, true = success only, false = errors only
	StartTime *time.Time
	EndTime   *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "audio_duration", "processing_time_ms"
	SortOrder string // "ASC", "DESC"
}

const selectColumns = `
	SELECT uuid, request_id, unit_id, timestamp,
		   audio_hash, audio_duration, sample_rate,
		   transcript, word_count, word_timings,
		   processing_time_ms, success, error_message
	FROM alignment_events`

// sortColumns whitelists the columns ListOptions.SortBy may reference
var sortColumns = map[string]bool{
	"timestamp":          true,
	"audio_duration":     true,
	"processing_time_ms": true,
	"word_count":         true,
	"unit_id":            true,
}

// buildListQuery constructs the SQL query based on ListOptions
func (s *AlignmentEventsStore) buildListQuery(options ListOptions) (string, []interface{}) {
	query := selectColumns + " WHERE 1=1"

	var args []interface{}

	if options.RequestID != "" {
		query += " AND request_id = ?"
		args = append(args, options.RequestID)
	}

	if options.UnitID != nil {
		query += " AND unit_id = ?"
		args = append(args, *options.UnitID)
	}

	if options.Success != nil {
		query += " AND success = ?"
		args = append(args, *options.Success)
	}

	if options.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.StartTime)
	}

	if options.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, options.EndTime)
	}

	sortBy := options.SortBy
	if !sortColumns[sortBy] {
		sortBy = "timestamp"
	}

	sortOrder := "DESC"
	if options.SortOrder == "ASC" {
		sortOrder = "ASC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

// collectEvents drains rows into a slice of alignment events
func (s *AlignmentEventsStore) collectEvents(rows *sql.Rows) ([]*events.AlignmentEvent, error) {
	var eventsList []*events.AlignmentEvent
	for rows.Next() {
		event, err := s.scanAlignmentEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alignment event: %w", err)
		}
		eventsList = append(eventsList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alignment events: %w", err)
	}

	return eventsList, nil
}

// scanAlignmentEvent scans a database row into an AlignmentEvent struct
func (s *AlignmentEventsStore) scanAlignmentEvent(scanner interface{}) (*events.AlignmentEvent, error) {
	var event events.AlignmentEvent
	var timingsJSON string

	var row interface {
		Scan(dest ...interface{}) error
	}

	switch v := scanner.(type) {
	case *sql.Row:
		row = v
	case *sql.Rows:
		row = v
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	err := row.Scan(
		&event.UUID, &event.RequestID, &event.UnitID, &event.Timestamp,
		&event.AudioHash, &event.AudioDuration, &event.SampleRate,
		&event.Transcript, &event.WordCount, &timingsJSON,
		&event.ProcessingTime, &event.Success, &event.ErrorMessage,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("alignment event not found")
		}
		return nil, err
	}

	if err := event.SetWordTimingsFromJSON(timingsJSON); err != nil {
		return nil, fmt.Errorf("failed to parse word timings JSON: %w", err)
	}

	return &event, nil
}
