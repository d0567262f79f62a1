// Package audit provides PostgreSQL-backed storage for moderation
// events. Every verdict (input and output side) is recorded with its full
// intermediate-stage data so reviewers can separate "blocked because the
// content was bad" from "blocked because we couldn't check".
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage names a moderation pipeline.
const (
	StageInput  = "input"
	StageOutput = "output"
)

// Event is a single moderation decision to be persisted.
type Event struct {
	ID                 string          // assigned on insert when empty
	RequesterID        string          // optional requester identity
	Context            string          // call-site tag ("question", "chat", ...)
	Stage              string          // StageInput or StageOutput
	Allowed            bool
	Flagged            bool
	Severity           string
	Reason             string
	ChristianEducation bool
	FailClosed         bool            // classifier outage produced this verdict
	Data               json.RawMessage // full moderation_data bag
}

// Store manages moderation events in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a new audit store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts a moderation event. The stage is validated against the
// CHECK constraint on the table before insertion; an ID is generated when
// the caller did not supply one.
func (s *Store) Record(ctx context.Context, event *Event) error {
	if event.Stage != StageInput && event.Stage != StageOutput {
		return fmt.Errorf("audit: invalid stage %q", event.Stage)
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	const query = `
		INSERT INTO moderation_events
			(id, requester_id, context, stage, allowed, flagged, severity,
			 reason, christian_education, fail_closed, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.RequesterID,
		event.Context,
		event.Stage,
		event.Allowed,
		event.Flagged,
		event.Severity,
		event.Reason,
		event.ChristianEducation,
		event.FailClosed,
		[]byte(event.Data),
	)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// CountRecentFlags returns the number of flagged events for a requester
// within the given time window. Useful for reviewer escalation (e.g.
// repeated policy violations trigger a manual review).
func (s *Store) CountRecentFlags(ctx context.Context, requesterID string, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM moderation_events
		WHERE requester_id = $1
		  AND flagged = TRUE
		  AND created_at >= NOW() - $2::interval`

	var count int
	err := s.db.QueryRowContext(ctx, query, requesterID, window.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("audit: count recent flags: %w", err)
	}
	return count, nil
}
