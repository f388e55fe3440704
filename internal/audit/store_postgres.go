package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	id "rosterd/pkg/domain"
	txcontext "rosterd/pkg/platform/tx"
)

// PostgresStore persists audit events to the audit_events table. Appends
// join the caller's transaction when one is in the context so the audit row
// commits with the mutation it describes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO audit_events (id, created_at, actor_id, person_id, action, reason, details, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.ActorID,
		int64(event.PersonID),
		string(event.Action),
		event.Reason,
		pq.Array(event.Details),
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPerson(ctx context.Context, personID id.PersonID) ([]Event, error) {
	const query = `
		SELECT id, created_at, actor_id, person_id, action, reason, details, request_id
		FROM audit_events
		WHERE person_id = $1
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, int64(personID))
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	const query = `
		SELECT id, created_at, actor_id, person_id, action, reason, details, request_id
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	return s.list(ctx, query, limit)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var personID int64
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ActorID, &personID, &action, &e.Reason, pq.Array(&e.Details), &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.PersonID = id.PersonID(personID)
		e.Action = Action(action)
		events = append(events, e)
	}
	return events, rows.Err()
}
