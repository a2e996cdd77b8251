// Package store persists seat registry snapshots across restarts.
//
// The store holds exactly one row per seat: the current record, written
// at shutdown (or checkpoint) and read back at startup. It is not an
// event log and keeps no history - policy evaluation needs none.
//
// Derived fields are deliberately not persisted. In particular the
// remaining-seconds projection is recomputed from the stored deadline
// after restore, and a reserved seat restored without a deadline goes
// through the engine's lazy seeding exactly as documented.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/seatwatch/seatwatch/internal/registry"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for seat snapshots, backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens a SQLite database at the given path and applies
// the schema. Use ":memory:" for tests.
//
// SQLite supports one writer at a time; the connection pool is pinned to
// a single connection to avoid SQLITE_BUSY under concurrent checkpoints.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to snapshot database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying snapshot schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored snapshot with the registry's current records.
// The write is transactional: either the whole new snapshot lands or the
// previous one survives intact.
func (s *Store) Save(ctx context.Context, reg *registry.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seats`); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO seats
		(seat_id, state, last_confirmed_at, candidate_state, candidate_since,
		 reserved, reserved_at, ever_occupied, authorized, release_deadline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	reg.Each(func(seat *registry.Seat) {
		if insertErr != nil {
			return
		}
		var candidate *string
		if seat.Candidate != nil {
			s := string(*seat.Candidate)
			candidate = &s
		}
		_, insertErr = stmt.ExecContext(ctx,
			seat.ID,
			string(seat.Confirmed),
			unixOrNil(seat.LastConfirmedAt),
			candidate,
			unixOrNil(seat.CandidateSince),
			boolToInt(seat.Reserved),
			unixOrNil(seat.ReservedAt),
			boolToInt(seat.EverOccupied),
			boolToInt(seat.Authorized),
			unixOrNil(seat.ReleaseDeadline),
		)
	})
	if insertErr != nil {
		return fmt.Errorf("saving snapshot: %w", insertErr)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Restore loads the stored snapshot into the registry's seat records.
//
// Rows for seats absent from the registry are skipped with a warning (the
// deployment's seat set may have changed since the snapshot was taken),
// as are rows carrying a state outside the enumeration. Registry seats
// without a stored row keep their initial record.
func (s *Store) Restore(ctx context.Context, reg *registry.Registry) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seat_id, state, last_confirmed_at, candidate_state, candidate_since,
		       reserved, reserved_at, ever_occupied, authorized, release_deadline
		FROM seats
	`)
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seatID, state    string
			candidate        sql.NullString
			lastConfirmed    sql.NullInt64
			candidateSince   sql.NullInt64
			reservedAt       sql.NullInt64
			releaseDeadline  sql.NullInt64
			reserved, everOc int
			authorized       int
		)
		if err := rows.Scan(&seatID, &state, &lastConfirmed, &candidate, &candidateSince,
			&reserved, &reservedAt, &everOc, &authorized, &releaseDeadline); err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}

		seat, ok := reg.Seat(seatID)
		if !ok {
			s.logger.Warn("snapshot row for unregistered seat skipped", "seat", seatID)
			continue
		}
		if !registry.State(state).Valid() {
			s.logger.Warn("snapshot row with invalid state skipped", "seat", seatID, "state", state)
			continue
		}

		seat.Confirmed = registry.State(state)
		seat.LastConfirmedAt = timeOrNil(lastConfirmed)
		seat.CandidateSince = timeOrNil(candidateSince)
		if candidate.Valid && registry.State(candidate.String).Valid() && seat.CandidateSince != nil {
			c := registry.State(candidate.String)
			seat.Candidate = &c
		} else {
			seat.Candidate = nil
			seat.CandidateSince = nil
		}
		seat.Reserved = reserved != 0
		seat.ReservedAt = timeOrNil(reservedAt)
		seat.EverOccupied = everOc != 0
		seat.Authorized = authorized != 0
		if seat.Reserved {
			seat.ReleaseDeadline = timeOrNil(releaseDeadline)
		} else {
			seat.ReleaseDeadline = nil
		}
		seat.ReleaseRemaining = nil
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	return nil
}

func unixOrNil(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
