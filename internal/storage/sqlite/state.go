// Package sqlite persists presentation state in a local SQLite database.
// Each plan is a row; the live session fields share one row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Vasu1712/worship-sync/internal/models"
	"github.com/Vasu1712/worship-sync/internal/storage"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS service_plans (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS presentation_session (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	current_plan TEXT,
	current_slide TEXT,
	next_slide TEXT,
	show_blank INTEGER NOT NULL DEFAULT 0,
	show_logo INTEGER NOT NULL DEFAULT 0,
	show_timer INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// StateStore implements storage.StateStore on SQLite.
type StateStore struct {
	db *sql.DB
}

// NewStateStore opens (creating if needed) the database at path.
func NewStateStore(path string) (*StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	log.Printf("[Storage] SQLite state database at %s", path)
	return &StateStore{db: db}, nil
}

// nullJSON encodes v, storing NULL for a nil pointer.
func nullJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func fromJSON[T any](s sql.NullString) (*T, error) {
	if !s.Valid {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal([]byte(s.String), v); err != nil {
		return nil, err
	}
	return v, nil
}

// Load reads the state. An empty database yields storage.ErrNoState.
func (s *StateStore) Load(ctx context.Context) (*models.PersistedState, error) {
	var (
		state               models.PersistedState
		plan, current, next sql.NullString
		blank, logo, timer  bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT current_plan, current_slide, next_slide, show_blank, show_logo, show_timer
		 FROM presentation_session WHERE id = 1`,
	).Scan(&plan, &current, &next, &blank, &logo, &timer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if state.CurrentServicePlan, err = fromJSON[models.ServicePlan](plan); err != nil {
		return nil, fmt.Errorf("decode current plan: %w", err)
	}
	if state.CurrentSlide, err = fromJSON[models.Slide](current); err != nil {
		return nil, fmt.Errorf("decode current slide: %w", err)
	}
	if state.NextSlide, err = fromJSON[models.Slide](next); err != nil {
		return nil, fmt.Errorf("decode next slide: %w", err)
	}
	state.ShowBlank, state.ShowLogo, state.ShowTimer = blank, logo, timer

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM service_plans ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read plans: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		var p models.ServicePlan
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		state.ServicePlans = append(state.ServicePlans, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plans: %w", err)
	}
	return &state, nil
}

// Save replaces the stored state in one transaction.
func (s *StateStore) Save(ctx context.Context, state *models.PersistedState) error {
	plan, err := nullJSON(state.CurrentServicePlan)
	if err != nil {
		return fmt.Errorf("encode current plan: %w", err)
	}
	current, err := nullJSON(state.CurrentSlide)
	if err != nil {
		return fmt.Errorf("encode current slide: %w", err)
	}
	next, err := nullJSON(state.NextSlide)
	if err != nil {
		return fmt.Errorf("encode next slide: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_plans`); err != nil {
		return fmt.Errorf("failed to clear plans: %w", err)
	}
	for i, p := range state.ServicePlans {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode plan %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_plans (id, position, data) VALUES (?, ?, ?)`,
			p.ID, i, string(data),
		); err != nil {
			return fmt.Errorf("failed to insert plan %s: %w", p.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO presentation_session (id, current_plan, current_slide, next_slide, show_blank, show_logo, show_timer, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			current_plan = excluded.current_plan,
			current_slide = excluded.current_slide,
			next_slide = excluded.next_slide,
			show_blank = excluded.show_blank,
			show_logo = excluded.show_logo,
			show_timer = excluded.show_timer,
			updated_at = excluded.updated_at`,
		plan, current, next, state.ShowBlank, state.ShowLogo, state.ShowTimer,
	); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	log.Printf("[Storage] Saved %d plans to SQLite", len(state.ServicePlans))
	return nil
}

// Close closes the database.
func (s *StateStore) Close() error {
	return s.db.Close()
}

var _ storage.StateStore = (*StateStore)(nil)
