// Package store persists the per-conversation narrative state and community
// reviews in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"taleweaver/pkg/arc"
	"taleweaver/pkg/names"
	"taleweaver/pkg/review"
	"taleweaver/pkg/store/migrations"
)

var ErrNotFound = errors.New("record not found")

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Store provides SQLite-backed persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Mapping returns the placeholder-name mapping of a conversation. A
// conversation with no assignments yields an empty mapping.
func (s *Store) Mapping(ctx context.Context, conversationID string) (names.Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, name FROM conversation_names WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	m := names.Mapping{}
	for rows.Next() {
		var label, name string
		if err := rows.Scan(&label, &name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		m[label] = name
	}
	return m, rows.Err()
}

// SaveMapping records new assignments. Existing labels keep their first name
// so a conversation's placeholders stay stable.
func (s *Store) SaveMapping(ctx context.Context, conversationID string, m names.Mapping) error {
	if len(m) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := toMillis(s.now())
	for label, name := range m {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO conversation_names (conversation_id, label, name, created_at) VALUES (?, ?, ?, ?)`,
			conversationID, label, name, now); err != nil {
			return fmt.Errorf("insert name %s: %w", label, err)
		}
	}
	return tx.Commit()
}

// Steps returns the arc steps of a conversation in their original order.
func (s *Store) Steps(ctx context.Context, conversationID string) ([]arc.Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step_id, description, score, status FROM arc_steps WHERE conversation_id = ? ORDER BY position, step_id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []arc.Step
	for rows.Next() {
		var st arc.Step
		var status string
		if err := rows.Scan(&st.ID, &st.Description, &st.Score, &status); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Status = arc.Status(status)
		out = append(out, st)
	}
	return out, rows.Err()
}

// SaveSteps makes steps the conversation's arc, keeping their slice order as
// position. Stored steps missing from steps are removed.
func (s *Store) SaveSteps(ctx context.Context, conversationID string, steps []arc.Step) error {
	ids := make([]string, 0, len(steps))
	for _, st := range steps {
		ids = append(ids, st.ID)
	}
	keep, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal step ids: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM arc_steps WHERE conversation_id = ? AND step_id NOT IN (SELECT value FROM json_each(?))`,
		conversationID, string(keep)); err != nil {
		return fmt.Errorf("prune steps: %w", err)
	}

	now := toMillis(s.now())
	for i, st := range steps {
		status := st.Status
		if status == "" {
			status = arc.Pending
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO arc_steps (conversation_id, step_id, position, description, score, status, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(conversation_id, step_id) DO UPDATE SET
    position = excluded.position,
    description = excluded.description,
    score = excluded.score,
    status = excluded.status,
    updated_at = excluded.updated_at`,
			conversationID, st.ID, i, st.Description, st.Score, string(status), now); err != nil {
			return fmt.Errorf("upsert step %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// SetStepStatus changes the status of one step.
func (s *Store) SetStepStatus(ctx context.Context, conversationID, stepID string, status arc.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE arc_steps SET status = ?, updated_at = ? WHERE conversation_id = ? AND step_id = ?`,
		string(status), toMillis(s.now()), conversationID, stepID)
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Review is one user's rating of a scenario.
type Review struct {
	ID         string         `json:"id"`
	ScenarioID string         `json:"scenario_id"`
	UserID     string         `json:"user_id"`
	Ratings    review.Ratings `json:"ratings"`
	Weighted   *float64       `json:"weighted"`
	Display    *float64       `json:"display"`
	Comment    string         `json:"comment,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PutReview inserts r, or replaces the user's earlier review of the same
// scenario while keeping its id and creation time.
func (s *Store) PutReview(ctx context.Context, r *Review) error {
	ratings, err := json.Marshal(r.Ratings)
	if err != nil {
		return fmt.Errorf("marshal ratings: %w", err)
	}
	now := s.now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	row := s.db.QueryRowContext(ctx, `
INSERT INTO reviews (id, scenario_id, user_id, ratings, weighted, display, comment, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(scenario_id, user_id) DO UPDATE SET
    ratings = excluded.ratings,
    weighted = excluded.weighted,
    display = excluded.display,
    comment = excluded.comment,
    updated_at = excluded.updated_at
RETURNING id, created_at`,
		r.ID, r.ScenarioID, r.UserID, string(ratings), nullFloat(r.Weighted), nullFloat(r.Display),
		r.Comment, toMillis(r.CreatedAt), toMillis(now))

	var created int64
	if err := row.Scan(&r.ID, &created); err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	r.CreatedAt = fromMillis(created)
	return nil
}

// Reviews lists every review of a scenario, newest first.
func (s *Store) Reviews(ctx context.Context, scenarioID string) ([]Review, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, scenario_id, user_id, ratings, weighted, display, comment, created_at, updated_at
FROM reviews WHERE scenario_id = ? ORDER BY created_at DESC, id`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var (
			r                 Review
			ratings           string
			weighted, display sql.NullFloat64
			created, updated  int64
		)
		if err := rows.Scan(&r.ID, &r.ScenarioID, &r.UserID, &ratings, &weighted, &display, &r.Comment, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if err := json.Unmarshal([]byte(ratings), &r.Ratings); err != nil {
			return nil, fmt.Errorf("unmarshal ratings: %w", err)
		}
		r.Weighted = floatPtr(weighted)
		r.Display = floatPtr(display)
		r.CreatedAt, r.UpdatedAt = fromMillis(created), fromMillis(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
