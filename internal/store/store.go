// Package store implements the issue tracker's persistence on SQLite.
//
// It plays three roles for the linking engine: the Item Store (issues and
// their parent links), the Relation Store (typed directed edges with a
// UNIQUE(from_id, to_id, type) constraint) and the Change Event Source
// (every accepted edit writes a journal row and returns a ChangeEvent).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/autorelate/internal/issue"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir              string
	MaxDescriptionLength int
	MaxContextDepth      int
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:              filepath.Join(home, ".autorelate"),
		MaxDescriptionLength: 65535,
		MaxContextDepth:      5,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed issue tracker.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type storeHooks struct {
	exec  func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error)
	query func(ctx context.Context, db queryer, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execHook(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(ctx, db, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}

func (s *Store) queryHook(ctx context.Context, db queryer, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(ctx, db, query, args...)
	}
	return db.QueryContext(ctx, query, args...)
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.MaxDescriptionLength <= 0 {
		cfg.MaxDescriptionLength = DefaultConfig().MaxDescriptionLength
	}
	if cfg.MaxContextDepth <= 0 {
		cfg.MaxContextDepth = DefaultConfig().MaxContextDepth
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	// foreign_keys is per connection, so it rides on the DSN for every
	// connection in the pool.
	dbPath := filepath.Join(cfg.DataDir, "issues.db")
	db, err := openDB("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Config returns the configuration the store was opened with.
func (s *Store) Config() Config {
	return s.cfg
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS issues (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			subject     TEXT    NOT NULL,
			description TEXT    NOT NULL DEFAULT '',
			parent_id   INTEGER,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (parent_id) REFERENCES issues(id) ON DELETE SET NULL
		);

		CREATE INDEX IF NOT EXISTS idx_issues_parent ON issues(parent_id);

		CREATE TABLE IF NOT EXISTS journals (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			issue_id            INTEGER NOT NULL,
			notes               TEXT,
			description_changed INTEGER NOT NULL DEFAULT 0,
			created_at          TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (issue_id) REFERENCES issues(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_journals_issue ON journals(issue_id);
	`
	if _, err := s.execHook(ctx, s.db, schema); err != nil {
		return err
	}

	// Relations: the explicit graph the linker keeps in sync.
	if _, err := s.execHook(ctx, s.db, `
		CREATE TABLE IF NOT EXISTS relations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			from_id    INTEGER NOT NULL,
			to_id      INTEGER NOT NULL,
			type       TEXT    NOT NULL DEFAULT 'relates',
			created_at TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (from_id) REFERENCES issues(id) ON DELETE CASCADE,
			FOREIGN KEY (to_id)   REFERENCES issues(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_rel_from   ON relations(from_id);
		CREATE INDEX IF NOT EXISTS idx_rel_to     ON relations(to_id);
		CREATE INDEX IF NOT EXISTS idx_rel_type   ON relations(type);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_rel_unique ON relations(from_id, to_id, type);
	`); err != nil {
		return err
	}

	return nil
}

// ─── Issues ──────────────────────────────────────────────────────────────────

// CreateIssueParams holds the input for creating a new issue.
type CreateIssueParams struct {
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
}

// CreateIssue inserts a new issue and returns its ID.
func (s *Store) CreateIssue(ctx context.Context, p CreateIssueParams) (int64, error) {
	subject := strings.TrimSpace(p.Subject)
	if subject == "" {
		return 0, errors.New("subject is required")
	}

	if err := s.checkDescription(p.Description); err != nil {
		return 0, err
	}

	if p.ParentID != nil {
		if _, err := s.GetIssue(ctx, *p.ParentID); err != nil {
			return 0, fmt.Errorf("parent issue #%d: %w", *p.ParentID, err)
		}
	}

	res, err := s.execHook(ctx, s.db,
		`INSERT INTO issues (subject, description, parent_id) VALUES (?, ?, ?)`,
		subject, p.Description, p.ParentID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating issue: %w", err)
	}
	return res.LastInsertId()
}

// GetIssue retrieves a single issue by ID. A missing issue yields an error
// wrapping issue.ErrNotFound.
func (s *Store) GetIssue(ctx context.Context, id int64) (*issue.Issue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, description, parent_id, created_at, updated_at
		 FROM issues WHERE id = ?`, id,
	)
	var it issue.Issue
	var parent sql.NullInt64
	if err := row.Scan(&it.ID, &it.Subject, &it.Description, &parent, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("issue #%d: %w", id, issue.ErrNotFound)
		}
		return nil, fmt.Errorf("reading issue #%d: %w", id, err)
	}
	if parent.Valid {
		pid := parent.Int64
		it.ParentID = &pid
	}
	return &it, nil
}

// ─── Edits (change events) ───────────────────────────────────────────────────

// EditParams describes one edit. A nil Description leaves it untouched.
type EditParams struct {
	Notes       string  `json:"notes,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Edit applies an edit, records it as a journal entry and returns the
// resulting change event. DescriptionChanged is only set when the stored
// description actually differs from the new one.
func (s *Store) Edit(ctx context.Context, id int64, p EditParams) (*issue.ChangeEvent, error) {
	current, err := s.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}

	notes := strings.TrimSpace(p.Notes)
	ev := &issue.ChangeEvent{IssueID: id, Notes: notes}

	var newDesc string
	if p.Description != nil {
		if err := s.checkDescription(*p.Description); err != nil {
			return nil, err
		}
		newDesc = *p.Description
		ev.DescriptionChanged = newDesc != current.Description
	}

	if notes == "" && !ev.DescriptionChanged {
		return nil, errors.New("edit carries neither notes nor a description change")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if ev.DescriptionChanged {
		if _, err := s.execHook(ctx, tx,
			`UPDATE issues SET description = ?, updated_at = datetime('now') WHERE id = ?`,
			newDesc, id,
		); err != nil {
			return nil, fmt.Errorf("updating description: %w", err)
		}
		ev.Description = newDesc
	} else {
		if _, err := s.execHook(ctx, tx,
			`UPDATE issues SET updated_at = datetime('now') WHERE id = ?`, id,
		); err != nil {
			return nil, fmt.Errorf("touching issue: %w", err)
		}
	}

	if _, err := s.execHook(ctx, tx,
		`INSERT INTO journals (issue_id, notes, description_changed) VALUES (?, ?, ?)`,
		id, nullableString(notes), ev.DescriptionChanged,
	); err != nil {
		return nil, fmt.Errorf("writing journal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return ev, nil
}

// Journals returns the edit history of an issue, oldest first.
func (s *Store) Journals(ctx context.Context, issueID int64) ([]issue.Journal, error) {
	rows, err := s.queryHook(ctx, s.db,
		`SELECT id, issue_id, COALESCE(notes, ''), description_changed, created_at
		 FROM journals WHERE issue_id = ?
		 ORDER BY id ASC`, issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journals: %w", err)
	}
	defer rows.Close()

	var result []issue.Journal
	for rows.Next() {
		var j issue.Journal
		if err := rows.Scan(&j.ID, &j.IssueID, &j.Notes, &j.DescriptionChanged, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal: %w", err)
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats holds aggregate tracker statistics.
type Stats struct {
	TotalIssues     int                        `json:"total_issues"`
	TotalJournals   int                        `json:"total_journals"`
	TotalRelations  int                        `json:"total_relations"`
	RelationsByType map[issue.RelationType]int `json:"relations_by_type"`
}

// Stats returns aggregate counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{RelationsByType: map[issue.RelationType]int{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&st.TotalIssues); err != nil {
		return nil, fmt.Errorf("counting issues: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journals`).Scan(&st.TotalJournals); err != nil {
		return nil, fmt.Errorf("counting journals: %w", err)
	}

	rows, err := s.queryHook(ctx, s.db, `SELECT type, COUNT(*) FROM relations GROUP BY type ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("counting relations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ issue.RelationType
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scanning relation count: %w", err)
		}
		st.RelationsByType[typ] = n
		st.TotalRelations += n
	}
	return st, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// checkDescription rejects descriptions longer than MaxDescriptionLength
// bytes. Text is stored as sent or not at all.
func (s *Store) checkDescription(text string) error {
	if len(text) > s.cfg.MaxDescriptionLength {
		return issue.NewValidationError(fmt.Sprintf("description exceeds %d bytes", s.cfg.MaxDescriptionLength))
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, issue.ErrNotFound)
}
