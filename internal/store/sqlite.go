package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/KaramelBytes/vizprep-cli/internal/dataset"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/project"
	"github.com/KaramelBytes/vizprep-cli/internal/snapshot"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS projects (
	name        TEXT PRIMARY KEY,
	id          TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	source      TEXT,
	metadata    TEXT NOT NULL,
	snapshot    BLOB NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
)`

const selectProject = `SELECT id, name, description, source, metadata, created_at, updated_at FROM projects`

// SQLStore keeps every project as one row; snapshot and metadata are
// replaced in a single transaction.
type SQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (and migrates) a SQLite database with WAL journaling, a
// busy timeout and a single writer connection.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLStore, error) {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_synchronous", "NORMAL")
	params.Set("_txlock", "immediate")
	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := NewSQLStore(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing handle. Call Migrate before first use.
func NewSQLStore(db *sql.DB, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{db: db, logger: logger}
}

// Migrate creates the projects table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLStore) Create(ctx context.Context, p *project.Project, t *dataset.Table, md *dataset.Metadata) error {
	if err := project.ValidateName(p.Name); err != nil {
		return err
	}
	blob, err := snapshot.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	mdJSON, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	var source sql.NullString
	if p.Source != nil {
		b, err := json.Marshal(p.Source)
		if err != nil {
			return fmt.Errorf("marshal source: %w", err)
		}
		source = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM projects WHERE name = ?`, p.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if exists > 0 {
		return errs.Validation("name", "project %q already exists", p.Name)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (name, id, description, source, metadata, snapshot, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.ID, p.Description, source, string(mdJSON), blob, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.Metadata = md
	s.logger.Info("project created", zap.String("project", p.Name), zap.Int("rows", md.Rows), zap.Int("cols", md.Cols))
	return nil
}

func (s *SQLStore) Get(ctx context.Context, name string) (*project.Project, error) {
	row := s.db.QueryRowContext(ctx, selectProject+` WHERE name = ?`, name)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("project", name)
	}
	return p, err
}

func (s *SQLStore) List(ctx context.Context) ([]*project.Project, error) {
	rows, err := s.db.QueryContext(ctx, selectProject+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) LoadSnapshot(ctx context.Context, name string) (*dataset.Table, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM projects WHERE name = ?`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("project", name)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	t, err := snapshot.Unmarshal(blob)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return t, nil
}

func (s *SQLStore) Commit(ctx context.Context, name string, t *dataset.Table, md *dataset.Metadata) error {
	blob, err := snapshot.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	mdJSON, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE projects SET snapshot = ?, metadata = ?, updated_at = ? WHERE name = ?`,
		blob, string(mdJSON), time.Now().UTC(), name)
	if err != nil {
		_ = tx.Rollback()
		s.logger.Error("commit failed", zap.String("project", name), zap.Error(err))
		return fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		_ = tx.Rollback()
		return errs.NotFound("project", name)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("snapshot committed", zap.String("project", name), zap.Int("bytes", len(blob)))
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return errs.NotFound("project", name)
	}
	s.logger.Info("project deleted", zap.String("project", name))
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(r rowScanner) (*project.Project, error) {
	var (
		p      project.Project
		source sql.NullString
		mdJSON string
	)
	if err := r.Scan(&p.ID, &p.Name, &p.Description, &source, &mdJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	if source.Valid && source.String != "" {
		p.Source = &project.Source{}
		if err := json.Unmarshal([]byte(source.String), p.Source); err != nil {
			return nil, fmt.Errorf("parse source: %w", err)
		}
	}
	p.Metadata = &dataset.Metadata{}
	if err := json.Unmarshal([]byte(mdJSON), p.Metadata); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &p, nil
}
