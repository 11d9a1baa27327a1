package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
	"github.com/TomMannion/plex-dualsub-manager/internal/jobs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists jobs so the registry survives restarts. It is the
// durable side of jobs.Store; the registry remains the single writer.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, show_id, primary_lang, secondary_lang, sync_mode, format, styling_json,
		        status, tasks_json, progress_json, result_json, error,
		        created_at, updated_at, started_at, completed_at
		 FROM jobs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.Job, 0)
	for rows.Next() {
		var item jobs.Job
		var status, format, syncMode string
		var stylingJSON, tasksJSON, progressJSON string
		var resultJSON sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.ShowID,
			&item.Primary,
			&item.Secondary,
			&syncMode,
			&format,
			&stylingJSON,
			&status,
			&tasksJSON,
			&progressJSON,
			&resultJSON,
			&item.Error,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.StartedAt,
			&item.CompletedAt,
		); err != nil {
			return nil, err
		}
		item.Status = jobs.Status(status)
		item.SyncMode = jobs.SyncMode(syncMode)
		item.Format = dualsub.Format(format)
		if err := json.Unmarshal([]byte(stylingJSON), &item.Styling); err != nil {
			return nil, fmt.Errorf("decode styling for job %s: %w", item.ID, err)
		}
		if err := json.Unmarshal([]byte(tasksJSON), &item.Tasks); err != nil {
			return nil, fmt.Errorf("decode tasks for job %s: %w", item.ID, err)
		}
		if err := json.Unmarshal([]byte(progressJSON), &item.Progress); err != nil {
			return nil, fmt.Errorf("decode progress for job %s: %w", item.ID, err)
		}
		if resultJSON.Valid && resultJSON.String != "" {
			var result jobs.Result
			if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
				return nil, fmt.Errorf("decode result for job %s: %w", item.ID, err)
			}
			item.Result = &result
		}
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	stylingJSON, err := json.Marshal(job.Styling)
	if err != nil {
		return err
	}
	tasksJSON, err := json.Marshal(job.Tasks)
	if err != nil {
		return err
	}
	progressJSON, err := json.Marshal(job.Progress)
	if err != nil {
		return err
	}
	var resultJSON sql.NullString
	if job.Result != nil {
		payload, err := json.Marshal(job.Result)
		if err != nil {
			return err
		}
		resultJSON = sql.NullString{String: string(payload), Valid: true}
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
			id, show_id, primary_lang, secondary_lang, sync_mode, format, styling_json,
			status, tasks_json, progress_json, result_json, error,
			created_at, updated_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			show_id=excluded.show_id,
			primary_lang=excluded.primary_lang,
			secondary_lang=excluded.secondary_lang,
			sync_mode=excluded.sync_mode,
			format=excluded.format,
			styling_json=excluded.styling_json,
			status=excluded.status,
			tasks_json=excluded.tasks_json,
			progress_json=excluded.progress_json,
			result_json=excluded.result_json,
			error=excluded.error,
			updated_at=excluded.updated_at,
			started_at=excluded.started_at,
			completed_at=excluded.completed_at`,
		job.ID,
		job.ShowID,
		job.Primary,
		job.Secondary,
		string(job.SyncMode),
		string(job.Format),
		string(stylingJSON),
		string(job.Status),
		string(tasksJSON),
		string(progressJSON),
		resultJSON,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	return err
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	return err
}
