package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/doeshing/snapask/internal/domain"
	"github.com/doeshing/snapask/internal/pkg/filesystem"
	"github.com/doeshing/snapask/internal/ports"
)

// SQLiteStore persists history in a SQLite database. Insert and prune run in
// one transaction, so concurrent analyses from several tabs cannot lose
// entries or overshoot the cap.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// busyTimeoutMillis is how long a writer waits for a lock held by another
// snapask process before SQLITE_BUSY.
const busyTimeoutMillis = 5000

// NewSQLiteStore creates (or opens) the history database at path, or
// $SNAPASK_HOME/history.db when path is empty.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join(filesystem.StateDir(), "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout("+strconv.Itoa(busyTimeoutMillis)+")")
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers inside this process.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		result TEXT NOT NULL,
		usage TEXT,
		image_data TEXT,
		question_type TEXT,
		additional_prompt TEXT
	);`)
	return err
}

// Append inserts item and drops everything but the newest
// domain.MaxHistoryItems rows.
func (s *SQLiteStore) Append(ctx context.Context, item domain.HistoryItem) error {
	var usage sql.NullString
	if item.Usage != nil {
		raw, err := json.Marshal(item.Usage)
		if err != nil {
			return err
		}
		usage = sql.NullString{String: string(raw), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO history
		(id, timestamp, result, usage, image_data, question_type, additional_prompt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Timestamp,
		item.Result,
		usage,
		item.ImageData,
		string(item.QuestionType),
		item.AdditionalPrompt,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE seq NOT IN
		(SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`, domain.MaxHistoryItems); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the stored items, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp, result, usage, image_data, question_type, additional_prompt
		FROM history ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.HistoryItem
	for rows.Next() {
		var (
			item                         domain.HistoryItem
			usage, image, qt, additional sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Timestamp, &item.Result, &usage, &image, &qt, &additional); err != nil {
			return nil, err
		}
		if usage.Valid && usage.String != "" {
			var u domain.TokenUsage
			if err := json.Unmarshal([]byte(usage.String), &u); err == nil {
				item.Usage = &u
			}
		}
		item.ImageData = image.String
		item.QuestionType = domain.QuestionType(qt.String)
		item.AdditionalPrompt = additional.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM history")
	return err
}

// ExportJSON writes the history table to a jsonl file.
func (s *SQLiteStore) ExportJSON(ctx context.Context, dest string) error {
	items, err := s.List(ctx)
	if err != nil {
		return err
	}
	return exportLines(dest, items)
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
