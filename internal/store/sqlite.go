package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skycast-ai/skycast/internal/records"
)

const timeLayout = "2006-01-02 15:04:05"

// SQLiteStore implements records.Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS weather_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL,
		temp REAL NOT NULL,
		"desc" TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Insert(ctx context.Context, rec *records.WeatherRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO weather_records (city, temp, "desc", created_at) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, rec.City, rec.Temp, rec.Desc, rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}

	rec.ID = id
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*records.WeatherRecord, error) {
	query := `SELECT id, city, temp, "desc", created_at FROM weather_records WHERE id = ?`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteStore) List(ctx context.Context) ([]records.WeatherRecord, error) {
	query := `SELECT id, city, temp, "desc", created_at FROM weather_records ORDER BY id ASC`
	return s.queryRecords(ctx, query)
}

// SortedByTemp returns all records ordered by temperature ascending.
func (s *SQLiteStore) SortedByTemp(ctx context.Context) ([]records.WeatherRecord, error) {
	query := `SELECT id, city, temp, "desc", created_at FROM weather_records ORDER BY temp ASC, id ASC`
	return s.queryRecords(ctx, query)
}

func (s *SQLiteStore) UpdateDesc(ctx context.Context, id int64, desc string) (*records.WeatherRecord, error) {
	query := `UPDATE weather_records SET "desc" = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, desc, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, records.ErrNotFound
	}

	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM weather_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteMany stages one delete per id inside a single transaction. A failure
// before commit rolls the transaction back and is returned so the caller can
// downgrade it to per-id failures; ids already staged stay in deleted.
func (s *SQLiteStore) DeleteMany(ctx context.Context, ids []int64) (deleted, missing []int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	for _, id := range ids {
		result, execErr := tx.ExecContext(ctx, `DELETE FROM weather_records WHERE id = ?`, id)
		if execErr != nil {
			tx.Rollback()
			return deleted, nil, execErr
		}

		n, raErr := result.RowsAffected()
		if raErr != nil {
			tx.Rollback()
			return deleted, nil, raErr
		}

		if n == 0 {
			missing = append(missing, id)
		} else {
			deleted = append(deleted, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return deleted, missing, err
	}
	return deleted, missing, nil
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string) ([]records.WeatherRecord, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var result []records.WeatherRecord
	for rows.Next() {
		var rec records.WeatherRecord
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.City, &rec.Temp, &rec.Desc, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		result = append(result, rec)
	}

	return result, rows.Err()
}

func (s *SQLiteStore) scanOne(row *sql.Row) (*records.WeatherRecord, error) {
	var rec records.WeatherRecord
	var createdAt string

	err := row.Scan(&rec.ID, &rec.City, &rec.Temp, &rec.Desc, &createdAt)
	if err == sql.ErrNoRows {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	return &rec, nil
}
