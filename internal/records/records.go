package records

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a referenced record id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput marks malformed or inverted date-range input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvider marks a weather provider failure.
	ErrProvider = errors.New("weather provider failure")
)

// WeatherRecord is a persisted history entry. CreatedAt is set at insert and
// never mutated; Desc is the only field updated in place.
type WeatherRecord struct {
	ID        int64     `json:"id"`
	City      string    `json:"city"`
	Temp      float64   `json:"temp"`
	Desc      string    `json:"desc"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchDeleteResult summarizes one batch delete: ids removed, and per-id
// failure reasons for the rest.
type BatchDeleteResult struct {
	Deleted []int64          `json:"deleted"`
	Failed  map[int64]string `json:"failed"`
}

// Store is the contract the record store must satisfy. DeleteMany stages
// per-id deletions inside a single transaction: deleted holds ids staged for
// removal, missing holds ids with no matching row, and a non-nil error means
// the transaction did not commit.
type Store interface {
	Insert(ctx context.Context, rec *WeatherRecord) error
	Get(ctx context.Context, id int64) (*WeatherRecord, error)
	List(ctx context.Context) ([]WeatherRecord, error)
	SortedByTemp(ctx context.Context) ([]WeatherRecord, error)
	UpdateDesc(ctx context.Context, id int64, desc string) (*WeatherRecord, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteMany(ctx context.Context, ids []int64) (deleted, missing []int64, err error)
}
