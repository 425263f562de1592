package records

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/skycast-ai/skycast/internal/weather"
)

const dateLayout = "2006-01-02"

// Service owns CRUD against the record store and the weather-backed record
// creation paths (current-conditions fetch and date-range synthesis).
type Service struct {
	store   Store
	weather weather.API
}

// NewService creates a new Service.
func NewService(store Store, api weather.API) *Service {
	return &Service{
		store:   store,
		weather: api,
	}
}

// CreateCurrent fetches current conditions for a location and persists one
// record for the fetch.
func (s *Service) CreateCurrent(ctx context.Context, location string) (*WeatherRecord, weather.Observation, error) {
	obs, err := s.weather.Current(ctx, location)
	if err != nil {
		log.Printf("current weather fetch failed for %q: %v", location, err)
		return nil, weather.Observation{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	city := obs.City
	if city == "" {
		city = location
	}

	rec := &WeatherRecord{
		City: city,
		Temp: obs.Temp,
		Desc: obs.Description,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, obs, err
	}

	return rec, obs, nil
}

// Forecast returns the aggregated daily forecast for a location.
func (s *Service) Forecast(ctx context.Context, location string) ([]weather.ForecastEntry, error) {
	fc, err := s.weather.Forecast(ctx, location)
	if err != nil {
		log.Printf("forecast fetch failed for %q: %v", location, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return fc, nil
}

// List returns all records, optionally sorted by temperature ascending.
func (s *Service) List(ctx context.Context, sortByTemp bool) ([]WeatherRecord, error) {
	if sortByTemp {
		return s.store.SortedByTemp(ctx)
	}
	return s.store.List(ctx)
}

// UpdateDescription mutates a record's description in place.
// Returns ErrNotFound if the id does not exist.
func (s *Service) UpdateDescription(ctx context.Context, id int64, newDesc string) (*WeatherRecord, error) {
	return s.store.UpdateDesc(ctx, id, newDesc)
}

// DeleteOne removes a single record, reporting whether it existed.
func (s *Service) DeleteOne(ctx context.Context, id int64) (bool, error) {
	return s.store.Delete(ctx, id)
}

// DeleteBatch removes records by id, tolerating partial failure. Missing ids
// are reported as "not found". A store commit failure is downgraded to per-id
// failure entries: every id not already staged as deleted gets the error
// text, and staged ids stay in Deleted even though the transaction rolled
// back. DeleteBatch never returns a commit failure to the caller.
func (s *Service) DeleteBatch(ctx context.Context, ids []int64) BatchDeleteResult {
	result := BatchDeleteResult{
		Deleted: []int64{},
		Failed:  map[int64]string{},
	}
	if len(ids) == 0 {
		return result
	}

	deleted, missing, err := s.store.DeleteMany(ctx, ids)
	result.Deleted = append(result.Deleted, deleted...)

	if err != nil {
		log.Printf("batch delete commit failed: %v", err)
		staged := make(map[int64]struct{}, len(deleted))
		for _, id := range deleted {
			staged[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := staged[id]; !ok {
				result.Failed[id] = err.Error()
			}
		}
		return result
	}

	for _, id := range missing {
		result.Failed[id] = "not found"
	}
	return result
}

// CreateRange creates one record per calendar day from startDate to endDate
// inclusive, approximating each day from the forecast where it covers the
// day and degrading to a fresh current-weather call, then to sentinel values
// (0.0 / "unknown"), when it does not. Returns the number of records created.
func (s *Service) CreateRange(ctx context.Context, location, startDate, endDate string) (int, error) {
	sd, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return 0, fmt.Errorf("%w: dates must be in YYYY-MM-DD format", ErrInvalidInput)
	}
	ed, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return 0, fmt.Errorf("%w: dates must be in YYYY-MM-DD format", ErrInvalidInput)
	}
	if sd.After(ed) {
		return 0, fmt.Errorf("%w: start date must not be after end date", ErrInvalidInput)
	}

	fc, err := s.weather.Forecast(ctx, location)
	if err != nil {
		log.Printf("forecast fetch failed for %q: %v", location, err)
		return 0, fmt.Errorf("%w: could not fetch forecast to approximate daily temps", ErrProvider)
	}

	forecastByDate := make(map[string]weather.ForecastEntry, len(fc))
	for _, entry := range fc {
		forecastByDate[entry.Date] = entry
	}

	created := 0
	for d := sd; !d.After(ed); d = d.AddDate(0, 0, 1) {
		day := d.Format(dateLayout)

		var temp float64
		var desc string
		if entry, ok := forecastByDate[day]; ok {
			temp = entry.Temp
			desc = entry.Description
		} else {
			// Fallback: approximate the day with current conditions; a failed
			// fallback degrades to sentinel values instead of aborting the range.
			obs, obsErr := s.weather.Current(ctx, location)
			if obsErr != nil {
				log.Printf("current weather fallback failed for %q on %s: %v", location, day, obsErr)
				temp = 0.0
				desc = "unknown"
			} else {
				temp = obs.Temp
				desc = obs.Description
			}
		}

		rec := &WeatherRecord{
			City: location,
			Temp: temp,
			Desc: desc,
		}
		if err := s.store.Insert(ctx, rec); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
