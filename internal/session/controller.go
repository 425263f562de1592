package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/skycast-ai/skycast/internal/export"
	"github.com/skycast-ai/skycast/internal/records"
	"github.com/skycast-ai/skycast/internal/weather"
)

// Action is an explicit selection a user makes from an offered menu, as
// opposed to free text.
type Action string

const (
	ActionCurrent       Action = "current"
	ActionForecast      Action = "forecast"
	ActionExport        Action = "export"
	ActionHistory       Action = "history"
	ActionCreateRange   Action = "create_range"
	ActionStartUpdate   Action = "start_update"
	ActionStartDelete   Action = "delete_record"
	ActionConfirmDelete Action = "confirm_delete"
	ActionCancelDelete  Action = "cancel_delete"
)

// Reply is one turn's response: the message text plus the actions offered for
// the next selection, if any.
type Reply struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

// RecordService is the slice of the record service the controller drives.
type RecordService interface {
	CreateCurrent(ctx context.Context, location string) (*records.WeatherRecord, weather.Observation, error)
	Forecast(ctx context.Context, location string) ([]weather.ForecastEntry, error)
	List(ctx context.Context, sortByTemp bool) ([]records.WeatherRecord, error)
	UpdateDescription(ctx context.Context, id int64, newDesc string) (*records.WeatherRecord, error)
	DeleteBatch(ctx context.Context, ids []int64) records.BatchDeleteResult
	CreateRange(ctx context.Context, location, startDate, endDate string) (int, error)
}

// Controller is the per-session state machine: it interprets each incoming
// message against the session's pending flow and drives the record service.
type Controller struct {
	sessions  *Store
	records   RecordService
	exporters []export.Exporter
	exportDir string
}

// NewController creates a Controller. Exported files are written under
// exportDir.
func NewController(sessions *Store, svc RecordService, exportDir string) *Controller {
	return &Controller{
		sessions:  sessions,
		records:   svc,
		exporters: export.All(),
		exportDir: exportDir,
	}
}

// HandleMessage consumes one free-text message for a session and returns the
// next prompt or result. Turns of the same session are serialized for their
// whole duration, provider calls included.
func (c *Controller) HandleMessage(ctx context.Context, sessionID, text string) Reply {
	var reply Reply
	c.sessions.Do(sessionID, func(st *State) {
		reply = c.handleMessage(ctx, st, strings.TrimSpace(text))
	})
	return reply
}

// HandleAction consumes one explicit action selection for a session.
func (c *Controller) HandleAction(ctx context.Context, sessionID string, action Action) Reply {
	var reply Reply
	c.sessions.Do(sessionID, func(st *State) {
		reply = c.handleAction(ctx, st, action)
	})
	return reply
}

func (c *Controller) handleMessage(ctx context.Context, st *State, text string) Reply {
	switch st.Flow.Kind {
	case FlowAwaitUpdateID:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Reply{Text: "Please send a valid numeric record ID to update."}
		}
		st.Flow = Flow{Kind: FlowAwaitNewDescription, UpdateID: id}
		return Reply{Text: fmt.Sprintf("Send the new description for record %d.", id)}

	case FlowAwaitDeleteIDs:
		if text == "" {
			return Reply{Text: "Please send at least one numeric ID to delete."}
		}
		ids := ParseIDList(text)
		if len(ids) == 0 {
			return Reply{Text: "No valid IDs found in your input."}
		}
		st.Flow = Flow{Kind: FlowAwaitDeleteConfirm, DeleteIDs: ids}
		return Reply{
			Text:    fmt.Sprintf("You are about to delete these records: %s\nDo you want to proceed?", joinIDs(ids, ", ")),
			Actions: []Action{ActionConfirmDelete, ActionCancelDelete},
		}

	case FlowAwaitNewDescription:
		if text == "" {
			// Re-prompt without clearing state so the user can retry.
			return Reply{Text: "Please send a non-empty description to update the record."}
		}
		id := st.Flow.UpdateID
		st.Flow = Flow{}
		if _, err := c.records.UpdateDescription(ctx, id, text); err != nil {
			if errors.Is(err, records.ErrNotFound) {
				return Reply{Text: fmt.Sprintf("Record %d not found.", id)}
			}
			return Reply{Text: fmt.Sprintf("Failed to update record %d.", id)}
		}
		return Reply{Text: fmt.Sprintf("Record %d updated.", id)}

	case FlowAwaitRangeStart:
		st.Flow = Flow{Kind: FlowAwaitRangeEnd, RangeStart: text}
		return Reply{Text: "Please send the end date (YYYY-MM-DD) for the range."}

	case FlowAwaitRangeEnd:
		start := st.Flow.RangeStart
		st.Flow = Flow{}

		location := st.City
		if location == "" {
			location = text
		}

		count, err := c.records.CreateRange(ctx, location, start, text)
		if err != nil {
			return Reply{Text: fmt.Sprintf("Could not create range: %v", err)}
		}
		return Reply{Text: fmt.Sprintf("Created %d records for %s between %s and %s.", count, location, start, text)}

	default:
		if text == "" {
			return Reply{Text: "Please enter a valid location."}
		}

		st.City = text
		log.Printf("DEBUG: location %q classified as %v", text, weather.ResolveLocation(text))

		return Reply{
			Text:    fmt.Sprintf("Location: %s\nWhat do you want to do?", text),
			Actions: []Action{ActionCurrent, ActionForecast, ActionExport, ActionHistory, ActionCreateRange},
		}
	}
}

func (c *Controller) handleAction(ctx context.Context, st *State, action Action) Reply {
	switch action {
	case ActionCurrent:
		if st.City == "" {
			return Reply{Text: "Please send a location first."}
		}
		rec, obs, err := c.records.CreateCurrent(ctx, st.City)
		if err != nil {
			return Reply{Text: "Could not fetch current weather."}
		}
		return Reply{Text: fmt.Sprintf(
			"%s (%s)\nTemp: %.1f C\nHumidity: %.0f%%\nWind: %.1f m/s\nCondition: %s",
			rec.City, obs.Country, obs.Temp, obs.Humidity, obs.WindSpeed, obs.Description,
		)}

	case ActionForecast:
		if st.City == "" {
			return Reply{Text: "Please send a location first."}
		}
		fc, err := c.records.Forecast(ctx, st.City)
		if err != nil {
			return Reply{Text: "Could not fetch forecast."}
		}
		lines := []string{"5-Day Forecast:"}
		for _, day := range fc {
			lines = append(lines, fmt.Sprintf("%s: %.1f C, %s", day.Date, day.Temp, day.Description))
		}
		return Reply{Text: strings.Join(lines, "\n")}

	case ActionExport:
		return c.exportAll(ctx)

	case ActionHistory:
		recs, err := c.records.List(ctx, false)
		if err != nil {
			return Reply{Text: "Could not load history."}
		}
		if len(recs) == 0 {
			return Reply{Text: "No history records found."}
		}
		lines := []string{"History:"}
		for _, r := range recs {
			lines = append(lines, fmt.Sprintf("ID %d: %s, %.1f C, %s", r.ID, r.City, r.Temp, r.Desc))
		}
		return Reply{
			Text:    strings.Join(lines, "\n"),
			Actions: []Action{ActionStartUpdate, ActionStartDelete},
		}

	case ActionCreateRange:
		st.Flow = Flow{Kind: FlowAwaitRangeStart}
		return Reply{Text: "Please send the start date (YYYY-MM-DD) for the range."}

	case ActionStartUpdate:
		st.Flow = Flow{Kind: FlowAwaitUpdateID}
		return Reply{Text: "Please send the ID of the record you want to update (e.g. 5)."}

	case ActionStartDelete:
		st.Flow = Flow{Kind: FlowAwaitDeleteIDs}
		return Reply{Text: "Please send the ID or IDs of the record(s) you want to delete (e.g. 5 or 1,2,3 or ranges like 4-6)."}

	case ActionConfirmDelete:
		if st.Flow.Kind != FlowAwaitDeleteConfirm || len(st.Flow.DeleteIDs) == 0 {
			return Reply{Text: "No pending deletions."}
		}
		ids := st.Flow.DeleteIDs
		result := c.records.DeleteBatch(ctx, ids)
		// Pending ids are cleared regardless of how the batch went.
		st.Flow = Flow{}

		var parts []string
		if len(result.Deleted) > 0 {
			parts = append(parts, "Deleted: "+joinIDs(result.Deleted, ","))
		}
		if len(result.Failed) > 0 {
			failedIDs := make([]int64, 0, len(result.Failed))
			for id := range result.Failed {
				failedIDs = append(failedIDs, id)
			}
			sort.Slice(failedIDs, func(i, j int) bool { return failedIDs[i] < failedIDs[j] })

			items := make([]string, 0, len(failedIDs))
			for _, id := range failedIDs {
				items = append(items, fmt.Sprintf("%d (%s)", id, result.Failed[id]))
			}
			parts = append(parts, "Failed: "+strings.Join(items, ", "))
		}
		if len(parts) == 0 {
			return Reply{Text: "No deletions performed."}
		}
		return Reply{Text: strings.Join(parts, "\n")}

	case ActionCancelDelete:
		if st.Flow.Kind == FlowAwaitDeleteConfirm {
			st.Flow = Flow{}
		}
		return Reply{Text: "Deletion cancelled."}

	default:
		return Reply{Text: "Unknown action."}
	}
}

// exportAll runs every exporter, writing one file per format. Formats are
// independent: a failing format is reported and the rest continue.
func (c *Controller) exportAll(ctx context.Context) Reply {
	recs, err := c.records.List(ctx, false)
	if err != nil {
		return Reply{Text: "Could not load records to export."}
	}
	if len(recs) == 0 {
		return Reply{Text: "No records found to export."}
	}

	if err := os.MkdirAll(c.exportDir, 0o755); err != nil {
		log.Printf("failed to create export dir %q: %v", c.exportDir, err)
		return Reply{Text: "Could not prepare the export directory."}
	}

	lines := []string{"Export complete."}
	for _, exp := range c.exporters {
		data, err := exp.Encode(recs)
		if err != nil {
			log.Printf("export %s failed: %v", exp.Format(), err)
			lines = append(lines, fmt.Sprintf("Failed to export %s", strings.ToUpper(exp.Format())))
			continue
		}

		name := "weather_records." + exp.Format()
		path := filepath.Join(c.exportDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Printf("export %s write failed: %v", exp.Format(), err)
			lines = append(lines, fmt.Sprintf("Failed to export %s", strings.ToUpper(exp.Format())))
			continue
		}

		lines = append(lines, fmt.Sprintf("Exported file: %s", name))
	}

	return Reply{Text: strings.Join(lines, "\n")}
}

// ParseIDList parses a comma-separated list of integer ids and hyphenated
// ranges ("4-6", either endpoint first). Invalid tokens are silently skipped
// and duplicates collapse. The result is sorted ascending.
func ParseIDList(s string) []int64 {
	seen := make(map[int64]struct{})

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, errA := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
			b, errB := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
			if errA != nil || errB != nil {
				continue
			}
			if a > b {
				a, b = b, a
			}
			for x := a; x <= b; x++ {
				seen[x] = struct{}{}
			}
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		seen[id] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func joinIDs(ids []int64, sep string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, sep)
}
