package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matsen/refline/internal/referee"
	"github.com/matsen/refline/internal/timeline"
)

// DB wraps the SQLite mirror of assembled timelines. The mirror is
// derived data: it can always be rebuilt from the timeline JSON files.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS timelines (
			manuscript TEXT PRIMARY KEY,
			phase_name TEXT NOT NULL,
			phase_action TEXT NOT NULL,
			urgency TEXT NOT NULL,
			days_in_phase INTEGER,
			event_count INTEGER NOT NULL,
			warning_count INTEGER NOT NULL,
			timeline_json TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS referees (
			manuscript TEXT NOT NULL,
			referee TEXT NOT NULL,
			status TEXT NOT NULL,
			invited_date TEXT,
			response_date TEXT,
			report_date TEXT,
			recommendation TEXT,
			PRIMARY KEY (manuscript, referee)
		);

		CREATE INDEX IF NOT EXISTS idx_referees_status ON referees(status);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// SaveTimeline upserts a timeline and its referee rows.
func (d *DB) SaveTimeline(tl *timeline.Timeline) error {
	data, err := json.Marshal(tl)
	if err != nil {
		return fmt.Errorf("encoding timeline: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var days any
	if tl.Phase.DaysInPhase != nil {
		days = *tl.Phase.DaysInPhase
	}

	_, err = tx.Exec(`
		INSERT INTO timelines (manuscript, phase_name, phase_action, urgency,
			days_in_phase, event_count, warning_count, timeline_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(manuscript) DO UPDATE SET
			phase_name = excluded.phase_name,
			phase_action = excluded.phase_action,
			urgency = excluded.urgency,
			days_in_phase = excluded.days_in_phase,
			event_count = excluded.event_count,
			warning_count = excluded.warning_count,
			timeline_json = excluded.timeline_json`,
		tl.Manuscript, string(tl.Phase.Name), tl.Phase.Action, string(tl.Phase.Urgency),
		days, len(tl.Events), len(tl.Warnings), string(data))
	if err != nil {
		return fmt.Errorf("upserting timeline: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM referees WHERE manuscript = ?`, tl.Manuscript); err != nil {
		return fmt.Errorf("clearing referees: %w", err)
	}

	for _, s := range tl.Referees {
		_, err := tx.Exec(`
			INSERT INTO referees (manuscript, referee, status,
				invited_date, response_date, report_date, recommendation)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tl.Manuscript, s.Referee, string(s.Status),
			dateOrNil(s.InvitedDate), dateOrNil(s.ResponseDate), dateOrNil(s.ReportDate),
			s.Recommendation)
		if err != nil {
			return fmt.Errorf("inserting referee %s: %w", s.Referee, err)
		}
	}

	return tx.Commit()
}

// GetTimeline loads one manuscript's timeline from the mirror.
func (d *DB) GetTimeline(manuscript string) (*timeline.Timeline, error) {
	var data string
	err := d.db.QueryRow(
		`SELECT timeline_json FROM timelines WHERE manuscript = ?`, manuscript,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("manuscript %q not found", manuscript)
	}
	if err != nil {
		return nil, fmt.Errorf("querying timeline: %w", err)
	}

	var tl timeline.Timeline
	if err := json.Unmarshal([]byte(data), &tl); err != nil {
		return nil, fmt.Errorf("parsing stored timeline: %w", err)
	}
	return &tl, nil
}

// TimelineSummary is one row of the manuscript overview.
type TimelineSummary struct {
	Manuscript   string `json:"manuscript"`
	PhaseName    string `json:"phase_name"`
	PhaseAction  string `json:"phase_action"`
	Urgency      string `json:"urgency"`
	DaysInPhase  *int   `json:"days_in_phase,omitempty"`
	EventCount   int    `json:"event_count"`
	WarningCount int    `json:"warning_count"`
}

// ListTimelines returns a summary row per stored manuscript, ordered by
// manuscript identifier.
func (d *DB) ListTimelines() ([]TimelineSummary, error) {
	rows, err := d.db.Query(`
		SELECT manuscript, phase_name, phase_action, urgency,
			days_in_phase, event_count, warning_count
		FROM timelines ORDER BY manuscript`)
	if err != nil {
		return nil, fmt.Errorf("querying timelines: %w", err)
	}
	defer rows.Close()

	var out []TimelineSummary
	for rows.Next() {
		var s TimelineSummary
		var days sql.NullInt64
		if err := rows.Scan(&s.Manuscript, &s.PhaseName, &s.PhaseAction,
			&s.Urgency, &days, &s.EventCount, &s.WarningCount); err != nil {
			return nil, fmt.Errorf("scanning timeline row: %w", err)
		}
		if days.Valid {
			v := int(days.Int64)
			s.DaysInPhase = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RefereesByStatus returns referee rows across all manuscripts in the
// given status, ordered by manuscript then referee.
func (d *DB) RefereesByStatus(status referee.Status) ([]RefereeRow, error) {
	rows, err := d.db.Query(`
		SELECT manuscript, referee, status, invited_date, response_date, report_date
		FROM referees WHERE status = ? ORDER BY manuscript, referee`, string(status))
	if err != nil {
		return nil, fmt.Errorf("querying referees: %w", err)
	}
	defer rows.Close()

	var out []RefereeRow
	for rows.Next() {
		var r RefereeRow
		if err := rows.Scan(&r.Manuscript, &r.Referee, &r.Status,
			&r.InvitedDate, &r.ResponseDate, &r.ReportDate); err != nil {
			return nil, fmt.Errorf("scanning referee row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RefereeRow is one referee lifecycle row from the mirror.
type RefereeRow struct {
	Manuscript   string         `json:"manuscript"`
	Referee      string         `json:"referee"`
	Status       string         `json:"status"`
	InvitedDate  sql.NullString `json:"invited_date"`
	ResponseDate sql.NullString `json:"response_date"`
	ReportDate   sql.NullString `json:"report_date"`
}

func dateOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
