package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Outcome labels how a generation attempt ended.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeMalformed      Outcome = "malformed_response"
	OutcomeError          Outcome = "error"
)

const timestampLayout = "2006-01-02 15:04:05"

// GenerationMetric records metadata for a single menu generation attempt.
type GenerationMetric struct {
	RequestID  string
	Location   string
	Season     string
	PlaceType  string
	Outcome    Outcome
	StatusCode int
	LatencyMS  int64
	Timestamp  time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m GenerationMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_metrics
			(request_id, location, season, place_type, outcome, status_code, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RequestID, m.Location, m.Season, m.PlaceType, string(m.Outcome),
		m.StatusCode, m.LatencyMS, ts.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation metric: %w", err)
	}
	return nil
}

// DailyUsage summarizes generation attempts for a single day.
type DailyUsage struct {
	Date         string
	Total        int
	Failures     int
	AvgLatencyMS int64
}

// GetDailyUsage retrieves usage for the last N days, newest day first.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(timestampLayout)
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(created_at, 1, 10) AS day,
		       COUNT(*),
		       SUM(CASE WHEN outcome = ? THEN 0 ELSE 1 END),
		       CAST(AVG(latency_ms) AS INTEGER)
		FROM generation_metrics
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day DESC`,
		string(OutcomeSuccess), since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.Total, &u.Failures, &u.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(timestampLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM generation_metrics WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	return res.RowsAffected()
}
