package db

import (
	"context"
	"time"
)

type CreateEventParams struct {
	Origin     string
	Outcome    string
	SourceType string
	OutputType string
	SourceSize int64
	OutputSize int64
	CreatedAt  time.Time
}

// CreateEvent records one compression run.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	created := arg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO compression_events
	(origin, outcome, source_type, output_type, source_size, output_size, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Origin, arg.Outcome, arg.SourceType, arg.OutputType, arg.SourceSize, arg.OutputSize, timestamp(created),
	)
	return err
}

type EventSummary struct {
	Outcome     string
	Count       int64
	SourceBytes int64
	OutputBytes int64
}

// SummarizeEventsSince aggregates events created at or after since, one row
// per outcome.
func (q *Queries) SummarizeEventsSince(ctx context.Context, since time.Time) ([]EventSummary, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT outcome, COUNT(*), COALESCE(SUM(source_size), 0), COALESCE(SUM(output_size), 0)
	FROM compression_events
	WHERE created_at >= ?
	GROUP BY outcome
	ORDER BY outcome`, timestamp(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventSummary
	for rows.Next() {
		var s EventSummary
		if err := rows.Scan(&s.Outcome, &s.Count, &s.SourceBytes, &s.OutputBytes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteEventsBefore removes events older than cutoff.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM compression_events WHERE created_at < ?`, timestamp(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
