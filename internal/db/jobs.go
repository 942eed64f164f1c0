package db

import (
	"context"
	"time"
)

const jobColumns = `id, status, original_filename, source_type, source_size, temp_filepath, options,
	outcome, artifact_path, artifact_name, artifact_type, artifact_size, width, height,
	error_message, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (CompressionJob, error) {
	var j CompressionJob
	err := row.Scan(
		&j.ID, &j.Status, &j.OriginalFilename, &j.SourceType, &j.SourceSize, &j.TempFilepath, &j.Options,
		&j.Outcome, &j.ArtifactPath, &j.ArtifactName, &j.ArtifactType, &j.ArtifactSize, &j.Width, &j.Height,
		&j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
	)
	return j, err
}

type EnqueueJobParams struct {
	OriginalFilename string
	SourceType       string
	SourceSize       int64
	TempFilepath     string
	Options          string
	CreatedAt        time.Time
}

// EnqueueJob inserts a pending job.
func (q *Queries) EnqueueJob(ctx context.Context, arg EnqueueJobParams) (CompressionJob, error) {
	created := arg.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = timestamp(created)
	options := arg.Options
	if options == "" {
		options = "{}"
	}

	row := q.db.QueryRowContext(ctx, `INSERT INTO compression_jobs
	(original_filename, source_type, source_size, temp_filepath, options, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING `+jobColumns,
		arg.OriginalFilename, arg.SourceType, arg.SourceSize, arg.TempFilepath, options, created, created,
	)
	return scanJob(row)
}

// GetJob returns a job by id.
func (q *Queries) GetJob(ctx context.Context, id int64) (CompressionJob, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM compression_jobs WHERE id = ?`, id)
	return scanJob(row)
}

// GetNextPendingJob marks the oldest pending job as processing and returns
// it. It returns sql.ErrNoRows when the queue is empty.
func (q *Queries) GetNextPendingJob(ctx context.Context) (CompressionJob, error) {
	row := q.db.QueryRowContext(ctx, `UPDATE compression_jobs
	SET status = 'processing', updated_at = ?
	WHERE id = (SELECT id FROM compression_jobs WHERE status = 'pending' ORDER BY id LIMIT 1)
	RETURNING `+jobColumns, timestamp(time.Now()))
	return scanJob(row)
}

type CompleteJobParams struct {
	ID           int64
	Outcome      string
	ArtifactPath string
	ArtifactName string
	ArtifactType string
	ArtifactSize int64
	Width        int64
	Height       int64
}

// CompleteJob records the artifact of a processed job.
func (q *Queries) CompleteJob(ctx context.Context, arg CompleteJobParams) error {
	now := timestamp(time.Now())
	_, err := q.db.ExecContext(ctx, `UPDATE compression_jobs
	SET status = 'completed', outcome = ?, artifact_path = ?, artifact_name = ?, artifact_type = ?,
		artifact_size = ?, width = ?, height = ?, error_message = NULL, updated_at = ?, completed_at = ?
	WHERE id = ?`,
		arg.Outcome, arg.ArtifactPath, arg.ArtifactName, arg.ArtifactType,
		arg.ArtifactSize, arg.Width, arg.Height, now, now, arg.ID,
	)
	return err
}

// FailJob marks a job as failed with msg.
func (q *Queries) FailJob(ctx context.Context, id int64, msg string) error {
	now := timestamp(time.Now())
	_, err := q.db.ExecContext(ctx, `UPDATE compression_jobs
	SET status = 'failed', error_message = ?, updated_at = ?, completed_at = ?
	WHERE id = ?`, msg, now, now, id)
	return err
}

// RequeueProcessingJobs returns jobs interrupted mid-processing to the
// pending state and reports how many were moved.
func (q *Queries) RequeueProcessingJobs(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE compression_jobs
	SET status = 'pending', updated_at = ?
	WHERE status = 'processing'`, timestamp(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteFinishedJobsBefore removes completed and failed jobs created before
// cutoff and returns them so their files can be removed.
func (q *Queries) DeleteFinishedJobsBefore(ctx context.Context, cutoff time.Time) ([]CompressionJob, error) {
	rows, err := q.db.QueryContext(ctx, `DELETE FROM compression_jobs
	WHERE status IN ('completed', 'failed') AND created_at < ?
	RETURNING `+jobColumns, timestamp(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []CompressionJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CountJobsByStatus returns the number of jobs in each status.
func (q *Queries) CountJobsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM compression_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListActiveUploads returns the upload paths of jobs that are still pending
// or processing.
func (q *Queries) ListActiveUploads(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT temp_filepath FROM compression_jobs
	WHERE status IN ('pending', 'processing')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
