package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the service's SQL against a DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Job statuses.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

type CompressionJob struct {
	ID               int64
	Status           string
	OriginalFilename string
	SourceType       string
	SourceSize       int64
	TempFilepath     string
	Options          string
	Outcome          sql.NullString
	ArtifactPath     sql.NullString
	ArtifactName     sql.NullString
	ArtifactType     sql.NullString
	ArtifactSize     sql.NullInt64
	Width            sql.NullInt64
	Height           sql.NullInt64
	ErrorMessage     sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      sql.NullTime
}

type CompressionEvent struct {
	ID         int64
	Origin     string
	Outcome    string
	SourceType string
	OutputType string
	SourceSize int64
	OutputSize int64
	CreatedAt  time.Time
}

// timestamp normalises times written to DATETIME columns so that stored
// values compare correctly as text.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
