package stats

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close() { db.Pool.Close() }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// InsertRun registers a training run and returns its id.
func (db *DB) InsertRun(ctx context.Context, name, objective string, actors, batchSize int) (int64, error) {
	var id int64
	err := db.QueryRow(ctx, `
        INSERT INTO training_runs(name, objective, actors, batch_size)
        VALUES ($1,$2,$3,$4)
        RETURNING id
    `, name, objective, actors, batchSize).Scan(&id)
	return id, err
}

// Sample is one per-role measurement of training progress.
type Sample struct {
	Role            string
	Frames          uint64
	FramesPerSec    float64
	Loss            float64
	SnapshotVersion uint64
	BufferFill      float64
}

// InsertSample appends one measurement for a run.
func (db *DB) InsertSample(ctx context.Context, runID int64, s Sample) error {
	_, err := db.Exec(ctx, `
        INSERT INTO training_samples(run_id, role, frames, frames_per_sec, loss, snapshot_version, buffer_fill)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, runID, s.Role, int64(s.Frames), s.FramesPerSec, s.Loss, int64(s.SnapshotVersion), s.BufferFill)
	return err
}
