package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store reads and writes daily_metrics rows. Safe for concurrent use.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a Store. A nil logger falls back to slog.Default().
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

const upsertRecordSQL = `
INSERT INTO daily_metrics (atleta_id, fecha, carga_entrenamiento, hrv_ms, horas_sueno, rpe_fatiga)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (atleta_id, fecha) DO UPDATE SET
    carga_entrenamiento = EXCLUDED.carga_entrenamiento,
    hrv_ms = EXCLUDED.hrv_ms,
    horas_sueno = EXCLUDED.horas_sueno,
    rpe_fatiga = EXCLUDED.rpe_fatiga`

// Upsert writes one athlete-day, replacing any existing row for that day.
func (s *Store) Upsert(ctx context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, upsertRecordSQL,
		r.AthleteID, r.Date, r.TrainingLoad, r.HRVMs, r.SleepHours, r.RPE)
	if err != nil {
		return fmt.Errorf("upsert metrics for %q: %w", r.AthleteID, err)
	}
	return nil
}

const rangeSQL = `
SELECT atleta_id, fecha, carga_entrenamiento, hrv_ms, horas_sueno, rpe_fatiga
FROM daily_metrics
WHERE atleta_id = $1 AND fecha >= $2 AND fecha <= $3
ORDER BY fecha ASC`

// Range returns the athlete's rows between from and to inclusive, oldest
// first. Returns ErrAthleteNotFound when the athlete has no rows at all.
func (s *Store) Range(ctx context.Context, athleteID string, from, to time.Time) ([]Record, error) {
	rows, err := s.db.Query(ctx, rangeSQL, athleteID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query metrics range for %q: %w", athleteID, err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		exists, err := s.exists(ctx, athleteID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %q", ErrAthleteNotFound, athleteID)
		}
	}
	return records, nil
}

const latestWindowSQL = `
SELECT atleta_id, fecha, carga_entrenamiento, hrv_ms, horas_sueno, rpe_fatiga
FROM (
    SELECT atleta_id, fecha, carga_entrenamiento, hrv_ms, horas_sueno, rpe_fatiga
    FROM daily_metrics
    WHERE atleta_id = $1
    ORDER BY fecha DESC
    LIMIT $2
) recent
ORDER BY fecha ASC`

// LatestWindow returns the athlete's most recent n days, oldest first.
// Returns ErrAthleteNotFound when the athlete has no rows.
func (s *Store) LatestWindow(ctx context.Context, athleteID string, n int) ([]Record, error) {
	if n < 1 {
		return nil, fmt.Errorf("metrics: window must be positive, got %d", n)
	}
	rows, err := s.db.Query(ctx, latestWindowSQL, athleteID, n)
	if err != nil {
		return nil, fmt.Errorf("query latest window for %q: %w", athleteID, err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrAthleteNotFound, athleteID)
	}
	return records, nil
}

// MaxVolume returns the athlete's highest recorded daily training load,
// the baseline for return-to-training caps.
func (s *Store) MaxVolume(ctx context.Context, athleteID string) (int, error) {
	var max *int
	err := s.db.QueryRow(ctx,
		`SELECT max(carga_entrenamiento) FROM daily_metrics WHERE atleta_id = $1`,
		athleteID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max volume for %q: %w", athleteID, err)
	}
	if max == nil {
		return 0, fmt.Errorf("%w: %q", ErrAthleteNotFound, athleteID)
	}
	return *max, nil
}

// Athletes lists the distinct athlete IDs with stored rows.
func (s *Store) Athletes(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT atleta_id FROM daily_metrics ORDER BY atleta_id`)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan athlete id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) exists(ctx context.Context, athleteID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM daily_metrics WHERE atleta_id = $1)`,
		athleteID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check athlete %q: %w", athleteID, err)
	}
	return ok, nil
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.AthleteID, &r.Date, &r.TrainingLoad, &r.HRVMs, &r.SleepHours, &r.RPE); err != nil {
			return nil, fmt.Errorf("scan metrics row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
