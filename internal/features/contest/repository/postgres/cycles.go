package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

// querier общий интерфейс *sql.DB и *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const cycleColumns = `
	id, contest_id, status, started_at, deadline_at, evaluation_started_at, finished_at,
	participants_count, winners_snapshot, result_post_link, created_at`

func scanCycle(row scanner) (*models.Cycle, error) {
	var c models.Cycle
	var deadline, evaluationStarted, finished sql.NullTime
	var snapshot []byte

	err := row.Scan(&c.ID, &c.ContestID, &c.Status, &c.StartedAt, &deadline, &evaluationStarted,
		&finished, &c.ParticipantsCount, &snapshot, &c.ResultPostLink, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if deadline.Valid {
		c.DeadlineAt = &deadline.Time
	}
	if evaluationStarted.Valid {
		c.EvaluationStartedAt = &evaluationStarted.Time
	}
	if finished.Valid {
		c.FinishedAt = &finished.Time
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &c.WinnersSnapshot); err != nil {
			return nil, fmt.Errorf("failed to decode winners snapshot: %w", err)
		}
	}

	return &c, nil
}

func insertCycle(ctx context.Context, q querier, cycle *models.Cycle) error {
	query := `
		INSERT INTO contest_cycles (id, contest_id, status, started_at, deadline_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query, cycle.ID, cycle.ContestID, cycle.Status, cycle.StartedAt,
		cycle.DeadlineAt, cycle.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrOpenCycleExists
		}
		return fmt.Errorf("failed to create cycle: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`UPDATE contests SET active_cycle_id = $2, updated_at = NOW() WHERE id = $1`,
		cycle.ContestID, cycle.ID)
	if err != nil {
		return fmt.Errorf("failed to set active cycle: %w", err)
	}

	return nil
}

func (r *postgresRepository) CreateCycle(ctx context.Context, cycle *models.Cycle) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertCycle(ctx, tx, cycle); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *postgresRepository) GetCycle(ctx context.Context, id string) (*models.Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM contest_cycles WHERE id = $1`

	cycle, err := scanCycle(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrCycleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return cycle, nil
}

// GetOpenCycle возвращает цикл в статусе active или evaluating
func (r *postgresRepository) GetOpenCycle(ctx context.Context, contestID string) (*models.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM contest_cycles
		WHERE contest_id = $1 AND status IN ('active', 'evaluating')`

	cycle, err := scanCycle(r.db.QueryRowContext(ctx, query, contestID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNoOpenCycle
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open cycle: %w", err)
	}
	return cycle, nil
}

func (r *postgresRepository) ListCycles(ctx context.Context, contestID string) ([]*models.Cycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM contest_cycles WHERE contest_id = $1 ORDER BY created_at DESC`
	return r.queryCycles(ctx, query, contestID)
}

func (r *postgresRepository) ListDueCreatedCycles(ctx context.Context, now time.Time) ([]*models.Cycle, error) {
	query := `SELECT ` + cycleColumns + `
		FROM contest_cycles
		WHERE status = 'created' AND started_at <= $1
		ORDER BY started_at`
	return r.queryCycles(ctx, query, now)
}

func (r *postgresRepository) queryCycles(ctx context.Context, query string, args ...interface{}) ([]*models.Cycle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*models.Cycle
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}

// TryStartEvaluation захватывает цикл для подведения итогов
func (r *postgresRepository) TryStartEvaluation(ctx context.Context, cycleID string, now time.Time) (bool, error) {
	query := `
		UPDATE contest_cycles
		SET status = 'evaluating', evaluation_started_at = $2
		WHERE id = $1 AND status = 'active'
	`
	res, err := r.db.ExecContext(ctx, query, cycleID, now)
	if err != nil {
		return false, fmt.Errorf("failed to start evaluation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected == 1, nil
}

func (r *postgresRepository) ReleaseEvaluation(ctx context.Context, cycleID string) error {
	query := `
		UPDATE contest_cycles
		SET status = 'active', evaluation_started_at = NULL
		WHERE id = $1 AND status = 'evaluating'
	`
	if _, err := r.db.ExecContext(ctx, query, cycleID); err != nil {
		return fmt.Errorf("failed to release evaluation: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateDeadline(ctx context.Context, cycleID string, deadline time.Time) error {
	query := `UPDATE contest_cycles SET deadline_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, cycleID, deadline); err != nil {
		return fmt.Errorf("failed to update deadline: %w", err)
	}
	return nil
}

// ActivateCycle запускает отложенный цикл.
// Если у конкурса уже есть открытый цикл, возвращает ErrOpenCycleExists.
func (r *postgresRepository) ActivateCycle(ctx context.Context, cycleID string, startedAt time.Time, deadline *time.Time) (bool, error) {
	query := `
		UPDATE contest_cycles
		SET status = 'active', started_at = $2, deadline_at = $3
		WHERE id = $1 AND status = 'created'
	`
	res, err := r.db.ExecContext(ctx, query, cycleID, startedAt, deadline)
	if err != nil {
		if isUniqueViolation(err) {
			return false, repository.ErrOpenCycleExists
		}
		return false, fmt.Errorf("failed to activate cycle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected == 1, nil
}

func (r *postgresRepository) ResetStaleEvaluations(ctx context.Context, startedBefore time.Time) (int64, error) {
	query := `
		UPDATE contest_cycles
		SET status = 'active', evaluation_started_at = NULL
		WHERE status = 'evaluating' AND evaluation_started_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, startedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale evaluations: %w", err)
	}
	return res.RowsAffected()
}

func (r *postgresRepository) ArchiveCreatedCycles(ctx context.Context, contestID string) (int64, error) {
	query := `UPDATE contest_cycles SET status = 'archived' WHERE contest_id = $1 AND status = 'created'`
	res, err := r.db.ExecContext(ctx, query, contestID)
	if err != nil {
		return 0, fmt.Errorf("failed to archive cycles: %w", err)
	}
	return res.RowsAffected()
}

func (r *postgresRepository) SetResultPostLink(ctx context.Context, cycleID, link string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE contest_cycles SET result_post_link = $2 WHERE id = $1`, cycleID, link); err != nil {
		return fmt.Errorf("failed to set result post link: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE delivery_logs SET results_post_link = $2 WHERE cycle_id = $1`, cycleID, link); err != nil {
		return fmt.Errorf("failed to set results link on delivery logs: %w", err)
	}

	return tx.Commit()
}
