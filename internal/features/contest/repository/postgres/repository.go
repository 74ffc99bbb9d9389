package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.Repository {
	return &postgresRepository{db: db}
}

// scanner общий интерфейс sql.Row и sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const contestColumns = `
	id, project_id, group_id, title, kind, is_active, status, start_spec, conditions,
	finish_policy, winners_count, unique_winner, is_cyclic, restart_delay_hours,
	templates, active_cycle_id, entry_seq, created_at, updated_at`

func scanContest(row scanner) (*models.Contest, error) {
	var c models.Contest
	var startSpec, conditions, finish, templates []byte
	var activeCycleID sql.NullString

	err := row.Scan(
		&c.ID, &c.ProjectID, &c.GroupID, &c.Title, &c.Kind, &c.IsActive, &c.Status,
		&startSpec, &conditions, &finish, &c.WinnersCount, &c.UniqueWinner, &c.IsCyclic,
		&c.RestartDelayHours, &templates, &activeCycleID, &c.EntrySeq, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(startSpec, &c.Start); err != nil {
		return nil, fmt.Errorf("failed to decode start spec: %w", err)
	}
	if err := json.Unmarshal(conditions, &c.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode conditions: %w", err)
	}
	if err := json.Unmarshal(finish, &c.Finish); err != nil {
		return nil, fmt.Errorf("failed to decode finish policy: %w", err)
	}
	if err := json.Unmarshal(templates, &c.Templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}
	if activeCycleID.Valid {
		c.ActiveCycleID = &activeCycleID.String
	}

	return &c, nil
}

// CreateContest сохраняет конкурс и его первый цикл
func (r *postgresRepository) CreateContest(ctx context.Context, contest *models.Contest, cycle *models.Cycle) error {
	startSpec, err := json.Marshal(contest.Start)
	if err != nil {
		return fmt.Errorf("failed to encode start spec: %w", err)
	}
	conditions, err := json.Marshal(contest.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode conditions: %w", err)
	}
	finish, err := json.Marshal(contest.Finish)
	if err != nil {
		return fmt.Errorf("failed to encode finish policy: %w", err)
	}
	templates, err := json.Marshal(contest.Templates)
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO contests (id, project_id, group_id, title, kind, is_active, status, start_spec,
			conditions, finish_policy, winners_count, unique_winner, is_cyclic, restart_delay_hours,
			templates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`
	_, err = tx.ExecContext(ctx, query,
		contest.ID, contest.ProjectID, contest.GroupID, contest.Title, contest.Kind, contest.IsActive,
		contest.Status, startSpec, conditions, finish, contest.WinnersCount, contest.UniqueWinner,
		contest.IsCyclic, contest.RestartDelayHours, templates, contest.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contest: %w", err)
	}

	if cycle != nil {
		if err := insertCycle(ctx, tx, cycle); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if cycle != nil {
		contest.ActiveCycleID = &cycle.ID
	}
	return nil
}

// GetContest получает конкурс по ID
func (r *postgresRepository) GetContest(ctx context.Context, id string) (*models.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE id = $1`

	contest, err := scanContest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contest: %w", err)
	}
	return contest, nil
}

func (r *postgresRepository) ListContests(ctx context.Context, projectID string) ([]*models.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE project_id = $1 ORDER BY created_at DESC`
	return r.queryContests(ctx, query, projectID)
}

func (r *postgresRepository) ListFinalizable(ctx context.Context) ([]*models.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM contests WHERE is_active AND status = 'active' ORDER BY created_at`
	return r.queryContests(ctx, query)
}

func (r *postgresRepository) queryContests(ctx context.Context, query string, args ...interface{}) ([]*models.Contest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	defer rows.Close()

	var contests []*models.Contest
	for rows.Next() {
		contest, err := scanContest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contest: %w", err)
		}
		contests = append(contests, contest)
	}
	return contests, rows.Err()
}

func (r *postgresRepository) SetContestActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE contests SET is_active = $2, updated_at = NOW() WHERE id = $1`
	return r.execContestUpdate(ctx, query, id, active)
}

func (r *postgresRepository) SetContestStatus(ctx context.Context, id string, status models.ContestStatus) error {
	query := `UPDATE contests SET status = $2, updated_at = NOW() WHERE id = $1`
	return r.execContestUpdate(ctx, query, id, status)
}

func (r *postgresRepository) execContestUpdate(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrContestNotFound
	}
	return nil
}
