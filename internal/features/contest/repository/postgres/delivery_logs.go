package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

const deliveryLogColumns = `
	id, contest_id, cycle_id, entry_id, user_vk_id, user_name, promo_code, description, status,
	channel, error_details, attempts, winner_post_link, results_post_link, created_at, updated_at`

func scanDeliveryLog(row scanner) (*models.DeliveryLog, error) {
	var l models.DeliveryLog
	err := row.Scan(&l.ID, &l.ContestID, &l.CycleID, &l.EntryID, &l.UserVkID, &l.UserName, &l.PromoCode,
		&l.Description, &l.Status, &l.Channel, &l.ErrorDetails, &l.Attempts, &l.WinnerPostLink,
		&l.ResultsPostLink, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepository) GetDeliveryLog(ctx context.Context, id string) (*models.DeliveryLog, error) {
	query := `SELECT ` + deliveryLogColumns + ` FROM delivery_logs WHERE id = $1`

	log, err := scanDeliveryLog(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrDeliveryLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery log: %w", err)
	}
	return log, nil
}

func (r *postgresRepository) ListDeliveryLogs(ctx context.Context, contestID string) ([]*models.DeliveryLog, error) {
	query := `SELECT ` + deliveryLogColumns + ` FROM delivery_logs WHERE contest_id = $1 ORDER BY created_at DESC, id`
	return r.queryDeliveryLogs(ctx, query, contestID)
}

func (r *postgresRepository) ListCycleDeliveryLogs(ctx context.Context, cycleID string) ([]*models.DeliveryLog, error) {
	query := `SELECT ` + deliveryLogColumns + ` FROM delivery_logs WHERE cycle_id = $1 ORDER BY created_at, id`
	return r.queryDeliveryLogs(ctx, query, cycleID)
}

// ListFailedDeliveries записи в статусе error, только их повторяет массовая отправка
func (r *postgresRepository) ListFailedDeliveries(ctx context.Context, contestID string) ([]*models.DeliveryLog, error) {
	query := `SELECT ` + deliveryLogColumns + `
		FROM delivery_logs
		WHERE contest_id = $1 AND status = 'error'
		ORDER BY created_at, id`
	return r.queryDeliveryLogs(ctx, query, contestID)
}

// FailStalePending переводит в error записи, зависшие в pending после сбоя процесса
func (r *postgresRepository) FailStalePending(ctx context.Context, staleBefore time.Time, details string) (int64, error) {
	query := `
		UPDATE delivery_logs
		SET status = 'error', error_details = $2, updated_at = NOW()
		WHERE status = 'pending' AND updated_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, staleBefore, details)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale deliveries: %w", err)
	}
	return res.RowsAffected()
}

func (r *postgresRepository) queryDeliveryLogs(ctx context.Context, query string, args ...interface{}) ([]*models.DeliveryLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DeliveryLog
	for rows.Next() {
		log, err := scanDeliveryLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// MarkPending готовит запись к новой попытке. Отправленные записи не меняются.
func (r *postgresRepository) MarkPending(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE delivery_logs
		SET status = 'pending', error_details = '', updated_at = NOW()
		WHERE id = $1 AND status <> 'sent'
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery pending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected == 1, nil
}

// SaveOutcome записывает результат попытки. Код и получатель не обновляются.
func (r *postgresRepository) SaveOutcome(ctx context.Context, id string, outcome models.DeliveryOutcome) error {
	query := `
		UPDATE delivery_logs
		SET status = $2, channel = $3, error_details = $4, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1 AND status <> 'sent'
	`
	res, err := r.db.ExecContext(ctx, query, id, outcome.Status, outcome.Channel, outcome.ErrorDetails)
	if err != nil {
		return fmt.Errorf("failed to save delivery outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrDeliveryLogNotFound
	}
	return nil
}

// ClearDeliveryLogs удаляет завершенные записи, pending остаются
func (r *postgresRepository) ClearDeliveryLogs(ctx context.Context, contestID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM delivery_logs WHERE contest_id = $1 AND status <> 'pending'`, contestID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear delivery logs: %w", err)
	}
	return res.RowsAffected()
}
