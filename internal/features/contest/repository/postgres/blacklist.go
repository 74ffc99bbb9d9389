package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

func (r *postgresRepository) ListBlacklist(ctx context.Context, contestID string) ([]*models.BlacklistEntry, error) {
	query := `
		SELECT id, contest_id, user_vk_id, until_date, created_at
		FROM contest_blacklist
		WHERE contest_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist: %w", err)
	}
	defer rows.Close()

	var entries []*models.BlacklistEntry
	for rows.Next() {
		var e models.BlacklistEntry
		var until sql.NullTime
		if err := rows.Scan(&e.ID, &e.ContestID, &e.UserVkID, &until, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		if until.Valid {
			e.UntilDate = &until.Time
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// AddToBlacklist добавляет пользователя, повторное добавление обновляет срок
func (r *postgresRepository) AddToBlacklist(ctx context.Context, entry *models.BlacklistEntry) error {
	query := `
		INSERT INTO contest_blacklist (id, contest_id, user_vk_id, until_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contest_id, user_vk_id) DO UPDATE SET until_date = EXCLUDED.until_date
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, entry.ID, entry.ContestID, entry.UserVkID, entry.UntilDate,
		entry.CreatedAt).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add to blacklist: %w", err)
	}
	return nil
}

func (r *postgresRepository) RemoveFromBlacklist(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contest_blacklist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove from blacklist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrBlacklistEntryNotFound
	}
	return nil
}
