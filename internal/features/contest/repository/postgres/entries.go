package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

const entryColumns = `
	id, contest_id, cycle_id, user_vk_id, user_name, post_owner_id, post_id, comment_id,
	post_link, entry_number, status, created_at`

func scanEntry(row scanner) (*models.Entry, error) {
	var e models.Entry
	err := row.Scan(&e.ID, &e.ContestID, &e.CycleID, &e.UserVkID, &e.UserName, &e.Post.OwnerID,
		&e.Post.PostID, &e.Post.CommentID, &e.Post.Link, &e.EntryNumber, &e.Status, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEntry выдает заявке следующий номер из счетчика конкурса.
// Счетчик не сбрасывается при очистке участников, номера не повторяются.
func (r *postgresRepository) CreateEntry(ctx context.Context, entry *models.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var number int64
	err = tx.QueryRowContext(ctx,
		`UPDATE contests SET entry_seq = entry_seq + 1 WHERE id = $1 RETURNING entry_seq`,
		entry.ContestID).Scan(&number)
	if err == sql.ErrNoRows {
		return repository.ErrContestNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to allocate entry number: %w", err)
	}

	query := `
		INSERT INTO contest_entries (id, contest_id, cycle_id, user_vk_id, user_name, post_owner_id,
			post_id, comment_id, post_link, entry_number, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, query, entry.ID, entry.ContestID, entry.CycleID, entry.UserVkID,
		entry.UserName, entry.Post.OwnerID, entry.Post.PostID, entry.Post.CommentID, entry.Post.Link,
		number, entry.Status, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	entry.EntryNumber = number
	return nil
}

func (r *postgresRepository) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM contest_entries WHERE id = $1`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

func (r *postgresRepository) ListEntries(ctx context.Context, contestID string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM contest_entries WHERE contest_id = $1 ORDER BY entry_number`
	return r.queryEntries(ctx, query, contestID)
}

// ListCandidates заявки цикла, которые могут участвовать в выборе победителя
func (r *postgresRepository) ListCandidates(ctx context.Context, cycleID string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM contest_entries
		WHERE cycle_id = $1 AND status IN ('new', 'commented')
		ORDER BY entry_number`
	return r.queryEntries(ctx, query, cycleID)
}

func (r *postgresRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountParticipants число заявок цикла, кроме ошибочных
func (r *postgresRepository) CountParticipants(ctx context.Context, cycleID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contest_entries WHERE cycle_id = $1 AND status <> 'error'`,
		cycleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// ClearEntries удаляет заявки, кроме победных: на них ссылаются журнал доставки и история побед
func (r *postgresRepository) ClearEntries(ctx context.Context, contestID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM contest_entries WHERE contest_id = $1 AND status NOT IN ('winner', 'used')`,
		contestID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear entries: %w", err)
	}
	return res.RowsAffected()
}

func (r *postgresRepository) ListWinnerUserIDs(ctx context.Context, contestID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_vk_id FROM contest_winners WHERE contest_id = $1`, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
