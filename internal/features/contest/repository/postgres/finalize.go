package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

type reservedCode struct {
	id          string
	code        string
	description string
}

// CommitFinalize фиксирует итоги цикла одной транзакцией.
// Цикл должен находиться в evaluating. Коды берутся в порядке загрузки (created_at, id).
func (r *postgresRepository) CommitFinalize(ctx context.Context, commit *repository.FinalizeCommit) ([]*models.DeliveryLog, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status models.CycleStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM contest_cycles WHERE id = $1 FOR UPDATE`, commit.CycleID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, repository.ErrCycleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock cycle: %w", err)
	}
	if status != models.CycleStatusEvaluating {
		return nil, repository.ErrCycleNotEvaluating
	}

	codes, err := reserveCodes(ctx, tx, commit.ContestID, len(commit.Winners))
	if err != nil {
		return nil, err
	}

	snapshot := make([]models.WinnerSnapshot, 0, len(commit.Winners))
	logs := make([]*models.DeliveryLog, 0, len(commit.Winners))

	for i, winner := range commit.Winners {
		code := codes[i]

		res, err := tx.ExecContext(ctx, `
			UPDATE promo_codes
			SET is_issued = TRUE, issued_to_user_id = $2, issued_at = $3, cycle_id = $4
			WHERE id = $1 AND NOT is_issued`,
			code.id, winner.UserVkID, commit.FinishedAt, commit.CycleID)
		if err != nil {
			return nil, fmt.Errorf("failed to issue promo code: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected != 1 {
			return nil, fmt.Errorf("promo code %s was issued concurrently", code.id)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE contest_entries SET status = 'winner' WHERE id = $1`, winner.ID); err != nil {
			return nil, fmt.Errorf("failed to mark winner entry: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO contest_winners (contest_id, cycle_id, user_vk_id, entry_id, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			commit.ContestID, commit.CycleID, winner.UserVkID, winner.ID, commit.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to record winner: %w", err)
		}

		log := &models.DeliveryLog{
			ID:             uuid.New().String(),
			ContestID:      commit.ContestID,
			CycleID:        commit.CycleID,
			EntryID:        winner.ID,
			UserVkID:       winner.UserVkID,
			UserName:       winner.UserName,
			PromoCode:      code.code,
			Description:    code.description,
			Status:         models.DeliveryStatusPending,
			WinnerPostLink: commit.WinnerPostLinks[winner.ID],
			CreatedAt:      commit.FinishedAt,
			UpdatedAt:      commit.FinishedAt,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO delivery_logs (id, contest_id, cycle_id, entry_id, user_vk_id, user_name,
				promo_code, description, status, winner_post_link, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
			log.ID, log.ContestID, log.CycleID, log.EntryID, log.UserVkID, log.UserName,
			log.PromoCode, log.Description, log.Status, log.WinnerPostLink, log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to create delivery log: %w", err)
		}
		logs = append(logs, log)

		snapshot = append(snapshot, models.WinnerSnapshot{
			EntryID:     winner.ID,
			UserVkID:    winner.UserVkID,
			UserName:    winner.UserName,
			EntryNumber: winner.EntryNumber,
			PromoCode:   code.code,
			Description: code.description,
		})
	}

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode winners snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE contest_cycles
		SET status = 'finished', finished_at = $2, participants_count = $3, winners_snapshot = $4
		WHERE id = $1`,
		commit.CycleID, commit.FinishedAt, commit.ParticipantsCount, snapshotJSON); err != nil {
		return nil, fmt.Errorf("failed to finish cycle: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE contests SET status = 'active', active_cycle_id = NULL, updated_at = $2
		WHERE id = $1`, commit.ContestID, commit.FinishedAt); err != nil {
		return nil, fmt.Errorf("failed to update contest: %w", err)
	}

	if commit.NextCycle != nil {
		if err := insertCycle(ctx, tx, commit.NextCycle); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return logs, nil
}

// reserveCodes блокирует n невыданных кодов. Если кодов меньше, возвращает ErrInsufficientCodes.
func reserveCodes(ctx context.Context, tx *sql.Tx, contestID string, n int) ([]reservedCode, error) {
	if n == 0 {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, code, description
		FROM promo_codes
		WHERE contest_id = $1 AND NOT is_issued
		ORDER BY created_at, id
		LIMIT $2
		FOR UPDATE`, contestID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve promo codes: %w", err)
	}
	defer rows.Close()

	codes := make([]reservedCode, 0, n)
	for rows.Next() {
		var c reservedCode
		if err := rows.Scan(&c.id, &c.code, &c.description); err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read promo codes: %w", err)
	}

	if len(codes) < n {
		return nil, repository.ErrInsufficientCodes
	}
	return codes, nil
}

// PauseNoCodes останавливает конкурс до пополнения кодов и освобождает цикл
func (r *postgresRepository) PauseNoCodes(ctx context.Context, contestID, cycleID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE contests SET status = 'paused_no_codes', updated_at = NOW() WHERE id = $1`,
		contestID); err != nil {
		return fmt.Errorf("failed to pause contest: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE contest_cycles
		SET status = 'active', evaluation_started_at = NULL
		WHERE id = $1 AND status = 'evaluating'`, cycleID); err != nil {
		return fmt.Errorf("failed to release cycle: %w", err)
	}

	return tx.Commit()
}
