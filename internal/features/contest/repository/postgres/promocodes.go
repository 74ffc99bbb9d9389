package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"contest-tool-backend/internal/features/contest/models"
)

const promoCodeColumns = `
	id, contest_id, code, description, is_issued, issued_to_user_id, issued_at, cycle_id, created_at`

func scanPromoCode(row scanner) (*models.PromoCode, error) {
	var p models.PromoCode
	var issuedTo sql.NullInt64
	var issuedAt sql.NullTime
	var cycleID sql.NullString

	err := row.Scan(&p.ID, &p.ContestID, &p.Code, &p.Description, &p.IsIssued, &issuedTo,
		&issuedAt, &cycleID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if issuedTo.Valid {
		p.IssuedToUserID = &issuedTo.Int64
	}
	if issuedAt.Valid {
		p.IssuedAt = &issuedAt.Time
	}
	if cycleID.Valid {
		p.CycleID = &cycleID.String
	}
	return &p, nil
}

// AddPromoCodes добавляет коды в пул, существующие коды пропускаются
func (r *postgresRepository) AddPromoCodes(ctx context.Context, contestID string, codes []models.PromoCodeInput) (int, []string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO promo_codes (id, contest_id, code, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contest_id, code) DO NOTHING
	`

	// Коды одной пачки получают возрастающее время, чтобы порядок выдачи совпадал с порядком загрузки
	base := time.Now().UTC()
	added := 0
	var skipped []string
	for i, code := range codes {
		res, err := tx.ExecContext(ctx, query, uuid.New().String(), contestID, code.Code, code.Description,
			base.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			return 0, nil, fmt.Errorf("failed to add promo code: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, nil, fmt.Errorf("failed to get affected rows: %w", err)
		}
		if affected == 0 {
			skipped = append(skipped, code.Code)
			continue
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return added, skipped, nil
}

func (r *postgresRepository) ListPromoCodes(ctx context.Context, contestID string) ([]*models.PromoCode, error) {
	query := `SELECT ` + promoCodeColumns + ` FROM promo_codes WHERE contest_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.PromoCode
	for rows.Next() {
		code, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *postgresRepository) GetPromoCodeStats(ctx context.Context, contestID string) (models.PromoCodeStats, error) {
	var stats models.PromoCodeStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_issued)
		FROM promo_codes WHERE contest_id = $1`, contestID).Scan(&stats.Total, &stats.Issued)
	if err != nil {
		return stats, fmt.Errorf("failed to get promo code stats: %w", err)
	}
	stats.Unissued = stats.Total - stats.Issued
	return stats, nil
}

// DeletePromoCodes удаляет невыданные коды из списка.
// Выданные коды остаются и учитываются во втором значении.
func (r *postgresRepository) DeletePromoCodes(ctx context.Context, ids []string) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM promo_codes WHERE id = ANY($1) AND NOT is_issued`, pq.Array(ids))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete promo codes: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	var kept int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM promo_codes WHERE id = ANY($1) AND is_issued`, pq.Array(ids)).Scan(&kept)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count issued promo codes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(deleted), kept, nil
}

// ClearPromoCodes удаляет все невыданные коды конкурса
func (r *postgresRepository) ClearPromoCodes(ctx context.Context, contestID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM promo_codes WHERE contest_id = $1 AND NOT is_issued`, contestID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear promo codes: %w", err)
	}
	return res.RowsAffected()
}
