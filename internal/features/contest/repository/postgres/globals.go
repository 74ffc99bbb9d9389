package postgres

import (
	"context"
	"fmt"
)

func (r *postgresRepository) GetGlobals(ctx context.Context, projectID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM project_globals WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get globals: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan global: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}

func (r *postgresRepository) ReplaceGlobals(ctx context.Context, projectID string, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_globals WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to delete globals: %w", err)
	}

	for key, value := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_globals (project_id, key, value, updated_at) VALUES ($1, $2, $3, NOW())`,
			projectID, key, value)
		if err != nil {
			return fmt.Errorf("failed to insert global %s: %w", key, err)
		}
	}

	return tx.Commit()
}
