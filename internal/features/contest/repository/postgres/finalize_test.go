package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

func newMockRepo(t *testing.T) (repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func testCommit(winners ...*models.Entry) *repository.FinalizeCommit {
	return &repository.FinalizeCommit{
		ContestID:         "c1",
		CycleID:           "cy1",
		Winners:           winners,
		ParticipantsCount: 10,
		FinishedAt:        time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		WinnerPostLinks:   map[string]string{"e1": "https://vk.com/wall-1_10"},
	}
}

func TestCommitFinalize_IssuesCodesInOneTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	commit := testCommit(&models.Entry{ID: "e1", UserVkID: 42, UserName: "Иван Петров", EntryNumber: 7})

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM contest_cycles WHERE id = .+ FOR UPDATE`).
		WithArgs("cy1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("evaluating"))
	mock.ExpectQuery(`SELECT id, code, description FROM promo_codes .+ ORDER BY created_at, id LIMIT .+ FOR UPDATE`).
		WithArgs("c1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "description"}).AddRow("p1", "PROMO-1", "Скидка 10%"))
	mock.ExpectExec(`UPDATE promo_codes SET is_issued = TRUE`).
		WithArgs("p1", int64(42), commit.FinishedAt, "cy1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE contest_entries SET status = 'winner'`).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO contest_winners`).
		WithArgs("c1", "cy1", int64(42), "e1", commit.FinishedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO delivery_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE contest_cycles SET status = 'finished'`).
		WithArgs("cy1", commit.FinishedAt, 10, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE contests SET status = 'active', active_cycle_id = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	logs, err := repo.CommitFinalize(context.Background(), commit)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	assert.Equal(t, "PROMO-1", logs[0].PromoCode)
	assert.Equal(t, "Скидка 10%", logs[0].Description)
	assert.Equal(t, int64(42), logs[0].UserVkID)
	assert.Equal(t, models.DeliveryStatusPending, logs[0].Status)
	assert.Equal(t, "https://vk.com/wall-1_10", logs[0].WinnerPostLink)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitFinalize_InsufficientCodesRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	commit := testCommit(
		&models.Entry{ID: "e1", UserVkID: 1},
		&models.Entry{ID: "e2", UserVkID: 2},
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM contest_cycles`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("evaluating"))
	mock.ExpectQuery(`SELECT id, code, description FROM promo_codes`).
		WithArgs("c1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "description"}).AddRow("p1", "ONLY-ONE", ""))
	mock.ExpectRollback()

	logs, err := repo.CommitFinalize(context.Background(), commit)
	assert.ErrorIs(t, err, repository.ErrInsufficientCodes)
	assert.Nil(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitFinalize_RequiresEvaluatingCycle(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM contest_cycles`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("finished"))
	mock.ExpectRollback()

	_, err := repo.CommitFinalize(context.Background(), testCommit(&models.Entry{ID: "e1", UserVkID: 1}))
	assert.ErrorIs(t, err, repository.ErrCycleNotEvaluating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitFinalize_ConcurrentIssueAborts(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM contest_cycles`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("evaluating"))
	mock.ExpectQuery(`SELECT id, code, description FROM promo_codes`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "description"}).AddRow("p1", "A", ""))
	mock.ExpectExec(`UPDATE promo_codes SET is_issued = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.CommitFinalize(context.Background(), testCommit(&models.Entry{ID: "e1", UserVkID: 1}))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitFinalize_ZeroWinnersCreatesNextCycle(t *testing.T) {
	repo, mock := newMockRepo(t)
	commit := testCommit()
	commit.NextCycle = &models.Cycle{
		ID:        "cy2",
		ContestID: "c1",
		Status:    models.CycleStatusCreated,
		StartedAt: commit.FinishedAt.Add(24 * time.Hour),
		CreatedAt: commit.FinishedAt,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT status FROM contest_cycles`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("evaluating"))
	mock.ExpectExec(`UPDATE contest_cycles SET status = 'finished'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE contests SET status = 'active'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO contest_cycles`).
		WithArgs("cy2", "c1", "created", commit.NextCycle.StartedAt, nil, commit.FinishedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE contests SET active_cycle_id`).
		WithArgs("c1", "cy2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	logs, err := repo.CommitFinalize(context.Background(), commit)
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPauseNoCodes(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE contests SET status = 'paused_no_codes'`).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE contest_cycles SET status = 'active'`).
		WithArgs("cy1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.PauseNoCodes(context.Background(), "c1", "cy1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
