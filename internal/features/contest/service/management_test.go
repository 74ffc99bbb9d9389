package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/models/dto"
)

func validCreateRequest() *dto.ContestCreateRequest {
	return &dto.ContestCreateRequest{
		ProjectID:    "project-1",
		GroupID:      100,
		Title:        "Лучший отзыв",
		Kind:         models.ContestKindReviews,
		Start:        models.StartSpec{Type: models.StartTypeExistingPost, PostLink: "https://vk.com/wall-100_5"},
		Conditions:   []models.ConditionGroup{{All: []models.Condition{{Type: models.ConditionComment}}}},
		Finish:       models.FinishPolicy{Condition: models.FinishByDuration, DurationDays: 7},
		WinnersCount: 1,
		Templates:    defaultTemplates(),
	}
}

func TestCreateContest(t *testing.T) {
	env := newTestEnv(t)

	contest, err := env.svc.CreateContest(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.NotNil(t, contest.ActiveCycleID)

	cycle, err := env.store.GetOpenCycle(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, *contest.ActiveCycleID, cycle.ID)
	assert.Equal(t, models.CycleStatusActive, cycle.Status)
	require.NotNil(t, cycle.DeadlineAt)
	assert.True(t, cycle.DeadlineAt.Equal(testNow.AddDate(0, 0, 7)))
}

func TestCreateContest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.ContestCreateRequest)
	}{
		{"no winners", func(r *dto.ContestCreateRequest) { r.WinnersCount = 0 }},
		{"unknown condition", func(r *dto.ContestCreateRequest) {
			r.Conditions = []models.ConditionGroup{{All: []models.Condition{{Type: "dance"}}}}
		}},
		{"direct message without code", func(r *dto.ContestCreateRequest) { r.Templates.DirectMessage = "Привет" }},
		{"mixed without target", func(r *dto.ContestCreateRequest) {
			r.Finish = models.FinishPolicy{Condition: models.FinishByMixed, DayOfWeek: "monday", Time: "12:00"}
		}},
		{"existing post without link", func(r *dto.ContestCreateRequest) { r.Start.PostLink = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := validCreateRequest()
			tt.mutate(req)

			_, err := env.svc.CreateContest(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidContest)
		})
	}
}

func TestRegisterEntry(t *testing.T) {
	env := newTestEnv(t)
	contest, _ := env.addContest(t, testNow.Add(-time.Hour), func(c *models.Contest) {
		c.Templates.Registration = "{user_name}, ваш номер {number}. {global_shop}"
	})
	require.NoError(t, env.svc.SetGlobals(context.Background(), contest.ProjectID, map[string]string{"shop": "Лавка"}))

	resp, err := env.svc.RegisterEntry(context.Background(), contest.ID, &dto.RegisterEntryRequest{
		UserVkID: 1,
		UserName: " Анна ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Entry.EntryNumber)
	assert.Equal(t, "Анна, ваш номер 1. Лавка", resp.Comment)

	resp, err = env.svc.RegisterEntry(context.Background(), contest.ID, &dto.RegisterEntryRequest{
		UserVkID: 2,
		UserName: "Борис",
		Status:   string(models.EntryStatusCommented),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Entry.EntryNumber)
	assert.Equal(t, models.EntryStatusCommented, resp.Entry.Status)
}

func TestRegisterEntry_Errors(t *testing.T) {
	env := newTestEnv(t)
	contest, cycle := env.addContest(t, testNow.Add(-time.Hour))

	_, err := env.svc.RegisterEntry(context.Background(), "missing", &dto.RegisterEntryRequest{UserVkID: 1, UserName: "A"})
	assert.ErrorIs(t, err, ErrContestNotFound)

	_, err = env.svc.RegisterEntry(context.Background(), contest.ID, &dto.RegisterEntryRequest{UserVkID: -5, UserName: "A"})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	env.addEntry(t, contest.ID, cycle.ID, 1, "Анна")
	env.addCodes(t, contest.ID, 1)
	_, err = env.svc.Finalize(context.Background(), contest.ID, false)
	require.NoError(t, err)

	_, err = env.svc.RegisterEntry(context.Background(), contest.ID, &dto.RegisterEntryRequest{UserVkID: 2, UserName: "Борис"})
	assert.ErrorIs(t, err, ErrNoActiveCycle)
}

func TestClearParticipants_KeepsWinnersAndNumbering(t *testing.T) {
	env := newTestEnv(t)
	contest, cycle := env.addContest(t, testNow.Add(-time.Hour), func(c *models.Contest) {
		c.IsCyclic = true
	})
	env.addEntries(t, contest.ID, cycle.ID, 3)
	env.addCodes(t, contest.ID, 1)

	_, err := env.svc.Finalize(context.Background(), contest.ID, false)
	require.NoError(t, err)

	deleted, err := env.svc.ClearParticipants(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := env.svc.ListParticipants(context.Background(), contest.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, models.EntryStatusWinner, left[0].Status)

	resp, err := env.svc.RegisterEntry(context.Background(), contest.ID, &dto.RegisterEntryRequest{UserVkID: 9, UserName: "Новый"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Entry.EntryNumber)
}

func TestAddPromoCodes(t *testing.T) {
	env := newTestEnv(t)
	contest, _ := env.addContest(t, testNow.Add(-time.Hour))

	_, err := env.svc.AddPromoCodes(context.Background(), contest.ID, []models.PromoCodeInput{{Code: "B"}})
	require.NoError(t, err)

	resp, err := env.svc.AddPromoCodes(context.Background(), contest.ID, []models.PromoCodeInput{
		{Code: "A", Description: " скидка "},
		{Code: " A "},
		{Code: "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Added)
	assert.ElementsMatch(t, []string{"A", "B"}, resp.Skipped)

	list, err := env.svc.ListPromoCodes(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PromoCodeStats{Total: 2, Unissued: 2}, list.Stats)

	_, err = env.svc.AddPromoCodes(context.Background(), contest.ID, []models.PromoCodeInput{{Code: "WITH SPACE"}})
	assert.ErrorIs(t, err, ErrInvalidPromoCode)
	_, err = env.svc.AddPromoCodes(context.Background(), contest.ID, []models.PromoCodeInput{{Code: "  "}})
	assert.ErrorIs(t, err, ErrInvalidPromoCode)
}

func TestDeletePromoCodes_KeepsIssued(t *testing.T) {
	env := newTestEnv(t)
	contest, cycle := env.addContest(t, testNow.Add(-time.Hour))
	env.addEntry(t, contest.ID, cycle.ID, 1, "Анна")
	env.addCodes(t, contest.ID, 3)

	_, err := env.svc.Finalize(context.Background(), contest.ID, false)
	require.NoError(t, err)

	list, err := env.svc.ListPromoCodes(context.Background(), contest.ID)
	require.NoError(t, err)
	require.Len(t, list.Codes, 3)

	resp, err := env.svc.DeletePromoCodes(context.Background(), []string{list.Codes[0].ID, list.Codes[1].ID})
	require.NoError(t, err)
	assert.Equal(t, &dto.DeleteBulkResponse{Deleted: 1, KeptIssued: 1}, resp)

	cleared, err := env.svc.ClearPromoCodes(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	list, err = env.svc.ListPromoCodes(context.Background(), contest.ID)
	require.NoError(t, err)
	require.Len(t, list.Codes, 1)
	assert.True(t, list.Codes[0].IsIssued)
}

func TestBlacklist(t *testing.T) {
	env := newTestEnv(t)
	contest, _ := env.addContest(t, testNow.Add(-time.Hour))

	past := testNow.Add(-time.Hour)
	_, err := env.svc.AddToBlacklist(context.Background(), contest.ID, &dto.AddBlacklistRequest{UserVkID: 5, UntilDate: &past})
	assert.ErrorIs(t, err, ErrInvalidBlacklist)

	_, err = env.svc.AddToBlacklist(context.Background(), contest.ID, &dto.AddBlacklistRequest{UserVkID: 0})
	assert.ErrorIs(t, err, ErrInvalidBlacklist)

	entry, err := env.svc.AddToBlacklist(context.Background(), contest.ID, &dto.AddBlacklistRequest{UserVkID: 5})
	require.NoError(t, err)

	list, err := env.svc.ListBlacklist(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, env.svc.RemoveFromBlacklist(context.Background(), entry.ID))
	assert.ErrorIs(t, env.svc.RemoveFromBlacklist(context.Background(), entry.ID), ErrBlacklistNotFound)
}

func TestSetActive(t *testing.T) {
	env := newTestEnv(t)
	contest, cycle := env.addContest(t, testNow.Add(-time.Hour))

	future := &models.Cycle{
		ID:        "future",
		ContestID: contest.ID,
		Status:    models.CycleStatusCreated,
		StartedAt: testNow.Add(time.Hour),
		CreatedAt: testNow,
	}
	require.NoError(t, env.store.CreateCycle(context.Background(), future))

	paused, err := env.svc.SetActive(context.Background(), contest.ID, false)
	require.NoError(t, err)
	assert.False(t, paused.IsActive)
	assert.Equal(t, models.ContestStatusPaused, paused.Status)

	archived, err := env.store.GetCycle(context.Background(), "future")
	require.NoError(t, err)
	assert.Equal(t, models.CycleStatusArchived, archived.Status)

	resumed, err := env.svc.SetActive(context.Background(), contest.ID, true)
	require.NoError(t, err)
	assert.True(t, resumed.IsActive)
	assert.Equal(t, models.ContestStatusActive, resumed.Status)

	// открытый цикл сохраняется
	open, err := env.store.GetOpenCycle(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, cycle.ID, open.ID)
}

func TestSetActive_ResumeOpensCycle(t *testing.T) {
	env := newTestEnv(t)
	contest, cycle := env.addContest(t, testNow.Add(-time.Hour))
	env.addEntry(t, contest.ID, cycle.ID, 1, "Анна")
	env.addCodes(t, contest.ID, 1)

	_, err := env.svc.Finalize(context.Background(), contest.ID, false)
	require.NoError(t, err)

	_, err = env.svc.SetActive(context.Background(), contest.ID, false)
	require.NoError(t, err)
	_, err = env.svc.SetActive(context.Background(), contest.ID, true)
	require.NoError(t, err)

	open, err := env.store.GetOpenCycle(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.NotEqual(t, cycle.ID, open.ID)
	assert.Equal(t, models.CycleStatusActive, open.Status)
}

func TestRetryDelivery(t *testing.T) {
	env := newTestEnv(t)
	contest, cycle := env.addContest(t, testNow.Add(-time.Hour))
	winner := env.addEntry(t, contest.ID, cycle.ID, 1, "Анна")
	failed := env.addLog(winner, "CODE-1", models.DeliveryStatusError)

	got, err := env.svc.RetryDelivery(context.Background(), failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusSent, got.Status)
	assert.Equal(t, "CODE-1", got.PromoCode)
	assert.Equal(t, int64(1), got.UserVkID)

	// повтор отправленной записи ничего не делает
	again, err := env.svc.RetryDelivery(context.Background(), failed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusSent, again.Status)
	assert.Equal(t, 1, env.messenger.dmCount())

	logs, err := env.svc.ListDeliveryLogs(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	_, err = env.svc.RetryDelivery(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDeliveryLogNotFound)
}

func TestRetryDeliveryAll_OnlyFailed(t *testing.T) {
	env := newTestEnv(t)
	contest, cycle := env.addContest(t, testNow.Add(-time.Hour))

	failed := env.addLog(env.addEntry(t, contest.ID, cycle.ID, 1, "Анна"), "CODE-1", models.DeliveryStatusError)
	sent := env.addLog(env.addEntry(t, contest.ID, cycle.ID, 2, "Борис"), "CODE-2", models.DeliveryStatusSent)
	pending := env.addLog(env.addEntry(t, contest.ID, cycle.ID, 3, "Вера"), "CODE-3", models.DeliveryStatusPending)

	resp, err := env.svc.RetryDeliveryAll(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, &dto.RetryAllResponse{Retried: 1, Sent: 1}, resp)

	dms, _, _ := env.messenger.snapshot()
	require.Len(t, dms, 1)
	assert.Equal(t, int64(1), dms[0].UserID)

	for id, want := range map[string]models.DeliveryStatus{
		failed.ID:  models.DeliveryStatusSent,
		sent.ID:    models.DeliveryStatusSent,
		pending.ID: models.DeliveryStatusPending,
	} {
		l, err := env.store.GetDeliveryLog(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, l.Status)
	}

	cleared, err := env.svc.ClearDeliveryLogs(context.Background(), contest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)
}

func TestGlobals(t *testing.T) {
	env := newTestEnv(t)
	cache := &fakeGlobalsCache{}
	env.svc.cache = cache

	err := env.svc.SetGlobals(context.Background(), "project-1", map[string]string{"bad key": "x"})
	assert.ErrorIs(t, err, ErrInvalidGlobals)

	require.NoError(t, env.svc.SetGlobals(context.Background(), "project-1", map[string]string{"shop": "Лавка"}))
	assert.Equal(t, []string{"project-1"}, cache.invalidated)

	values, err := env.svc.GetGlobals(context.Background(), "project-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"shop": "Лавка"}, values)

	_, err = env.svc.GetGlobals(context.Background(), "project-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.loads)
}
