package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
	"contest-tool-backend/internal/platform/vk"
)

type sentMessage struct {
	UserID int64
	Text   string
}

type sentComment struct {
	OwnerID int64
	PostID  int64
	ReplyTo int64
	Text    string
}

// fakeMessenger записывает отправленные сообщения вместо вызовов VK
type fakeMessenger struct {
	mu sync.Mutex

	closedInbox map[int64]bool
	dmErr       error
	commentErr  error
	publishErr  error
	// blockDM держит отправку до истечения контекста
	blockDM bool
	delay   time.Duration

	dms      []sentMessage
	comments []sentComment
	posts    []string

	inflight    int
	maxInflight int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{closedInbox: make(map[int64]bool)}
}

func (m *fakeMessenger) SendMessage(ctx context.Context, userID int64, text string) (int64, error) {
	m.mu.Lock()
	m.inflight++
	if m.inflight > m.maxInflight {
		m.maxInflight = m.inflight
	}
	block, delay := m.blockDM, m.delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}()

	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closedInbox[userID] {
		return 0, &vk.InboxClosedError{APIError: vk.APIError{Code: 901, Message: "Can't send messages for users without permission"}}
	}
	if m.dmErr != nil {
		return 0, m.dmErr
	}
	m.dms = append(m.dms, sentMessage{UserID: userID, Text: text})
	return int64(len(m.dms)), nil
}

func (m *fakeMessenger) CreateComment(_ context.Context, ownerID, postID, replyTo int64, text string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commentErr != nil {
		return 0, m.commentErr
	}
	m.comments = append(m.comments, sentComment{OwnerID: ownerID, PostID: postID, ReplyTo: replyTo, Text: text})
	return int64(len(m.comments)), nil
}

func (m *fakeMessenger) PublishPost(_ context.Context, groupID int64, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishErr != nil {
		return "", m.publishErr
	}
	m.posts = append(m.posts, text)
	return fmt.Sprintf("https://vk.com/wall-%d_%d", groupID, len(m.posts)), nil
}

func (m *fakeMessenger) dmCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dms)
}

func (m *fakeMessenger) snapshot() ([]sentMessage, []sentComment, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.dms...),
		append([]sentComment(nil), m.comments...),
		append([]string(nil), m.posts...)
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) AcquireDeliveryLock(_ context.Context, logID string, _ time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[logID] {
		return nil, repository.ErrAlreadyLocked
	}
	l.held[logID] = true

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, logID)
		return nil
	}, nil
}

type publishedEvent struct {
	Type    string
	Payload interface{}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *eventRecorder) Publish(_ context.Context, eventType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{Type: eventType, Payload: payload})
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeGlobalsCache кэш в памяти, считает обращения к загрузчику
type fakeGlobalsCache struct {
	mu          sync.Mutex
	values      map[string]map[string]string
	loads       int
	invalidated []string
}

func (c *fakeGlobalsCache) GetGlobals(_ context.Context, projectID string, load func() (map[string]string, error)) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		c.values = make(map[string]map[string]string)
	}
	if v, ok := c.values[projectID]; ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.loads++
	c.values[projectID] = v
	return v, nil
}

func (c *fakeGlobalsCache) InvalidateGlobals(_ context.Context, projectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, projectID)
	c.invalidated = append(c.invalidated, projectID)
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// keepOrder перемешивание, не меняющее порядок заявок
func keepOrder([]*models.Entry) error { return nil }

type testEnv struct {
	store     *memStore
	messenger *fakeMessenger
	locker    *fakeLocker
	events    *eventRecorder
	clock     *testClock
	svc       *Service
}

var testNow = time.Date(2024, 1, 8, 12, 0, 30, 0, time.UTC)

func newTestEnv(t *testing.T, configure ...func(*Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     newMemStore(),
		messenger: newFakeMessenger(),
		locker:    newFakeLocker(),
		events:    &eventRecorder{},
		clock:     &testClock{now: testNow},
	}

	opts := Options{
		Location: time.UTC,
		Now:      env.clock.Now,
		Shuffle:  keepOrder,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	env.svc = NewService(env.store, env.locker, nil, env.messenger, env.events, opts)
	return env
}

func defaultTemplates() models.Templates {
	return models.Templates{
		ResultPost:      "Поздравляем!\n{winners_list}",
		DirectMessage:   "Ваш код: {promo_code}",
		CommentFallback: "Напишите нам в ЛС, {user_name}!",
	}
}

// addContest создает включенный конкурс с активным циклом, начатым в cycleStart
func (e *testEnv) addContest(t *testing.T, cycleStart time.Time, mutate ...func(*models.Contest)) (*models.Contest, *models.Cycle) {
	t.Helper()

	contest := &models.Contest{
		ID:           uuid.New().String(),
		ProjectID:    "project-1",
		GroupID:      100,
		Title:        "Отзывы недели",
		Kind:         models.ContestKindReviews,
		IsActive:     true,
		Status:       models.ContestStatusActive,
		Start:        models.StartSpec{Type: models.StartTypeExistingPost, PostLink: "https://vk.com/wall-100_1"},
		Conditions:   []models.ConditionGroup{{All: []models.Condition{{Type: models.ConditionComment}}}},
		Finish:       models.FinishPolicy{Condition: models.FinishByCount, TargetCount: 1},
		WinnersCount: 1,
		Templates:    defaultTemplates(),
		CreatedAt:    cycleStart,
		UpdatedAt:    cycleStart,
	}
	for _, fn := range mutate {
		fn(contest)
	}

	deadline, err := NextDeadline(contest.Finish, cycleStart, time.UTC)
	require.NoError(t, err)

	cycle := &models.Cycle{
		ID:         uuid.New().String(),
		ContestID:  contest.ID,
		Status:     models.CycleStatusActive,
		StartedAt:  cycleStart,
		DeadlineAt: deadline,
		CreatedAt:  cycleStart,
	}
	require.NoError(t, e.store.CreateContest(context.Background(), contest, cycle))
	return contest, cycle
}

func (e *testEnv) addEntry(t *testing.T, contestID, cycleID string, userID int64, name string) *models.Entry {
	t.Helper()

	entry := &models.Entry{
		ID:        uuid.New().String(),
		ContestID: contestID,
		CycleID:   cycleID,
		UserVkID:  userID,
		UserName:  name,
		Post:      models.PostRef{OwnerID: -100, PostID: 1000 + userID, CommentID: 5000 + userID},
		Status:    models.EntryStatusNew,
		CreatedAt: e.clock.Now(),
	}
	require.NoError(t, e.store.CreateEntry(context.Background(), entry))
	return entry
}

func (e *testEnv) addEntries(t *testing.T, contestID, cycleID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		e.addEntry(t, contestID, cycleID, int64(i), fmt.Sprintf("Участник %d", i))
	}
}

func (e *testEnv) addCodes(t *testing.T, contestID string, n int) {
	t.Helper()

	codes := make([]models.PromoCodeInput, 0, n)
	for i := 0; i < n; i++ {
		codes = append(codes, models.PromoCodeInput{Code: fmt.Sprintf("CODE-%02d", i), Description: "Скидка 10%"})
	}
	_, _, err := e.store.AddPromoCodes(context.Background(), contestID, codes)
	require.NoError(t, err)
}

// addLog добавляет запись журнала доставки для уже существующей заявки
func (e *testEnv) addLog(entry *models.Entry, code string, status models.DeliveryStatus) *models.DeliveryLog {
	l := &models.DeliveryLog{
		ID:        uuid.New().String(),
		ContestID: entry.ContestID,
		CycleID:   entry.CycleID,
		EntryID:   entry.ID,
		UserVkID:  entry.UserVkID,
		UserName:  entry.UserName,
		PromoCode: code,
		Status:    status,
		CreatedAt: e.clock.Now(),
		UpdatedAt: e.clock.Now(),
	}
	e.store.setLog(l)
	return l
}

var errBoom = errors.New("boom")
