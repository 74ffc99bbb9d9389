package service

import (
	"context"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/models/dto"
)

// Messenger отправка сообщений от имени сообщества
type Messenger interface {
	SendMessage(ctx context.Context, userID int64, text string) (int64, error)
	CreateComment(ctx context.Context, ownerID, postID, replyTo int64, text string) (int64, error)
	PublishPost(ctx context.Context, groupID int64, text string) (string, error)
}

// EventPublisher публикация событий движка
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// Shuffler перемешивает пул заявок на месте
type Shuffler func(entries []*models.Entry) error

// ContestService операции, доступные через HTTP
type ContestService interface {
	CreateContest(ctx context.Context, req *dto.ContestCreateRequest) (*models.Contest, error)
	GetContest(ctx context.Context, id string) (*models.Contest, error)
	ListContests(ctx context.Context, projectID string) ([]*models.Contest, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Contest, error)
	ListCycles(ctx context.Context, contestID string) ([]*models.Cycle, error)

	Finalize(ctx context.Context, contestID string, force bool) (*models.FinalizeResult, error)

	RegisterEntry(ctx context.Context, contestID string, req *dto.RegisterEntryRequest) (*dto.RegisterEntryResponse, error)
	ListParticipants(ctx context.Context, contestID string) ([]*models.Entry, error)
	ClearParticipants(ctx context.Context, contestID string) (int64, error)

	AddPromoCodes(ctx context.Context, contestID string, codes []models.PromoCodeInput) (*dto.AddPromoCodesResponse, error)
	ListPromoCodes(ctx context.Context, contestID string) (*dto.PromoCodesResponse, error)
	DeletePromoCodes(ctx context.Context, ids []string) (*dto.DeleteBulkResponse, error)
	ClearPromoCodes(ctx context.Context, contestID string) (int64, error)

	ListBlacklist(ctx context.Context, contestID string) ([]*models.BlacklistEntry, error)
	AddToBlacklist(ctx context.Context, contestID string, req *dto.AddBlacklistRequest) (*models.BlacklistEntry, error)
	RemoveFromBlacklist(ctx context.Context, id string) error

	ListDeliveryLogs(ctx context.Context, contestID string) ([]*models.DeliveryLog, error)
	RetryDelivery(ctx context.Context, logID string) (*models.DeliveryLog, error)
	RetryDeliveryAll(ctx context.Context, contestID string) (*dto.RetryAllResponse, error)
	ClearDeliveryLogs(ctx context.Context, contestID string) (int64, error)

	GetGlobals(ctx context.Context, projectID string) (map[string]string, error)
	SetGlobals(ctx context.Context, projectID string, values map[string]string) error
}
