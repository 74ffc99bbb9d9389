package dto

import (
	"time"

	"contest-tool-backend/internal/features/contest/models"
)

// ContestCreateRequest тело запроса на создание конкурса
type ContestCreateRequest struct {
	ProjectID         string                  `json:"project_id" binding:"required"`
	GroupID           int64                   `json:"group_id" binding:"required,min=1"`
	Title             string                  `json:"title" binding:"required,max=200"`
	Kind              models.ContestKind      `json:"kind" binding:"required,oneof=reviews general"`
	Start             models.StartSpec        `json:"start"`
	Conditions        []models.ConditionGroup `json:"conditions" binding:"required"`
	Finish            models.FinishPolicy     `json:"finish"`
	WinnersCount      int                     `json:"winners_count" binding:"required,min=1"`
	UniqueWinner      bool                    `json:"unique_winner"`
	IsCyclic          bool                    `json:"is_cyclic"`
	RestartDelayHours int                     `json:"restart_delay_hours" binding:"min=0,max=87600"`
	Templates         models.Templates        `json:"templates"`
}

// ToModel переносит поля запроса в модель конкурса
func (r *ContestCreateRequest) ToModel() *models.Contest {
	return &models.Contest{
		ProjectID:         r.ProjectID,
		GroupID:           r.GroupID,
		Title:             r.Title,
		Kind:              r.Kind,
		IsActive:          true,
		Status:            models.ContestStatusActive,
		Start:             r.Start,
		Conditions:        r.Conditions,
		Finish:            r.Finish,
		WinnersCount:      r.WinnersCount,
		UniqueWinner:      r.UniqueWinner,
		IsCyclic:          r.IsCyclic,
		RestartDelayHours: r.RestartDelayHours,
		Templates:         r.Templates,
	}
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// FinalizeRequest тело запроса подведения итогов, может отсутствовать
type FinalizeRequest struct {
	// Подвести итоги, даже если условие завершения еще не выполнено
	Force bool `json:"force"`
}

type AddPromoCodesRequest struct {
	Codes []models.PromoCodeInput `json:"codes" binding:"required,min=1,dive"`
}

type AddPromoCodesResponse struct {
	Added   int      `json:"added"`
	Skipped []string `json:"skipped,omitempty"` // уже существующие коды
}

type DeleteBulkRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

type DeleteBulkResponse struct {
	Deleted int `json:"deleted"`
	// Выданные коды не удаляются
	KeptIssued int `json:"kept_issued"`
}

type PromoCodesResponse struct {
	Codes []*models.PromoCode   `json:"codes"`
	Stats models.PromoCodeStats `json:"stats"`
}

type AddBlacklistRequest struct {
	UserVkID  int64      `json:"user_vk_id" binding:"required,min=1"`
	UntilDate *time.Time `json:"until_date,omitempty"`
}

type RegisterEntryRequest struct {
	UserVkID int64          `json:"user_vk_id" binding:"required,min=1"`
	UserName string         `json:"user_name" binding:"required"`
	Post     models.PostRef `json:"post"`
	Status   string         `json:"status,omitempty" binding:"omitempty,oneof=new commented"`
}

type RegisterEntryResponse struct {
	Entry *models.Entry `json:"entry"`
	// Текст комментария с номером участника
	Comment string `json:"comment"`
}

type RetryAllResponse struct {
	Retried int `json:"retried"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

type GlobalsRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

type GlobalsResponse struct {
	ProjectID string            `json:"project_id"`
	Values    map[string]string `json:"values"`
}
