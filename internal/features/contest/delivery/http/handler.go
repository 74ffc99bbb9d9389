package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "contest-tool-backend/internal/common/errors"
	"contest-tool-backend/internal/common/logger"
	"contest-tool-backend/internal/common/middleware"
	"contest-tool-backend/internal/features/contest/models/dto"
	"contest-tool-backend/internal/features/contest/service"
)

type ContestHandler struct {
	service service.ContestService
	log     zerolog.Logger
}

func NewContestHandler(service service.ContestService) *ContestHandler {
	return &ContestHandler{
		service: service,
		log:     logger.Component("contest_handler"),
	}
}

func (h *ContestHandler) RegisterRoutes(router *gin.RouterGroup) {
	wrap := middleware.HandleErrorWrapper(h.log)

	contests := router.Group("/contests")
	{
		contests.POST("", wrap(h.create))
		contests.GET("", wrap(h.list))
		contests.GET("/:id", wrap(h.getByID))
		contests.PATCH("/:id/active", wrap(h.setActive))
		contests.GET("/:id/cycles", wrap(h.getCycles))
		contests.POST("/:id/finalize", wrap(h.finalize))

		contests.POST("/:id/entries", wrap(h.registerEntry))
		contests.GET("/:id/participants", wrap(h.getParticipants))
		contests.DELETE("/:id/participants", wrap(h.clearParticipants))

		contests.POST("/:id/promocodes", wrap(h.addPromoCodes))
		contests.GET("/:id/promocodes", wrap(h.getPromoCodes))
		contests.DELETE("/:id/promocodes", wrap(h.clearPromoCodes))

		contests.GET("/:id/delivery-logs", wrap(h.getDeliveryLogs))
		contests.POST("/:id/delivery-logs/retry", wrap(h.retryDeliveryAll))
		contests.DELETE("/:id/delivery-logs", wrap(h.clearDeliveryLogs))

		contests.GET("/:id/blacklist", wrap(h.getBlacklist))
		contests.POST("/:id/blacklist", wrap(h.addToBlacklist))
	}

	router.POST("/promocodes/delete-bulk", wrap(h.deletePromoCodesBulk))
	router.POST("/delivery-logs/:id/retry", wrap(h.retryDelivery))
	router.DELETE("/blacklist/:id", wrap(h.removeFromBlacklist))

	projects := router.Group("/projects")
	{
		projects.GET("/:id/globals", wrap(h.getGlobals))
		projects.PUT("/:id/globals", wrap(h.setGlobals))
	}
}

// @Summary Создать конкурс
// @Description Создает конкурс и его первый цикл. Условия участия и завершения проверяются до сохранения.
// @Tags contests
// @Accept json
// @Produce json
// @Param input body dto.ContestCreateRequest true "Настройки конкурса"
// @Success 201 {object} models.Contest
// @Failure 400 {object} middleware.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} middleware.ErrorResponse "Внутренняя ошибка сервера"
// @Router /contests [post]
func (h *ContestHandler) create(c *gin.Context) {
	var input dto.ContestCreateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	contest, err := h.service.CreateContest(c.Request.Context(), &input)
	if err != nil {
		_ = c.Error(toAppError(err, ""))
		return
	}

	c.JSON(http.StatusCreated, contest)
}

// @Summary Список конкурсов проекта
// @Tags contests
// @Produce json
// @Param project_id query string true "ID проекта"
// @Success 200 {array} models.Contest
// @Failure 400 {object} middleware.ErrorResponse
// @Router /contests [get]
func (h *ContestHandler) list(c *gin.Context) {
	projectID := c.Query("project_id")
	if projectID == "" {
		_ = c.Error(apperrors.NewValidationError("project_id", "query parameter is required"))
		return
	}

	contests, err := h.service.ListContests(c.Request.Context(), projectID)
	if err != nil {
		_ = c.Error(toAppError(err, projectID))
		return
	}

	c.JSON(http.StatusOK, orEmpty(contests))
}

// @Summary Получить конкурс
// @Tags contests
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {object} models.Contest
// @Failure 404 {object} middleware.ErrorResponse "Конкурс не найден"
// @Router /contests/{id} [get]
func (h *ContestHandler) getByID(c *gin.Context) {
	id := c.Param("id")

	contest, err := h.service.GetContest(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, contest)
}

// @Summary Поставить конкурс на паузу или возобновить
// @Description Пауза архивирует еще не начавшийся цикл, возобновление открывает новый цикл, если открытого нет.
// @Tags contests
// @Accept json
// @Produce json
// @Param id path string true "ID конкурса"
// @Param input body dto.SetActiveRequest true "Новое состояние"
// @Success 200 {object} models.Contest
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /contests/{id}/active [patch]
func (h *ContestHandler) setActive(c *gin.Context) {
	id := c.Param("id")

	var input dto.SetActiveRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("is_active", err.Error()))
		return
	}

	contest, err := h.service.SetActive(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, contest)
}

// @Summary Циклы конкурса
// @Description Циклы от новых к старым, со снимком победителей завершенных циклов
// @Tags contests
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {array} models.Cycle
// @Failure 404 {object} middleware.ErrorResponse
// @Router /contests/{id}/cycles [get]
func (h *ContestHandler) getCycles(c *gin.Context) {
	id := c.Param("id")

	cycles, err := h.service.ListCycles(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, orEmpty(cycles))
}

// @Summary Подвести итоги
// @Description Выбирает победителей текущего цикла, выдает промокоды и рассылает их.
// @Description Ожидаемые исходы (условия не выполнены, нет участников, не хватает кодов) возвращаются с кодом 200 и полем errorReason.
// @Tags contests
// @Accept json
// @Produce json
// @Param id path string true "ID конкурса"
// @Param input body dto.FinalizeRequest false "Параметры"
// @Success 200 {object} models.FinalizeResult
// @Failure 404 {object} middleware.ErrorResponse "Конкурс не найден"
// @Failure 409 {object} middleware.ErrorResponse "Итоги уже подводятся или нет активного цикла"
// @Router /contests/{id}/finalize [post]
func (h *ContestHandler) finalize(c *gin.Context) {
	id := c.Param("id")

	var input dto.FinalizeRequest
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	result, err := h.service.Finalize(c.Request.Context(), id, input.Force)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Зарегистрировать участника
// @Description Присваивает заявке следующий номер и возвращает текст комментария с номером
// @Tags participants
// @Accept json
// @Produce json
// @Param id path string true "ID конкурса"
// @Param input body dto.RegisterEntryRequest true "Заявка"
// @Success 201 {object} dto.RegisterEntryResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Нет активного цикла"
// @Router /contests/{id}/entries [post]
func (h *ContestHandler) registerEntry(c *gin.Context) {
	id := c.Param("id")

	var input dto.RegisterEntryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.service.RegisterEntry(c.Request.Context(), id, &input)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Участники конкурса
// @Tags participants
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {array} models.Entry
// @Failure 404 {object} middleware.ErrorResponse
// @Router /contests/{id}/participants [get]
func (h *ContestHandler) getParticipants(c *gin.Context) {
	id := c.Param("id")

	entries, err := h.service.ListParticipants(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, orEmpty(entries))
}

// @Summary Очистить участников
// @Description Удаляет заявки, кроме победных. Нумерация не сбрасывается.
// @Tags participants
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {object} dto.ClearResponse
// @Router /contests/{id}/participants [delete]
func (h *ContestHandler) clearParticipants(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.service.ClearParticipants(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, dto.ClearResponse{Deleted: deleted})
}

// @Summary Добавить промокоды
// @Tags promocodes
// @Accept json
// @Produce json
// @Param id path string true "ID конкурса"
// @Param input body dto.AddPromoCodesRequest true "Коды"
// @Success 200 {object} dto.AddPromoCodesResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /contests/{id}/promocodes [post]
func (h *ContestHandler) addPromoCodes(c *gin.Context) {
	id := c.Param("id")

	var input dto.AddPromoCodesRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("codes", err.Error()))
		return
	}

	resp, err := h.service.AddPromoCodes(c.Request.Context(), id, input.Codes)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Промокоды конкурса
// @Tags promocodes
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {object} dto.PromoCodesResponse
// @Router /contests/{id}/promocodes [get]
func (h *ContestHandler) getPromoCodes(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.ListPromoCodes(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}
	resp.Codes = orEmpty(resp.Codes)

	c.JSON(http.StatusOK, resp)
}

// @Summary Удалить невыданные промокоды конкурса
// @Tags promocodes
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {object} dto.ClearResponse
// @Router /contests/{id}/promocodes [delete]
func (h *ContestHandler) clearPromoCodes(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.service.ClearPromoCodes(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, dto.ClearResponse{Deleted: deleted})
}

// @Summary Удалить промокоды по ID
// @Description Выданные коды не удаляются и попадают в kept_issued
// @Tags promocodes
// @Accept json
// @Produce json
// @Param input body dto.DeleteBulkRequest true "ID кодов"
// @Success 200 {object} dto.DeleteBulkResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /promocodes/delete-bulk [post]
func (h *ContestHandler) deletePromoCodesBulk(c *gin.Context) {
	var input dto.DeleteBulkRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("ids", err.Error()))
		return
	}

	resp, err := h.service.DeletePromoCodes(c.Request.Context(), input.IDs)
	if err != nil {
		_ = c.Error(toAppError(err, ""))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Журнал доставки
// @Tags delivery
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {array} models.DeliveryLog
// @Router /contests/{id}/delivery-logs [get]
func (h *ContestHandler) getDeliveryLogs(c *gin.Context) {
	id := c.Param("id")

	logs, err := h.service.ListDeliveryLogs(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, orEmpty(logs))
}

// @Summary Повторить отправку
// @Description Отправленная запись возвращается без изменений
// @Tags delivery
// @Produce json
// @Param id path string true "ID записи журнала"
// @Success 200 {object} models.DeliveryLog
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Отправка уже выполняется"
// @Router /delivery-logs/{id}/retry [post]
func (h *ContestHandler) retryDelivery(c *gin.Context) {
	id := c.Param("id")

	entry, err := h.service.RetryDelivery(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, entry)
}

// @Summary Повторить все неудачные отправки
// @Tags delivery
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {object} dto.RetryAllResponse
// @Router /contests/{id}/delivery-logs/retry [post]
func (h *ContestHandler) retryDeliveryAll(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.RetryDeliveryAll(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Очистить журнал доставки
// @Description Записи в статусе pending сохраняются
// @Tags delivery
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {object} dto.ClearResponse
// @Router /contests/{id}/delivery-logs [delete]
func (h *ContestHandler) clearDeliveryLogs(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.service.ClearDeliveryLogs(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, dto.ClearResponse{Deleted: deleted})
}

// @Summary Черный список конкурса
// @Tags blacklist
// @Produce json
// @Param id path string true "ID конкурса"
// @Success 200 {array} models.BlacklistEntry
// @Router /contests/{id}/blacklist [get]
func (h *ContestHandler) getBlacklist(c *gin.Context) {
	id := c.Param("id")

	entries, err := h.service.ListBlacklist(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, orEmpty(entries))
}

// @Summary Добавить в черный список
// @Description Без until_date блокировка бессрочная
// @Tags blacklist
// @Accept json
// @Produce json
// @Param id path string true "ID конкурса"
// @Param input body dto.AddBlacklistRequest true "Пользователь"
// @Success 201 {object} models.BlacklistEntry
// @Failure 400 {object} middleware.ErrorResponse
// @Router /contests/{id}/blacklist [post]
func (h *ContestHandler) addToBlacklist(c *gin.Context) {
	id := c.Param("id")

	var input dto.AddBlacklistRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	entry, err := h.service.AddToBlacklist(c.Request.Context(), id, &input)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// @Summary Удалить из черного списка
// @Tags blacklist
// @Param id path string true "ID записи"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /blacklist/{id} [delete]
func (h *ContestHandler) removeFromBlacklist(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.RemoveFromBlacklist(c.Request.Context(), id); err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Глобальные переменные проекта
// @Tags projects
// @Produce json
// @Param id path string true "ID проекта"
// @Success 200 {object} dto.GlobalsResponse
// @Router /projects/{id}/globals [get]
func (h *ContestHandler) getGlobals(c *gin.Context) {
	id := c.Param("id")

	values, err := h.service.GetGlobals(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}
	if values == nil {
		values = map[string]string{}
	}

	c.JSON(http.StatusOK, dto.GlobalsResponse{ProjectID: id, Values: values})
}

// @Summary Заменить глобальные переменные проекта
// @Description Переменные доступны в шаблонах как {global_KEY}
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "ID проекта"
// @Param input body dto.GlobalsRequest true "Переменные"
// @Success 200 {object} dto.GlobalsResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /projects/{id}/globals [put]
func (h *ContestHandler) setGlobals(c *gin.Context) {
	id := c.Param("id")

	var input dto.GlobalsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("values", err.Error()))
		return
	}

	if err := h.service.SetGlobals(c.Request.Context(), id, input.Values); err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}

	c.JSON(http.StatusOK, dto.GlobalsResponse{ProjectID: id, Values: input.Values})
}

// toAppError переводит ошибки сервиса в ошибки API
func toAppError(err error, id string) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, service.ErrContestNotFound):
		return apperrors.NewContestNotFoundError(id)
	case errors.Is(err, service.ErrDeliveryLogNotFound):
		return apperrors.NewDeliveryLogNotFoundError(id)
	case errors.Is(err, service.ErrBlacklistNotFound):
		return apperrors.NewNotFoundError("blacklist entry", id)
	case errors.Is(err, service.ErrFinalizeInProgress):
		return apperrors.NewFinalizeInProgressError(id)
	case errors.Is(err, service.ErrNoActiveCycle):
		return apperrors.NewNoActiveCycleError(id)
	case errors.Is(err, service.ErrDeliveryInProgress):
		return apperrors.NewDeliveryInProgressError(id)
	case errors.Is(err, service.ErrInvalidContest):
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidContest, err.Error())
	case errors.Is(err, service.ErrInvalidPromoCode),
		errors.Is(err, service.ErrInvalidGlobals),
		errors.Is(err, service.ErrInvalidBlacklist),
		errors.Is(err, service.ErrInvalidEntry):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Internal server error")
	}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
