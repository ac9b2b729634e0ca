package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/service"
	"bankrecon/pkg/logger"
	"bankrecon/pkg/response"
)

type PeriodHandler struct {
	periods service.PeriodService
}

func NewPeriodHandler(periods service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

type OpenPeriodRequest struct {
	AccountID        string  `json:"account_id" binding:"required"`
	StatementBalance float64 `json:"statement_balance"`
	StartDate        string  `json:"start_date" binding:"required"`
	EndDate          string  `json:"end_date" binding:"required"`
}

// OpenPeriod godoc
// @Summary Open reconciliation period
// @Description Open a reconciliation period whose opening balance chains from the previous closed period
// @Tags periods
// @Accept json
// @Produce json
// @Param request body OpenPeriodRequest true "Period request"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/periods [post]
func (h *PeriodHandler) OpenPeriod(c *gin.Context) {
	var req OpenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid open period request")
		response.ValidationError(c, err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.ValidationError(c, "start_date must be in YYYY-MM-DD format")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		response.ValidationError(c, "end_date must be in YYYY-MM-DD format")
		return
	}

	period, err := h.periods.Open(req.AccountID, decimal.NewFromFloat(req.StatementBalance), start, end)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("account_id", req.AccountID).Error("Failed to open period")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Period opened successfully", period)
}

type ActorRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// ClosePeriod godoc
// @Summary Close reconciliation period
// @Description Close a period, computing closing balance and statement variance
// @Tags periods
// @Accept json
// @Produce json
// @Param period_id path string true "Period ID"
// @Param request body ActorRequest true "Close request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/periods/{period_id}/close [post]
func (h *PeriodHandler) ClosePeriod(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	period, err := h.periods.Close(c.Param("period_id"), domain.Actor{ID: req.ActorID})
	if err != nil {
		logger.GetLogger().WithError(err).WithField("period_id", c.Param("period_id")).Error("Failed to close period")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Period closed successfully", period)
}

// ReviewPeriod godoc
// @Summary Review reconciliation period
// @Description Mark a closed period as reviewed; the reviewer must differ from the closer
// @Tags periods
// @Accept json
// @Produce json
// @Param period_id path string true "Period ID"
// @Param request body ActorRequest true "Review request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/periods/{period_id}/review [post]
func (h *PeriodHandler) ReviewPeriod(c *gin.Context) {
	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	period, err := h.periods.Review(c.Param("period_id"), domain.Actor{ID: req.ActorID})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Period reviewed successfully", period)
}

// GetPeriod godoc
// @Summary Get reconciliation period
// @Description Get a reconciliation period by its ID
// @Tags periods
// @Produce json
// @Param period_id path string true "Period ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/periods/{period_id} [get]
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	period, err := h.periods.Get(c.Param("period_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Period retrieved successfully", period)
}
