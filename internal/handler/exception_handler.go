package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bankrecon/internal/domain"
	"bankrecon/internal/service"
	"bankrecon/pkg/logger"
	"bankrecon/pkg/response"
)

type ExceptionHandler struct {
	exceptions service.ExceptionService
}

func NewExceptionHandler(exceptions service.ExceptionService) *ExceptionHandler {
	return &ExceptionHandler{exceptions: exceptions}
}

// ListExceptions godoc
// @Summary List exceptions
// @Description List reconciliation exceptions filtered by status
// @Tags exceptions
// @Produce json
// @Param status query string false "Exception status" default(OPEN)
// @Success 200 {object} response.Response
// @Router /api/v1/exceptions [get]
func (h *ExceptionHandler) ListExceptions(c *gin.Context) {
	status := domain.ExceptionStatus(c.DefaultQuery("status", string(domain.ExceptionOpen)))

	exceptions, err := h.exceptions.ListByStatus(status)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list exceptions")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Exceptions retrieved successfully", exceptions)
}

type ResolveExceptionRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Status  string `json:"status" binding:"required,oneof=INVESTIGATING RESOLVED IGNORED"`
	Notes   string `json:"notes"`
}

// ResolveException godoc
// @Summary Resolve exception
// @Description Move an exception through its lifecycle; resolution records the acting operator
// @Tags exceptions
// @Accept json
// @Produce json
// @Param exception_id path string true "Exception ID"
// @Param request body ResolveExceptionRequest true "Resolution request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/exceptions/{exception_id}/resolve [post]
func (h *ExceptionHandler) ResolveException(c *gin.Context) {
	var req ResolveExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	exception, err := h.exceptions.Resolve(
		c.Param("exception_id"),
		domain.Actor{ID: req.ActorID},
		domain.ExceptionStatus(req.Status),
		req.Notes,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Exception updated successfully", exception)
}

type SweepRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

// SweepMissingMatches godoc
// @Summary Sweep aged unmatched transactions
// @Description Raise MISSING_MATCH exceptions for transactions unmatched past the configured age
// @Tags exceptions
// @Accept json
// @Produce json
// @Param request body SweepRequest true "Sweep request"
// @Success 200 {object} response.Response
// @Router /api/v1/exceptions/sweep [post]
func (h *ExceptionHandler) SweepMissingMatches(c *gin.Context) {
	var req SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	raised, err := h.exceptions.SweepMissingMatches(req.AccountID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("account_id", req.AccountID).Error("Sweep failed")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Sweep completed", gin.H{"exceptions_raised": raised})
}
