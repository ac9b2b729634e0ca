package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bankrecon/internal/service"
	"bankrecon/pkg/logger"
	"bankrecon/pkg/response"
)

type MatchingHandler struct {
	matching service.MatchingService
}

func NewMatchingHandler(matching service.MatchingService) *MatchingHandler {
	return &MatchingHandler{matching: matching}
}

type RunMatchingRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

// RunMatching godoc
// @Summary Run matching pass
// @Description Run the rule-based matching pass over an account's unmatched transactions
// @Tags matching
// @Accept json
// @Produce json
// @Param request body RunMatchingRequest true "Matching request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/matching/run [post]
func (h *MatchingHandler) RunMatching(c *gin.Context) {
	var req RunMatchingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid matching request")
		response.ValidationError(c, err.Error())
		return
	}

	summary, err := h.matching.RunPass(c.Request.Context(), req.AccountID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("account_id", req.AccountID).Error("Matching pass failed")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Matching pass completed", summary)
}
