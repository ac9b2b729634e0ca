package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bankrecon/internal/domain"
	"bankrecon/internal/service"
	"bankrecon/pkg/logger"
	"bankrecon/pkg/response"
)

type MatchHandler struct {
	matches service.MatchService
}

func NewMatchHandler(matches service.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

type ManualMatchRequest struct {
	TransactionID string  `json:"transaction_id" binding:"required"`
	EntityType    string  `json:"entity_type" binding:"required,oneof=PAYMENT INCOME EXPENSE"`
	EntityID      string  `json:"entity_id" binding:"required"`
	MatchedAmount float64 `json:"matched_amount" binding:"required"`
	ActorID       string  `json:"actor_id" binding:"required"`
}

// ApplyManualMatch godoc
// @Summary Apply manual match
// @Description Match a transaction against a payable record on an operator's authority
// @Tags matches
// @Accept json
// @Produce json
// @Param request body ManualMatchRequest true "Manual match request"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/matches/manual [post]
func (h *MatchHandler) ApplyManualMatch(c *gin.Context) {
	var req ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid manual match request")
		response.ValidationError(c, err.Error())
		return
	}

	match, err := h.matches.Apply(service.ApplyMatchInput{
		TransactionID: req.TransactionID,
		EntityType:    domain.EntityType(req.EntityType),
		EntityID:      req.EntityID,
		MatchedAmount: decimal.NewFromFloat(req.MatchedAmount),
		Confidence:    domain.ConfidenceManual,
		AutoMatched:   false,
		ActorID:       req.ActorID,
	})
	if err != nil {
		logger.GetLogger().WithError(err).WithField("transaction_id", req.TransactionID).Error("Manual match failed")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Match applied successfully", match)
}

type ActorReasonRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Reason  string `json:"reason"`
}

// Unmatch godoc
// @Summary Unmatch
// @Description Deactivate a match and return its allocation to the transaction
// @Tags matches
// @Accept json
// @Produce json
// @Param match_id path string true "Match ID"
// @Param request body ActorReasonRequest true "Unmatch request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/matches/{match_id}/unmatch [post]
func (h *MatchHandler) Unmatch(c *gin.Context) {
	var req ActorReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	tx, err := h.matches.Unmatch(c.Param("match_id"), domain.Actor{ID: req.ActorID}, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Match removed successfully", tx)
}

// Dispute godoc
// @Summary Dispute transaction
// @Description Flag an unmatched transaction as disputed
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Param request body ActorReasonRequest true "Dispute request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{transaction_id}/dispute [post]
func (h *MatchHandler) Dispute(c *gin.Context) {
	var req ActorReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.matches.Dispute(c.Param("transaction_id"), domain.Actor{ID: req.ActorID}, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction disputed", nil)
}

// Ignore godoc
// @Summary Ignore transaction
// @Description Exclude an unmatched transaction from further matching
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Param request body ActorReasonRequest true "Ignore request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/transactions/{transaction_id}/ignore [post]
func (h *MatchHandler) Ignore(c *gin.Context) {
	var req ActorReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.matches.Ignore(c.Param("transaction_id"), domain.Actor{ID: req.ActorID}, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction ignored", nil)
}

type ReopenRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// Reopen godoc
// @Summary Reopen transaction
// @Description Deactivate all matches on a transaction and return it to the unmatched pool
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Param request body ReopenRequest true "Reopen request"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/transactions/{transaction_id}/reopen [post]
func (h *MatchHandler) Reopen(c *gin.Context) {
	var req ReopenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	tx, err := h.matches.Reopen(c.Param("transaction_id"), domain.Actor{ID: req.ActorID})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction reopened", tx)
}
