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

type AccountHandler struct {
	accounts service.AccountService
	matching service.MatchingService
}

func NewAccountHandler(accounts service.AccountService, matching service.MatchingService) *AccountHandler {
	return &AccountHandler{accounts: accounts, matching: matching}
}

type CreateAccountRequest struct {
	Name           string  `json:"name" binding:"required"`
	Number         string  `json:"number" binding:"required"`
	Institution    string  `json:"institution" binding:"required"`
	Currency       string  `json:"currency" binding:"required"`
	OpeningBalance float64 `json:"opening_balance"`
	IsPrimary      bool    `json:"is_primary"`
}

// CreateAccount godoc
// @Summary Register an account
// @Description Register a bank or mobile-money account for reconciliation
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body CreateAccountRequest true "Account data"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	account := &domain.Account{
		Name:           req.Name,
		Number:         req.Number,
		Institution:    req.Institution,
		Currency:       req.Currency,
		OpeningBalance: decimal.NewFromFloat(req.OpeningBalance),
		IsPrimary:      req.IsPrimary,
	}

	if err := h.accounts.Create(account); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create account")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Account created successfully", account)
}

// GetBalance godoc
// @Summary Get account balance snapshot
// @Description Get the current and last reconciled balances of an account
// @Tags accounts
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/accounts/{account_id}/balance [get]
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID := c.Param("account_id")

	snapshot, err := h.accounts.GetBalanceSnapshot(accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Balance snapshot retrieved successfully", snapshot)
}

// ListUnmatched godoc
// @Summary List unmatched transactions
// @Description List an account's unmatched transactions for manual review
// @Tags accounts
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/accounts/{account_id}/transactions/unmatched [get]
func (h *AccountHandler) ListUnmatched(c *gin.Context) {
	accountID := c.Param("account_id")

	listing, err := h.matching.ListUnmatched(accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Unmatched transactions retrieved successfully", listing)
}
