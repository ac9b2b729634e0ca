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

type RuleHandler struct {
	rules service.RuleService
}

func NewRuleHandler(rules service.RuleService) *RuleHandler {
	return &RuleHandler{rules: rules}
}

type CreateRuleRequest struct {
	Name                      string   `json:"name" binding:"required"`
	Priority                  int      `json:"priority" binding:"required,min=1"`
	TargetEntityType          string   `json:"target_entity_type" binding:"required,oneof=PAYMENT INCOME EXPENSE"`
	AmountToleranceAbsolute   float64  `json:"amount_tolerance_absolute"`
	AmountTolerancePercentage float64  `json:"amount_tolerance_percentage"`
	DateToleranceDays         int      `json:"date_tolerance_days"`
	DescriptionKeywords       []string `json:"description_keywords"`
	ReferencePattern          string   `json:"reference_pattern"`
	MinConfidenceScore        float64  `json:"min_confidence_score" binding:"required"`
	AutoMatchEnabled          bool     `json:"auto_match_enabled"`
}

// CreateRule godoc
// @Summary Create matching rule
// @Description Create a matching rule used by the automated matching pass
// @Tags rules
// @Accept json
// @Produce json
// @Param request body CreateRuleRequest true "Rule definition"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid create rule request")
		response.ValidationError(c, err.Error())
		return
	}

	rule := &domain.MatchingRule{
		Name:                      req.Name,
		Priority:                  req.Priority,
		TargetEntityType:          domain.EntityType(req.TargetEntityType),
		AmountToleranceAbsolute:   decimal.NewFromFloat(req.AmountToleranceAbsolute),
		AmountTolerancePercentage: decimal.NewFromFloat(req.AmountTolerancePercentage),
		DateToleranceDays:         req.DateToleranceDays,
		DescriptionKeywords:       req.DescriptionKeywords,
		ReferencePattern:          req.ReferencePattern,
		MinConfidenceScore:        req.MinConfidenceScore,
		AutoMatchEnabled:          req.AutoMatchEnabled,
	}

	if err := h.rules.Create(rule); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create rule")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Rule created successfully", rule)
}

// ListRules godoc
// @Summary List active rules
// @Description List active matching rules ordered by priority
// @Tags rules
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/rules [get]
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.ListActive()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list rules")
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Rules retrieved successfully", rules)
}

// GetRule godoc
// @Summary Get rule
// @Description Get a matching rule by its ID
// @Tags rules
// @Produce json
// @Param rule_id path string true "Rule ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/rules/{rule_id} [get]
func (h *RuleHandler) GetRule(c *gin.Context) {
	rule, err := h.rules.Get(c.Param("rule_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Rule retrieved successfully", rule)
}
