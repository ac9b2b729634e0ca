package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bankrecon/internal/domain"
	"bankrecon/pkg/response"
)

// respondError maps typed engine failures onto the HTTP envelope so every
// handler reports them identically.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, err.Error())
	case domain.IsValidation(err):
		response.ValidationError(c, err.Error())
	case domain.IsRuleConfiguration(err):
		response.BadRequest(c, "Invalid rule configuration", err.Error())
	case errors.Is(err, domain.ErrOverAllocation),
		errors.Is(err, domain.ErrSelfReviewNotAllowed),
		errors.Is(err, domain.ErrPeriodAlreadyClosed),
		errors.Is(err, domain.ErrStatusTransition):
		response.Conflict(c, "Operation not allowed", err.Error())
	default:
		response.InternalError(c, "Request failed", err.Error())
	}
}
