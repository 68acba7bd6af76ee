package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/humanize-golang/internal/humanize"
	"github.com/01moynul/humanize-golang/internal/models"
	"github.com/01moynul/humanize-golang/internal/store"
)

// GetPlans lists the plan catalog. Public.
func (h *Handlers) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.Plans.All()})
}

// ActivatePlan switches the caller to a plan and sets the balance to the plan's credits.
// No payment is taken; the free plan can only be activated once per account.
func (h *Handlers) ActivatePlan(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	plan := h.Plans.Get(c.Param("slug"))
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}

	acct, err := h.Store.ActivatePlan(c.Request.Context(), userID, *plan)
	if errors.Is(err, store.ErrFreePlanUsed) {
		c.JSON(http.StatusConflict, gin.H{"error": "The free plan can only be used once"})
		return
	}
	if err != nil {
		h.serverError(c, "Failed to activate plan", err)
		return
	}

	h.Logger.Info("plan activated", zap.Int64("user", userID), zap.String("plan", plan.Slug), zap.Int("credits", acct.Credits))
	c.JSON(http.StatusOK, gin.H{
		"message":   "Plan activated",
		"account":   acct,
		"charLimit": activeLimit(acct, plan),
	})
}

func activeLimit(acct models.Account, plan *models.Plan) int {
	return humanize.ActiveLimit(acct, plan)
}
