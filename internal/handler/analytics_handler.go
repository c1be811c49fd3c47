package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edusight/prism/internal/repository"
	appErrors "github.com/edusight/prism/pkg/errors"
	"github.com/edusight/prism/pkg/response"
)

type rollupLister interface {
	ListRollups(ctx context.Context, limit int) ([]repository.WellbeingRollup, error)
}

// AnalyticsHandler serves derived wellbeing trends from the analytics store.
type AnalyticsHandler struct {
	rollups rollupLister
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(rollups rollupLister) *AnalyticsHandler {
	return &AnalyticsHandler{rollups: rollups}
}

// ListRollups godoc
// @Summary List daily band distributions
// @Tags analytics
// @Produce json
// @Param limit query int false "max days"
// @Success 200 {object} response.Envelope
// @Router /analytics/rollups [get]
func (h *AnalyticsHandler) ListRollups(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	rollups, err := h.rollups.ListRollups(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list rollups"))
		return
	}
	response.JSON(c, http.StatusOK, rollups, nil)
}
