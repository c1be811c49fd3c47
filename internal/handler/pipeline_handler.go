package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edusight/prism/internal/dto"
	"github.com/edusight/prism/internal/pipeline"
	"github.com/edusight/prism/internal/service"
	appErrors "github.com/edusight/prism/pkg/errors"
	"github.com/edusight/prism/pkg/response"
)

// PipelineHandler exposes pipeline control and result queries.
type PipelineHandler struct {
	runner *pipeline.Runner
	batch  *service.BatchService
	epr    *service.EPRService
	logger *zap.Logger
}

// NewPipelineHandler constructs a PipelineHandler.
func NewPipelineHandler(runner *pipeline.Runner, batch *service.BatchService, epr *service.EPRService, logger *zap.Logger) *PipelineHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineHandler{runner: runner, batch: batch, epr: epr, logger: logger}
}

// TriggerRun godoc
// @Summary Trigger an out-of-schedule pipeline run
// @Tags pipeline
// @Accept json
// @Produce json
// @Param payload body dto.TriggerRunRequest false "run options"
// @Success 202 {object} response.Envelope
// @Router /pipeline/runs [post]
func (h *PipelineHandler) TriggerRun(c *gin.Context) {
	var req dto.TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	if h.runner.Running() {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "a pipeline run is already active"))
		return
	}

	opts := service.BatchOptions{ConfigName: req.ConfigName, Force: req.Force}
	go func() {
		// The triggering request does not wait for the run; progress is
		// visible through the batch run listing.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if _, err := h.runner.Execute(ctx, opts); err != nil {
			h.logger.Error("triggered pipeline run failed", zap.Error(err))
		}
	}()

	response.JSON(c, http.StatusAccepted, gin.H{"status": "triggered"}, nil)
}

// ListRuns godoc
// @Summary List recent batch runs
// @Tags pipeline
// @Produce json
// @Param limit query int false "max runs"
// @Success 200 {object} response.Envelope
// @Router /pipeline/runs [get]
func (h *PipelineHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	runs, err := h.batch.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

// GetRun godoc
// @Summary Fetch one batch run
// @Tags pipeline
// @Produce json
// @Param id path string true "run id"
// @Success 200 {object} response.Envelope
// @Router /pipeline/runs/{id} [get]
func (h *PipelineHandler) GetRun(c *gin.Context) {
	run, err := h.batch.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// LatestResult godoc
// @Summary Fetch a student's latest rating
// @Tags results
// @Produce json
// @Param id path string true "student id"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/results/latest [get]
func (h *PipelineHandler) LatestResult(c *gin.Context) {
	result, err := h.epr.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ResultHistory godoc
// @Summary List a student's rating history
// @Tags results
// @Produce json
// @Param id path string true "student id"
// @Param limit query int false "max results"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/results [get]
func (h *PipelineHandler) ResultHistory(c *gin.Context) {
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}

	results, err := h.epr.History(c.Request.Context(), c.Param("id"), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
