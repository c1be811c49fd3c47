package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edusight/prism/internal/dto"
	"github.com/edusight/prism/internal/service"
	appErrors "github.com/edusight/prism/pkg/errors"
	"github.com/edusight/prism/pkg/response"
)

// ConfigurationHandler exposes weighting configuration management.
type ConfigurationHandler struct {
	configs *service.ConfigurationService
}

// NewConfigurationHandler constructs a ConfigurationHandler.
func NewConfigurationHandler(configs *service.ConfigurationService) *ConfigurationHandler {
	return &ConfigurationHandler{configs: configs}
}

// Create godoc
// @Summary Create a weighting configuration
// @Tags configurations
// @Accept json
// @Produce json
// @Param payload body dto.CreateConfigurationRequest true "configuration"
// @Success 201 {object} response.Envelope
// @Router /configurations [post]
func (h *ConfigurationHandler) Create(c *gin.Context) {
	var req dto.CreateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	cfg, err := h.configs.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

// Activate godoc
// @Summary Activate a configuration for its age group
// @Tags configurations
// @Produce json
// @Param name path string true "configuration name"
// @Success 204
// @Router /configurations/{name}/activate [post]
func (h *ConfigurationHandler) Activate(c *gin.Context) {
	if err := h.configs.Activate(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Fetch one configuration
// @Tags configurations
// @Produce json
// @Param name path string true "configuration name"
// @Success 200 {object} response.Envelope
// @Router /configurations/{name} [get]
func (h *ConfigurationHandler) Get(c *gin.Context) {
	cfg, err := h.configs.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// List godoc
// @Summary List configurations
// @Tags configurations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /configurations [get]
func (h *ConfigurationHandler) List(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}
