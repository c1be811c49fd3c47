package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/edusight/prism/pkg/errors"
	"github.com/edusight/prism/pkg/response"
)

// ExportHandler serves report artifacts written by the pipeline.
type ExportHandler struct {
	storageDir string
}

// NewExportHandler constructs an ExportHandler over the artifact directory.
func NewExportHandler(storageDir string) *ExportHandler {
	return &ExportHandler{storageDir: storageDir}
}

// List godoc
// @Summary List available report artifacts
// @Tags exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exports [get]
func (h *ExportHandler) List(c *gin.Context) {
	entries, err := os.ReadDir(h.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			response.JSON(c, http.StatusOK, []string{}, nil)
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read exports"))
		return
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	response.JSON(c, http.StatusOK, names, nil)
}

// Download godoc
// @Summary Download one report artifact
// @Tags exports
// @Produce octet-stream
// @Param name path string true "artifact file name"
// @Success 200 {file} binary
// @Router /exports/{name} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	name := c.Param("name")
	// Artifact names are flat; anything path-like is an escape attempt.
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid artifact name"))
		return
	}

	path := filepath.Join(h.storageDir, name)
	if _, err := os.Stat(path); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "artifact not found"))
		return
	}
	c.FileAttachment(path, name)
}
