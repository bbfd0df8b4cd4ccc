package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-frameworks/internal/http/response"
	frameworksmod "github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/materialize"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

const (
	importFileField       = "importfile"
	DefaultMaxUploadBytes = 32 << 20
)

type FrameworkHandlerDeps struct {
	Log        *logger.Logger
	Frameworks frameworksmod.Usecases
	// MaxUploadBytes caps the multipart body; zero uses DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

type FrameworkHandler struct {
	log        *logger.Logger
	frameworks frameworksmod.Usecases
	maxBytes   int64
}

func NewFrameworkHandlerWithDeps(deps FrameworkHandlerDeps) *FrameworkHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	maxBytes := deps.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &FrameworkHandler{
		log:        log.With("handler", "FrameworkHandler"),
		frameworks: deps.Frameworks,
		maxBytes:   maxBytes,
	}
}

// POST /api/frameworks/import
func (h *FrameworkHandler) Import(c *gin.Context) {
	file, header, ok := h.openImportFile(c)
	if !ok {
		return
	}
	defer file.Close()

	atomic := h.frameworks.AtomicDefault()
	if raw := strings.TrimSpace(c.PostForm("atomic")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_atomic", err)
			return
		}
		atomic = v
	}
	cfg, err := containerFromForm(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_form", err)
		return
	}

	out, err := h.frameworks.Import(c.Request.Context(), frameworksmod.ImportInput{
		Document:   file,
		SourceName: header.Filename,
		Profile:    c.PostForm("profile"),
		Container:  cfg,
		Atomic:     atomic,
	})
	if err != nil {
		h.log.Warn("framework import failed", "idnumber", cfg.IDNumber, "run_id", out.RunID, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, out)
}

// POST /api/frameworks/preview
func (h *FrameworkHandler) Preview(c *gin.Context) {
	file, _, ok := h.openImportFile(c)
	if !ok {
		return
	}
	defer file.Close()

	out, err := h.frameworks.Preview(c.Request.Context(), frameworksmod.PreviewInput{
		Document: file,
		Profile:  c.PostForm("profile"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/frameworks/:id
func (h *FrameworkHandler) GetFramework(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_framework_id", err)
		return
	}
	view, err := h.frameworks.GetFramework(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/import-runs?idnumber=...&limit=20
func (h *FrameworkHandler) ListImportRuns(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	runs, err := h.frameworks.ListImportRuns(c.Request.Context(), c.Query("idnumber"), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

// GET /api/import-profiles
func (h *FrameworkHandler) ListProfiles(c *gin.Context) {
	response.RespondOK(c, gin.H{"profiles": h.frameworks.ProfileNames()})
}

func (h *FrameworkHandler) openImportFile(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	if c.Request.ContentLength > h.maxBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "import_file_too_large", nil)
		return nil, nil, false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	if err := c.Request.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "import_file_too_large", err)
			return nil, nil, false
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return nil, nil, false
	}
	file, header, err := c.Request.FormFile(importFileField)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_import_file", err)
		return nil, nil, false
	}
	if header.Size == 0 {
		_ = file.Close()
		response.RespondError(c, http.StatusBadRequest, "empty_import_file", io.ErrUnexpectedEOF)
		return nil, nil, false
	}
	return file, header, true
}

func containerFromForm(c *gin.Context) (materialize.ContainerConfig, error) {
	cfg := materialize.ContainerConfig{
		ShortName:          strings.TrimSpace(c.PostForm("shortname")),
		IDNumber:           strings.TrimSpace(c.PostForm("idnumber")),
		Description:        c.PostForm("description"),
		ScaleID:            strings.TrimSpace(c.PostForm("scaleid")),
		ScaleConfiguration: c.PostForm("scaleconfiguration"),
		ContextID:          strings.TrimSpace(c.PostForm("contextid")),
		Visible:            true,
	}
	if raw := strings.TrimSpace(c.PostForm("visible")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("visible: %w", err)
		}
		cfg.Visible = v
	}
	for _, v := range c.PostFormArray("taxonomies") {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Taxonomies = append(cfg.Taxonomies, t)
			}
		}
	}
	return cfg, nil
}
