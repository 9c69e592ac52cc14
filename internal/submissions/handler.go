package submissions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
)

// Handler exposes the LaTeX upload endpoint.
type Handler struct {
	Svc *Service
}

type uploadRequest struct {
	LatexCode *string `json:"latexCode"`
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// RegisterRoutes attaches submission routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.GET("/submissions", h.list)
	rg.GET("/submissions/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxLatexBytes+64<<10)

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.Error(c, http.StatusBadRequest, "validation_error", MsgTooLarge, nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid JSON in request body", nil)
		return
	}
	code := ""
	if req.LatexCode != nil {
		code = *req.LatexCode
	}

	sub, err := h.Svc.Submit(c.Request.Context(), Input{
		OwnerID:   middleware.UserIDFromContext(c),
		LatexCode: code,
	})
	if err != nil {
		WriteSubmitError(c, err)
		return
	}
	metrics.IncSubmission()
	respond.OK(c, UploadResponse{Success: true, Filename: sub.Filename, URL: sub.URL})
}

// WriteSubmitError maps Submit errors onto HTTP responses.
func WriteSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgTooLarge, nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgInvalidInput, nil)
	default:
		metrics.IncSubmissionFailed()
		telemetry.Error("submissions.upload_failed", map[string]any{
			"err":        err,
			"request_id": middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "storage_error", "Failed to upload file. Please try again.", nil)
	}
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	subs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list submissions", nil)
		return
	}
	respond.OK(c, gin.H{"items": subs})
}

func (h *Handler) get(c *gin.Context) {
	sub, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load submission", nil)
		return
	}
	respond.OK(c, sub)
}
