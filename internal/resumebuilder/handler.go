package resumebuilder

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resume-builder/internal/extract"
	"resume-builder/internal/generation"
	"resume-builder/internal/prompt"
	"resume-builder/internal/resumefile"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/submissions"
	"resume-builder/internal/templates"
	"resume-builder/internal/validation"
	"resume-builder/internal/wizard"
)

const (
	// SessionCookie names the cookie carrying the wizard session id.
	SessionCookie = "wizard_session"
	// SessionHeader carries the wizard session id for non-browser clients.
	SessionHeader = "X-Wizard-Session"

	sessionCookieMaxAge = 24 * 60 * 60
	maxMultipartBytes   = resumefile.MaxSizeBytes + 1<<20
)

// Handler wires HTTP handlers to the wizard service.
type Handler struct {
	Svc          *Service
	SecureCookie bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, secureCookie bool) *Handler {
	return &Handler{Svc: svc, SecureCookie: secureCookie}
}

// RegisterRoutes attaches the wizard and template routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.listTemplates)

	w := rg.Group("/wizard")
	w.POST("/mount", h.mount)
	w.GET("", h.view)
	w.POST("/resume", h.uploadResume)
	w.DELETE("/resume", h.removeResume)
	w.PUT("/job-description", h.setJobDescription)
	w.PUT("/job-role", h.setJobRole)
	w.POST("/template", h.toggleTemplate)
	w.PUT("/personalization", h.setPersonalization)
	w.POST("/next", h.next)
	w.POST("/prev", h.prev)
	w.POST("/suspend", h.suspend)
	w.GET("/prompt", h.prompt)
	w.POST("/submit", h.submit)
}

// SessionID returns the caller's wizard session id, or "".
func SessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	if id, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(id)
	}
	return ""
}

func (h *Handler) listTemplates(c *gin.Context) {
	kind := resumefile.Kind(strings.ToLower(strings.TrimSpace(c.Query("kind"))))
	if !kind.Valid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "kind must be one of pdf, docx, tex", nil)
		return
	}
	respond.OK(c, gin.H{"kind": kind, "templates": templateOptions(templates.Available(kind))})
}

func (h *Handler) mount(c *gin.Context) {
	sessionID := SessionID(c)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	view, restored, err := h.Svc.Mount(c.Request.Context(), sessionID, middleware.IsAuthenticated(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sessionID, sessionCookieMaxAge, "/", "", h.SecureCookie, true)
	c.Header(SessionHeader, sessionID)
	middleware.SetWizardFields(c, sessionID, int(view.State.CurrentStep))
	respond.OK(c, MountResponse{WizardResponse: toWizardResponse(sessionID, view), Restored: restored})
}

func (h *Handler) view(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.Svc.View(sessionID, middleware.IsAuthenticated(c))
	h.writeView(c, sessionID, view, err)
}

func (h *Handler) uploadResume(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.Error(c, http.StatusBadRequest, "validation_error", resumefile.MsgTooLarge, nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if _, err := resumefile.Admit(fileHeader.Filename, fileHeader.Size); err != nil {
		writeError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	upload, err := h.Svc.UploadResume(c.Request.Context(), sessionID, middleware.UserIDFromContext(c), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusAccepted
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		select {
		case <-upload.Done:
			status = http.StatusOK
		case <-c.Request.Context().Done():
			return
		}
	}

	view, err := h.Svc.View(sessionID, middleware.IsAuthenticated(c))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetWizardFields(c, sessionID, int(view.State.CurrentStep))
	respond.JSON(c, status, toWizardResponse(sessionID, view))
}

func (h *Handler) removeResume(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	view, err := h.Svc.RemoveResume(sessionID, middleware.IsAuthenticated(c))
	h.writeView(c, sessionID, view, err)
}

func (h *Handler) setJobDescription(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	value, ok := bindText(c)
	if !ok {
		return
	}
	view, err := h.Svc.SetJobDescription(sessionID, value, middleware.IsAuthenticated(c))
	h.writeView(c, sessionID, view, err)
}

func (h *Handler) setJobRole(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	value, ok := bindText(c)
	if !ok {
		return
	}
	view, err := h.Svc.SetJobRole(sessionID, value, middleware.IsAuthenticated(c))
	h.writeView(c, sessionID, view, err)
}

func (h *Handler) toggleTemplate(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	t, err := templates.Parse(req.Template)
	if err != nil || t == templates.None {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown template", nil)
		return
	}
	view, err := h.Svc.ToggleTemplate(sessionID, t, middleware.IsAuthenticated(c))
	h.writeView(c, sessionID, view, err)
}

func (h *Handler) setPersonalization(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	value, ok := bindText(c)
	if !ok {
		return
	}
	view, err := h.Svc.SetPersonalization(sessionID, value, middleware.IsAuthenticated(c))
	h.writeView(c, sessionID, view, err)
}

func (h *Handler) next(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	tr, err := h.Svc.Next(sessionID, middleware.IsAuthenticated(c))
	h.writeTransition(c, sessionID, tr, err)
}

func (h *Handler) prev(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	tr, err := h.Svc.Prev(sessionID, middleware.IsAuthenticated(c))
	h.writeTransition(c, sessionID, tr, err)
}

func (h *Handler) suspend(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.Svc.Suspend(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) prompt(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	text, err := h.Svc.Prompt(sessionID, middleware.IsAuthenticated(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, PromptResponse{Prompt: text})
}

func (h *Handler) submit(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	sub, err := h.Svc.Submit(c.Request.Context(), sessionID, middleware.UserIDFromContext(c), middleware.IsAuthenticated(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, SubmitResponse{Success: true, Filename: sub.Filename, URL: sub.URL})
}

func (h *Handler) writeView(c *gin.Context, sessionID string, view wizard.View, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetWizardFields(c, sessionID, int(view.State.CurrentStep))
	respond.OK(c, toWizardResponse(sessionID, view))
}

func (h *Handler) writeTransition(c *gin.Context, sessionID string, tr Transition, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetWizardFields(c, sessionID, int(tr.To))
	middleware.SetStepTransition(c, fmt.Sprintf("%d->%d", tr.From, tr.To))
	resp := TransitionResponse{
		WizardResponse: toWizardResponse(sessionID, tr.View),
		IsValid:        tr.Result.IsValid,
		From:           int(tr.From),
		To:             int(tr.To),
	}
	if !tr.Result.IsValid {
		respond.JSON(c, http.StatusUnprocessableEntity, resp)
		return
	}
	respond.OK(c, resp)
}

func requireSession(c *gin.Context) (string, bool) {
	id := SessionID(c)
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "wizard session is required", nil)
		return "", false
	}
	middleware.SetWizardFields(c, id, 0)
	return id, true
}

func bindText(c *gin.Context) (string, bool) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "value is required", nil)
		return "", false
	}
	return *req.Value, true
}

func writeError(c *gin.Context, err error) {
	var (
		valErr     *ValidationError
		extractErr *extract.ExtractionError
	)
	switch {
	case errors.Is(err, wizard.ErrInvalidSession):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, wizard.ErrSessionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "wizard session not mounted", nil)
	case errors.Is(err, resumefile.ErrUnsupportedType), errors.Is(err, resumefile.ErrTooLarge):
		respond.Error(c, http.StatusBadRequest, "validation_error", resumefile.UserMessage(err), nil)
	case errors.Is(err, templates.ErrUnknownTemplate):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", validation.MsgTemplateUnknown, nil)
	case errors.Is(err, ErrLoginRequired):
		respond.Error(c, http.StatusUnauthorized, "login_required", MsgLoginRequired, nil)
	case errors.Is(err, ErrTemplateUnavailable):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrExtractionPending):
		respond.Error(c, http.StatusConflict, "extraction_pending", err.Error(), nil)
	case errors.As(err, &valErr):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", err.Error(), valErr.Result.Errors)
	case errors.Is(err, prompt.ErrMissingInput), errors.Is(err, templates.ErrMissingSource):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", err.Error(), nil)
	case errors.As(err, &extractErr):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_error", err.Error(), nil)
	case errors.Is(err, generation.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "generation_unavailable", "resume generation is not configured", nil)
	case errors.Is(err, ErrGenerationFailed):
		telemetry.Error("wizard.generation_failed", map[string]any{
			"err":        err,
			"request_id": middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusBadGateway, "generation_failed", "Failed to generate resume. Please try again.", nil)
	case errors.Is(err, ErrSubmissionFailed):
		submissions.WriteSubmitError(c, err)
	case wizard.IsStorageError(err):
		telemetry.Error("wizard.storage_failed", map[string]any{
			"err":        err,
			"request_id": middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to save wizard state", nil)
	default:
		telemetry.Error("wizard.request_failed", map[string]any{
			"err":        err,
			"request_id": middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "wizard request failed", nil)
	}
}
