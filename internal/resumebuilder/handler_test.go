package resumebuilder

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/generation"
	"resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/server/middleware"
)

type testServer struct {
	router *gin.Engine
	signer *auth.Signer
}

func newTestServer(t *testing.T, gen *fakeGenerator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var g generation.Generator
	if gen != nil {
		g = gen
	}
	svc, _ := newTestService(t, g)
	signer, err := auth.NewSigner("handler-test-secret", "dev", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(signer))
	NewHandler(svc, false).RegisterRoutes(api)
	return &testServer{router: router, signer: signer}
}

func (s *testServer) do(t *testing.T, method, path, session string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) upload(t *testing.T, session, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizard/resume?wait=true", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(SessionHeader, session)
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func TestMountIssuesSessionCookie(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)

	mounted := decode[MountResponse](t, resp)
	require.NotEmpty(t, mounted.SessionID)
	require.False(t, mounted.Restored)
	require.Equal(t, 1, int(mounted.State.CurrentStep))
	require.Equal(t, mounted.SessionID, resp.Header().Get(SessionHeader))
	require.Contains(t, resp.Header().Get("Set-Cookie"), SessionCookie+"="+mounted.SessionID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wizard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: mounted.SessionID})
	viewResp := httptest.NewRecorder()
	srv.router.ServeHTTP(viewResp, req)
	require.Equal(t, http.StatusOK, viewResp.Code)
}

func TestWizardRequiresMountedSession(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, http.MethodGet, "/api/v1/wizard", "", nil, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = srv.do(t, http.MethodPost, "/api/v1/wizard/next", "never-mounted", nil, "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, "not_found", decode[errorEnvelope](t, resp).Error.Code)
}

func TestTemplatesByKind(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, http.MethodGet, "/api/v1/templates?kind=PDF", "", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[struct {
		Templates []TemplateOption `json:"templates"`
	}](t, resp)
	require.Len(t, body.Templates, 3)
	require.Equal(t, "Modern Resume Template", body.Templates[0].Title)

	resp = srv.do(t, http.MethodGet, "/api/v1/templates?kind=tex", "", nil, "")
	body = decode[struct {
		Templates []TemplateOption `json:"templates"`
	}](t, resp)
	require.Len(t, body.Templates, 4)

	resp = srv.do(t, http.MethodGet, "/api/v1/templates?kind=txt", "", nil, "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestNextWithMissingFieldsIsUnprocessable(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "").Code)

	resp := srv.do(t, http.MethodPost, "/api/v1/wizard/next", "s1", nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	tr := decode[TransitionResponse](t, resp)
	require.False(t, tr.IsValid)
	require.Equal(t, 1, tr.To)
	require.Contains(t, tr.Errors, "resumeFile")
	require.Contains(t, tr.Errors, "jobDescription")
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "").Code)

	resp := srv.upload(t, "s1", "notes.txt", "hello")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "Please upload a PDF, DOCX, or LaTeX file", decode[errorEnvelope](t, resp).Error.Message)
}

func TestPersonalizationForGuestIsRejected(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "").Code)

	resp := srv.do(t, http.MethodPut, "/api/v1/wizard/personalization", "s1", map[string]string{"value": "Focus on leadership"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	body := decode[errorEnvelope](t, resp)
	require.Equal(t, "login_required", body.Error.Code)
	require.Equal(t, MsgLoginRequired, body.Error.Message)
}

func TestWizardEndToEnd(t *testing.T) {
	gen := &fakeGenerator{out: "\\documentclass{article}\\begin{document}Done\\end{document}"}
	srv := newTestServer(t, gen)
	token, err := srv.signer.Sign("google:1", auth.Claims{Email: "jane@example.com"})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "").Code)

	resp := srv.upload(t, "s1", "cv.tex", texSource)
	require.Equal(t, http.StatusOK, resp.Code)
	uploaded := decode[WizardResponse](t, resp)
	require.Equal(t, texSource, uploaded.State.ResumeFile.ExtractedText)
	require.Equal(t, "65 B", uploaded.ResumeFileSize)

	resp = srv.do(t, http.MethodPut, "/api/v1/wizard/job-description", "s1", map[string]string{"value": "Go platform team"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = srv.do(t, http.MethodPost, "/api/v1/wizard/next", "s1", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 2, decode[TransitionResponse](t, resp).To)

	resp = srv.do(t, http.MethodPut, "/api/v1/wizard/job-role", "s1", map[string]string{"value": "Platform Engineer"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = srv.do(t, http.MethodPost, "/api/v1/wizard/template", "s1", map[string]string{"template": "classic"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "classic", string(decode[WizardResponse](t, resp).State.Template))
	resp = srv.do(t, http.MethodPost, "/api/v1/wizard/next", "s1", nil, "")
	require.Equal(t, 3, decode[TransitionResponse](t, resp).To)

	resp = srv.do(t, http.MethodPut, "/api/v1/wizard/personalization", "s1", map[string]string{"value": "Highlight on-call work"}, token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = srv.do(t, http.MethodGet, "/api/v1/wizard/prompt", "s1", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	text := decode[PromptResponse](t, resp).Prompt
	require.Contains(t, text, "Highlight on-call work")
	require.Contains(t, text, "**TEMPLATE**")

	resp = srv.do(t, http.MethodPost, "/api/v1/wizard/submit", "s1", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	submitted := decode[SubmitResponse](t, resp)
	require.True(t, submitted.Success)
	require.True(t, strings.HasSuffix(submitted.URL, submitted.Filename))
	require.Contains(t, gen.last().Prompt, "Highlight on-call work")
}

func TestSubmitWithoutProviderIsUnavailable(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "").Code)
	require.Equal(t, http.StatusOK, srv.upload(t, "s1", "cv.tex", texSource).Code)
	srv.do(t, http.MethodPut, "/api/v1/wizard/job-description", "s1", map[string]string{"value": "JD"}, "")
	srv.do(t, http.MethodPut, "/api/v1/wizard/job-role", "s1", map[string]string{"value": "Role"}, "")
	srv.do(t, http.MethodPost, "/api/v1/wizard/template", "s1", map[string]string{"template": "modern"}, "")

	resp := srv.do(t, http.MethodPost, "/api/v1/wizard/submit", "s1", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Equal(t, "generation_unavailable", decode[errorEnvelope](t, resp).Error.Code)
}

func TestSuspendThenMountRestores(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "").Code)
	srv.do(t, http.MethodPut, "/api/v1/wizard/job-description", "s1", map[string]string{"value": "Kept across sign-in"}, "")

	require.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPost, "/api/v1/wizard/suspend", "s1", nil, "").Code)
	require.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/wizard", "s1", nil, "").Code)

	resp := srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "")
	mounted := decode[MountResponse](t, resp)
	require.True(t, mounted.Restored)
	require.Equal(t, "Kept across sign-in", mounted.State.JobDescription)

	resp = srv.do(t, http.MethodPost, "/api/v1/wizard/mount", "s1", nil, "")
	require.False(t, decode[MountResponse](t, resp).Restored)
}
