package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "resume-builder/internal/auth"
	"resume-builder/internal/resumebuilder"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/auth"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/submissions"
	"resume-builder/internal/users"
)

const uploadRateGroup = "UPLOAD"

// uploadRoutes are the routes that write to object storage.
var uploadRoutes = map[string]string{
	"POST /api/v1/upload":        uploadRateGroup,
	"POST /api/v1/wizard/resume": uploadRateGroup,
	"POST /api/v1/wizard/submit": uploadRateGroup,
}

// RouterDeps holds handlers and shared dependencies for routing.
type RouterDeps struct {
	Config             config.Config
	Signer             *auth.Signer
	WizardHandler      *resumebuilder.Handler
	SubmissionsHandler *submissions.Handler
	GoogleAuth         *googleauth.GoogleService
	UsersHandler       *users.Handler
	Health             *health.Service
	RateLimiter        *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(deps.Signer),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: middleware.RouteGroups(uploadRoutes),
			Limiter:  deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				uploadRateGroup: {Rate: float64(cfg.UploadRatePerMin) / 60.0, Burst: cfg.UploadBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, health.Status{OK: true, Database: "memory"})
			return
		}
		st := deps.Health.Check(c.Request.Context())
		code := http.StatusOK
		if !st.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, st)
	})
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.SubmissionsHandler != nil {
		deps.SubmissionsHandler.RegisterRoutes(api)
	}
	if deps.WizardHandler != nil {
		deps.WizardHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
