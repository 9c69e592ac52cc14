package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/telemetry"
)

const (
	wizardSessionKey  = "wizardSession"
	wizardStepKey     = "wizardStep"
	stepTransitionKey = "stepTransition"
)

// SetWizardFields records the wizard session and step for the request log.
func SetWizardFields(c *gin.Context, sessionID string, step int) {
	c.Set(wizardSessionKey, sessionID)
	c.Set(wizardStepKey, step)
}

// SetStepTransition records a step change such as "1->2" for the request log.
func SetStepTransition(c *gin.Context, transition string) {
	c.Set(stepTransitionKey, transition)
}

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get(isGuestKey)
		wizardSession, _ := c.Get(wizardSessionKey)
		wizardStep, _ := c.Get(wizardStepKey)
		stepTransition := stringFromContext(c, stepTransitionKey)

		telemetry.Info("request.complete", map[string]any{
			"request_id":      reqID,
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"status":          status,
			"step_transition": stepTransition,
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"user_id":         userID,
			"wizard_session":  wizardSession,
			"wizard_step":     wizardStep,
			"is_guest":        isGuest,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
	}
}
