package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

// me returns the stored profile, or the token claims when the profile has
// not been recorded.
func (h *Handler) me(c *gin.Context) {
	if !middleware.IsAuthenticated(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		user = User{
			ID:         userID,
			Email:      middleware.UserEmailFromContext(c),
			FullName:   middleware.UserNameFromContext(c),
			PictureURL: middleware.UserPictureFromContext(c),
		}
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}

	respond.JSON(c, http.StatusOK, toMeResponse(user))
}

type meResponse struct {
	ID          string     `json:"id"`
	Provider    string     `json:"provider"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	DisplayName string     `json:"displayName"`
	PictureURL  string     `json:"pictureUrl,omitempty"`
	LoginCount  int        `json:"loginCount"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func toMeResponse(u User) meResponse {
	out := meResponse{
		ID:          u.ID,
		Provider:    u.Provider(),
		Email:       u.Email,
		FullName:    u.FullName,
		DisplayName: u.DisplayName(),
		PictureURL:  u.PictureURL,
		LoginCount:  u.LoginCount,
	}
	if !u.LastLoginAt.IsZero() {
		ts := u.LastLoginAt
		out.LastLoginAt = &ts
	}
	return out
}
