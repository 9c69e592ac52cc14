package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestIDKeepsValidHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/x", func(c *gin.Context) { seen = RequestIDFromContext(c) })

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "client id", header: "req-123_abc.1", keep: true},
		{name: "missing", header: ""},
		{name: "too long", header: strings.Repeat("a", 65)},
		{name: "unsafe characters", header: "id\"<script>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			got := resp.Header().Get("X-Request-Id")
			if got != seen {
				t.Fatalf("header %q does not match context %q", got, seen)
			}
			if tt.keep {
				if got != tt.header {
					t.Fatalf("expected %q to be kept, got %q", tt.header, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated uuid, got %q", got)
			}
		})
	}
}
