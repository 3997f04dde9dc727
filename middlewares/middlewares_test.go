package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	username, role, ok := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"username": username, "role": role, "ok": ok})
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(), whoami)

	token, err := utils.GenerateToken(7, "alice", models.RoleCustomer)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"header", "Bearer " + token, "", http.StatusOK},
		{"query", "", "?token=" + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"username":"alice"`)
			}
		})
	}
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(), whoami)

	token, err := utils.GenerateToken(8, "bob", models.RoleCustomer)
	require.NoError(t, err)
	utils.BlacklistToken(token)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	r := gin.New()
	r.GET("/me", OptionalAuth(), whoami)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
}

func TestAdminOnly(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthMiddleware(), AdminOnly(), whoami)

	customer, _ := utils.GenerateToken(1, "alice", models.RoleCustomer)
	admin, _ := utils.GenerateToken(2, "admin", models.RoleAdmin)

	for token, want := range map[string]int{customer: http.StatusForbidden, admin: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	r := gin.New()
	r.GET("/ping", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"http://localhost:5173"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersAndNoStore(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/menu", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Cache-Control"), "public listings stay cacheable")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
}
