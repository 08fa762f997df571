package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/IkingariSolorzano/cinepoints-be/models"
)

var secret = []byte("middleware-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, role models.UserRole, method jwt.SigningMethod, key interface{}, expires time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: "7d1a7c9e-0000-4000-8000-000000000001",
		Email:  "staff@cinema.test",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestParseToken(t *testing.T) {
	valid := signed(t, models.RoleAdmin, jwt.SigningMethodHS256, secret, time.Now().Add(time.Hour))
	claims, err := ParseToken(valid, secret)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, claims.Role)

	expired := signed(t, models.RoleAdmin, jwt.SigningMethodHS256, secret, time.Now().Add(-time.Minute))
	_, err = ParseToken(expired, secret)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(valid, []byte("wrong"))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("garbage", secret)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(secret))

	require.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	require.Equal(t, http.StatusUnauthorized, do(r, "not-a-token").Code)

	w := do(r, signed(t, models.RoleViewer, jwt.SigningMethodHS256, secret, time.Now().Add(time.Hour)))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"user_id":"7d1a7c9e-0000-4000-8000-000000000001"}`, w.Body.String())
}

func TestAuthMiddlewareLogsRejectedTokens(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	r := newRouter(AuthMiddleware(secret))
	require.Equal(t, http.StatusUnauthorized, do(r, "not-a-token").Code)
	require.Contains(t, buf.String(), "[AUTH] Token validation failed for GET /")
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(AuthMiddleware(secret), RequireRoles(models.RoleAdmin, models.RoleOperator))
	future := time.Now().Add(time.Hour)

	require.Equal(t, http.StatusOK, do(r, signed(t, models.RoleOperator, jwt.SigningMethodHS256, secret, future)).Code)
	require.Equal(t, http.StatusForbidden, do(r, signed(t, models.RoleViewer, jwt.SigningMethodHS256, secret, future)).Code)

	admin := newRouter(AuthMiddleware(secret), AdminOnly())
	require.Equal(t, http.StatusForbidden, do(admin, signed(t, models.RoleOperator, jwt.SigningMethodHS256, secret, future)).Code)
	require.Equal(t, http.StatusOK, do(admin, signed(t, models.RoleAdmin, jwt.SigningMethodHS256, secret, future)).Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour)
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	r := newRouter(limiter.Middleware())

	require.Equal(t, http.StatusOK, do(r, "").Code)
	require.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"error":"too many requests, try again later"}`, w.Body.String())

	// One request's worth of tokens refills after window/requests.
	now = now.Add(30 * time.Minute)
	require.Equal(t, http.StatusOK, do(r, "").Code)
	require.Equal(t, http.StatusTooManyRequests, do(r, "").Code)
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour)
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("10.0.0.1"))
	now = now.Add(30 * time.Minute)
	require.True(t, limiter.allow("10.0.0.2"))

	// Not yet a full window since the last sweep.
	now = now.Add(20 * time.Minute)
	require.True(t, limiter.allow("10.0.0.3"))
	require.Len(t, limiter.visitors, 3)

	// The sweep drops only buckets idle for longer than the window.
	now = now.Add(15 * time.Minute)
	require.True(t, limiter.allow("10.0.0.3"))
	require.Len(t, limiter.visitors, 2)
	require.NotContains(t, limiter.visitors, "10.0.0.1")
	require.Contains(t, limiter.visitors, "10.0.0.2")
}
