package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeSessions struct {
	active map[string]bool
	err    error
}

func (f fakeSessions) IsActive(_ context.Context, token string) (bool, error) {
	return f.active[token], f.err
}

func setupAuthRouter(sessions SessionChecker, signer *utils.TokenSigner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SetAuthUser(signer, sessions))

	r.GET("/open", func(c *gin.Context) {
		_, ok := AuthUser(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	r.GET("/me", AuthenticateToken(), func(c *gin.Context) {
		user, _ := AuthUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "token": AuthToken(c)})
	})
	r.GET("/admin", AuthenticateToken(), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetAuthUser(t *testing.T) {
	signer := utils.NewTokenSigner("test-secret", time.Hour)
	diner, err := signer.Sign(models.AuthUser{ID: 2, Roles: models.RoleSet{models.DinerRole{}}})
	require.NoError(t, err)
	admin, err := signer.Sign(models.AuthUser{ID: 1, Roles: models.RoleSet{models.AdminRole{}}})
	require.NoError(t, err)
	revoked, err := signer.Sign(models.AuthUser{ID: 3})
	require.NoError(t, err)
	forged, err := utils.NewTokenSigner("other", time.Hour).Sign(models.AuthUser{ID: 1, Roles: models.RoleSet{models.AdminRole{}}})
	require.NoError(t, err)

	sessions := fakeSessions{active: map[string]bool{diner: true, admin: true, forged: true}}
	r := setupAuthRouter(sessions, signer)

	t.Run("no token", func(t *testing.T) {
		w := doGet(r, "/open", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated": false}`, w.Body.String())

		w = doGet(r, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message": "unauthorized"}`, w.Body.String())
	})

	t.Run("active token", func(t *testing.T) {
		w := doGet(r, "/me", diner)
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(2), body["id"])
		assert.Equal(t, diner, body["token"])
	})

	t.Run("revoked token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", revoked).Code)
	})

	t.Run("forged token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", forged).Code)
	})

	t.Run("role check", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, doGet(r, "/admin", diner).Code)
		assert.Equal(t, http.StatusOK, doGet(r, "/admin", admin).Code)
	})
}

func TestSetAuthUserSessionStoreDown(t *testing.T) {
	signer := utils.NewTokenSigner("test-secret", time.Hour)
	token, err := signer.Sign(models.AuthUser{ID: 2})
	require.NoError(t, err)

	r := setupAuthRouter(fakeSessions{err: errors.New("down")}, signer)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/me", token).Code)
}

func TestWebSocketToken(t *testing.T) {
	signer := utils.NewTokenSigner("test-secret", time.Hour)
	token, err := signer.Sign(models.AuthUser{ID: 5})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WebSocketToken(), SetAuthUser(signer, fakeSessions{active: map[string]bool{token: true}}))
	r.GET("/ws", AuthenticateToken(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doGet(r, "/ws?token="+token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/ws", "").Code)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doGet(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/", "").Code)
	w := doGet(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"message": "too many requests"}`, w.Body.String())

	rl.Cleanup(0)
	assert.Empty(t, rl.ips)
	assert.Equal(t, http.StatusOK, doGet(r, "/", "").Code)
}

func TestRateLimiterStartCleanup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(rate.Every(time.Hour), 1)
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Equal(t, http.StatusOK, doGet(r, "/", "").Code)
	assert.Equal(t, 1, rl.visitors())

	rl.StartCleanup(ctx, 10*time.Millisecond, time.Millisecond)
	require.Eventually(t, func() bool { return rl.visitors() == 0 }, time.Second, 5*time.Millisecond)

	// a forgotten client starts with a fresh bucket
	assert.Equal(t, http.StatusOK, doGet(r, "/", "").Code)
}

func TestHygieneMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(), CORSMiddlewares("*"), LoggerMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://pizza.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://pizza.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
