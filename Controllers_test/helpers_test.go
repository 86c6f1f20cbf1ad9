package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/config"
	"github.com/marior032001/jwt-pizza-service/database"
	"github.com/marior032001/jwt-pizza-service/kds"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/router"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "a@jwt.com"
	adminPassword = "admin"
)

type testApp struct {
	router *gin.Engine
	svc    *services.Services
	hub    *kds.Hub
}

// newTestApp builds the full router on an in-memory database seeded with
// the default admin. factory answers the fulfillment calls.
func newTestApp(t *testing.T, factory http.HandlerFunc) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hasher := utils.BcryptHasher{Cost: bcrypt.MinCost}
	p := database.NewMemoryProvider(database.Seed{
		Admin:  config.AdminConfig{Name: "常用名字", Email: adminEmail, Password: adminPassword},
		Hasher: hasher,
	})
	t.Cleanup(func() { p.Close() })

	if factory == nil {
		factory = factoryOK
	}
	srv := httptest.NewServer(factory)
	t.Cleanup(srv.Close)

	svc := services.New(p, hasher)
	hub := kds.NewHub()
	r := router.SetupRouter(router.Deps{
		Services:   svc,
		Signer:     utils.NewTokenSigner("test-secret", time.Hour),
		Factory:    services.NewFactoryClient(config.FactoryConfig{URL: srv.URL, APIKey: "factory-key", Timeout: 2 * time.Second}),
		Hub:        hub,
		CORSOrigin: "*",
	})
	return &testApp{router: r, svc: svc, hub: hub}
}

func factoryOK(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"jwt": "factory-jwt", "reportUrl": "http://factory/report"})
}

func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type authBody struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.MessageResponse
	decode(t, w, &body)
	return body.Message
}

func (a *testApp) register(t *testing.T, name, email string) authBody {
	t.Helper()
	w := a.do(http.MethodPost, "/api/auth", "", map[string]string{"name": name, "email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body authBody
	decode(t, w, &body)
	return body
}

func (a *testApp) login(t *testing.T, email, password string) authBody {
	t.Helper()
	w := a.do(http.MethodPut, "/api/auth", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body authBody
	decode(t, w, &body)
	return body
}

func (a *testApp) adminToken(t *testing.T) string {
	return a.login(t, adminEmail, adminPassword).Token
}

// createFranchise creates a franchise through the API and returns it.
func (a *testApp) createFranchise(t *testing.T, token, name string, admins ...string) models.Franchise {
	t.Helper()
	in := models.NewFranchise{Name: name}
	for _, e := range admins {
		in.Admins = append(in.Admins, models.AdminRef{Email: e})
	}
	w := a.do(http.MethodPost, "/api/franchise", token, in)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var f models.Franchise
	decode(t, w, &f)
	return f
}
