package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"civix-be/config"
	"civix-be/controllers"
	"civix-be/models"
	"civix-be/routes"
	"civix-be/store"
	authUtils "civix-be/utils"
)

type env struct {
	router *gin.Engine
	users  *store.MemoryUserStore
	issues *store.MemoryIssueStore
	tokens *authUtils.TokenService
}

func newEnv(t *testing.T, cfg config.Config) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := store.NewMemoryUserStore()
	issues := store.NewMemoryIssueStore()
	tokens := authUtils.NewTokenService("test-secret")
	logger := zap.NewNop()

	r := gin.New()
	routes.AuthRoutes(r, controllers.NewAuthController(users, tokens, cfg, logger), tokens)
	routes.IssueRoutes(r, controllers.NewIssueController(issues, users, logger), tokens, nil, 5)

	return &env{router: r, users: users, issues: issues, tokens: tokens}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// register creates an account and returns the issued token and user body.
func (e *env) register(t *testing.T, name, username, email, password string, role models.Role) (string, map[string]any) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"username": username,
		"email":    email,
		"location": "Springfield",
		"password": password,
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	return token, user
}

// createIssue submits a valid issue and returns its ID.
func (e *env) createIssue(t *testing.T, token, title string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/issues/create", token, gin.H{
		"title":       title,
		"description": "a description",
		"priority":    "High",
		"issueType":   "Garbage",
		"address":     "Main St 1",
		"location":    gin.H{"lat": 12.97, "lng": 77.59},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}
