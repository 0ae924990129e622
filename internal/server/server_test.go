package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ethics-review-be/internal/bootstrap"
	"ethics-review-be/internal/config"
	"ethics-review-be/internal/server"
	"ethics-review-be/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminToken     = "admin-secret"
	libraryChatbot = "Create an AI chatbot that answers common questions regarding library hours and services."
	surveillance   = "Develop a surveillance system that utilizes real-time facial recognition technology to monitor public areas."
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type sessionBody struct {
	Id     string `json:"id"`
	State  string `json:"state"`
	Agents []struct {
		Id       string `json:"id"`
		Name     string `json:"name"`
		Reserved bool   `json:"reserved"`
	} `json:"agents"`
	Verdict *struct {
		Category string `json:"category"`
		Blocking bool   `json:"blocking"`
	} `json:"verdict"`
	Transcript []struct {
		Kind    string `json:"kind"`
		Speaker string `json:"speaker"`
	} `json:"transcript"`
	CanElaborate bool `json:"can_elaborate"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	return newTestAppWithOrigins(t, "http://localhost")
}

func newTestAppWithOrigins(t *testing.T, origins string) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			LogFilePath:        filepath.Join(dir, "app.log"),
			CorsAllowedOrigins: origins,
			AdminToken:         adminToken,
		},
		Session: config.SessionConfig{Secret: "test-secret", TTL: time.Hour},
		Assistant: config.AssistantConfig{
			Provider:        "memory",
			Model:           "gpt-4o-mini",
			PollInitial:     time.Millisecond,
			PollMax:         2 * time.Millisecond,
			PollTimeout:     time.Second,
			VectorStoreName: "eu-ai-act",
		},
		Review: config.ReviewConfig{PDFDir: dir, MaxRounds: 10},
	}

	db, err := database.NewSQLiteDB(":memory:", true)
	require.NoError(t, err)
	require.NoError(t, bootstrap.Migrate(db))

	container, err := bootstrap.NewContainer(context.Background(), db, cfg)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return server.New(cfg, container).GetApp()
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func createSession(t *testing.T, app *fiber.App) (string, sessionBody) {
	t.Helper()
	resp, env := do(t, app, http.MethodPost, "/api/review/v1/session", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var data struct {
		Token   string      `json:"token"`
		Session sessionBody `json:"session"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token, data.Session
}

func decodeSession(t *testing.T, env envelope) sessionBody {
	t.Helper()
	var s sessionBody
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s
}

func TestPrompts(t *testing.T) {
	app := newTestApp(t)
	resp, env := do(t, app, http.MethodGet, "/api/review/v1/prompts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var prompts []map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &prompts))
	assert.Len(t, prompts, 4)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, env := do(t, app, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "memory", data["provider"])
	assert.NotEmpty(t, data["store_id"])
}

func TestCorsOrigins(t *testing.T) {
	tests := []struct {
		name            string
		origins         string
		wantOrigin      string
		wantCredentials string
	}{
		{name: "concrete origin", origins: "http://localhost", wantOrigin: "http://localhost", wantCredentials: "true"},
		{name: "wildcard", origins: "*", wantOrigin: "*", wantCredentials: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var app *fiber.App
			require.NotPanics(t, func() { app = newTestAppWithOrigins(t, tt.origins) })

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", "http://localhost")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, resp.Header.Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestSessionRequired(t *testing.T) {
	app := newTestApp(t)
	resp, env := do(t, app, http.MethodGet, "/api/review/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)

	resp, _ = do(t, app, http.MethodGet, "/api/review/v1/session", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReviewFlow(t *testing.T) {
	app := newTestApp(t)
	token, sess := createSession(t, app)
	require.Len(t, sess.Agents, 1)
	assert.True(t, sess.Agents[0].Reserved)
	assert.Equal(t, "awaiting_description", sess.State)

	resp, _ := do(t, app, http.MethodPost, "/api/review/v1/agents", token, map[string]string{"name": "Data Scientist", "role": "Evaluates data quality."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := do(t, app, http.MethodPost, "/api/review/v1/agents", token, map[string]string{"name": "AI Ethicist", "role": "impostor"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	resp, env = do(t, app, http.MethodPost, "/api/review/v1/review", token, map[string]interface{}{"description": libraryChatbot, "rounds": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess = decodeSession(t, env)
	assert.Equal(t, "idle", sess.State)
	require.NotNil(t, sess.Verdict)
	assert.Equal(t, "Minimal Risk", sess.Verdict.Category)
	// verdict + 2 x (round marker + 2 agents)
	require.Len(t, sess.Transcript, 7)
	assert.Equal(t, "AI Ethicist", sess.Transcript[3].Speaker)

	req := httptest.NewRequest(http.MethodGet, "/api/review/v1/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	exportResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, exportResp.StatusCode)
	assert.Contains(t, exportResp.Header.Get("Content-Disposition"), "conversation_history.txt")
	text, err := io.ReadAll(exportResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Project Description:\n"+libraryChatbot)
	assert.Contains(t, string(text), "Name: Data Scientist\nInstructions: Evaluates data quality.")
	assert.Contains(t, string(text), "ROUND: 2\n")

	resp, _ = do(t, app, http.MethodPost, "/api/review/v1/converse", token, map[string]int{"rounds": 11})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/api/review/v1/session", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, app, http.MethodGet, "/api/review/v1/session", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnacceptableFlow(t *testing.T) {
	app := newTestApp(t)
	token, _ := createSession(t, app)

	resp, env := do(t, app, http.MethodPost, "/api/review/v1/assess", token, map[string]string{"description": surveillance})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := decodeSession(t, env)
	assert.Equal(t, "blocked_unacceptable", sess.State)
	assert.True(t, sess.Verdict.Blocking)
	assert.True(t, sess.CanElaborate)

	resp, _ = do(t, app, http.MethodPost, "/api/review/v1/converse", token, map[string]int{"rounds": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env = do(t, app, http.MethodPost, "/api/review/v1/elaborate", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess = decodeSession(t, env)
	assert.Equal(t, "idle", sess.State)
	assert.False(t, sess.CanElaborate)
	require.Len(t, sess.Transcript, 2)
	assert.Equal(t, "AI Ethicist", sess.Transcript[1].Speaker)

	resp, _ = do(t, app, http.MethodPost, "/api/review/v1/elaborate", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAddAgentFromRoleFile(t *testing.T) {
	app := newTestApp(t)
	token, _ := createSession(t, app)

	upload := func(filename, content string) *http.Response {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("name", "Tester"))
		part, err := w.CreateFormFile("role_file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/review/v1/agents", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusBadRequest, upload("tester.pdf", "Finds bugs.").StatusCode)
	resp := upload("tester.txt", "Finds bugs.")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	_, env := do(t, app, http.MethodGet, "/api/review/v1/session", token, nil)
	sess := decodeSession(t, env)
	require.Len(t, sess.Agents, 2)
	assert.Equal(t, "Tester", sess.Agents[1].Name)

	resp, _ = do(t, app, http.MethodDelete, "/api/review/v1/agents/"+sess.Agents[0].Id, token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, "/api/review/v1/agents/"+sess.Agents[1].Id, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, http.MethodPost, "/api/admin/v1/documents/sync", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := do(t, app, http.MethodPost, "/api/admin/v1/documents/sync", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	resp, _ = do(t, app, http.MethodPost, "/api/admin/v1/registry/refresh", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/admin/v1/documents", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIndexPageStartsSession(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "review_session=")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Agents4EthicalSE")
	assert.Contains(t, string(body), "AI Ethicist")
	assert.Contains(t, string(body), "Library Information")
}

func TestPageResetEndsSession(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "review_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/ui/reset", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/review/v1/session", cookie.Value, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
