package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskvault/internal/backup"
	"taskvault/internal/config"
	"taskvault/internal/handler"
	"taskvault/internal/model"
	"taskvault/internal/service/auth"
	"taskvault/internal/service/board"
	"taskvault/internal/store"
	"taskvault/internal/store/sqlstore"
	"taskvault/pkg/encrypt"
	"taskvault/pkg/util"
)

const (
	ownerEmail = "owner@example.com"
	password   = "correct horse"
	jwtSecret  = "router-test-secret"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	cookie *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test add optional deps, e.g. a backup job.
func newTestServerWith(t *testing.T, extra func(*Deps)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "router.db")
	handle := store.NewHandle(func(ctx context.Context) (store.Store, error) {
		st, err := sqlstore.OpenSQLite(dbPath, zap.NewNop())
		if err != nil {
			return nil, err
		}
		return st, st.Init(ctx)
	})
	t.Cleanup(func() { _ = handle.Close() })

	cfg := config.AuthConfig{AllowedEmail: ownerEmail, SessionTTL: 90 * 24 * time.Hour}
	authSvc := auth.NewService(cfg, jwtSecret, auth.NewStaticVerifier(ownerEmail, password), nil, zap.NewNop())

	deps := Deps{
		Auth:   authSvc,
		Board:  board.NewService(nil, zap.NewNop()),
		Store:  handle,
		Logger: zap.NewNop(),
	}
	if extra != nil {
		extra(&deps)
	}
	r := NewRouter(deps)
	return &testServer{t: t, engine: r.Engine}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login() {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/login", gin.H{"email": ownerEmail, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == handler.CookieName {
			s.cookie = c
		}
	}
	require.NotNil(s.t, s.cookie)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestLoginSetsSessionCookie(t *testing.T) {
	s := newTestServer(t)
	s.login()

	assert.True(t, s.cookie.HttpOnly)
	assert.Equal(t, "/", s.cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, s.cookie.SameSite)
	assert.Equal(t, 90*24*60*60, s.cookie.MaxAge)
	assert.False(t, s.cookie.Secure)

	w := s.do(http.MethodGet, "/auth/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, ownerEmail, body["user"].(map[string]any)["email"])
}

func TestWrongPasswordIsRejectedWithoutCookie(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/auth/login", gin.H{"email": ownerEmail, "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("Set-Cookie"))
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())

	w = s.do(http.MethodPost, "/auth/login", gin.H{"email": ownerEmail})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuardRejectsMissingAndForeignTokens(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/categories", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	s.cookie = &http.Cookie{Name: handler.CookieName, Value: "garbage"}
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/categories", nil).Code)

	foreign, err := util.GenerateJWT("intruder@example.com", jwtSecret, time.Hour, time.Now())
	require.NoError(t, err)
	s.cookie = &http.Cookie{Name: handler.CookieName, Value: foreign}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/categories", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/auth/session", nil).Code)

	// bearer fallback
	s.cookie = nil
	good, err := util.GenerateJWT(ownerEmail, jwtSecret, time.Hour, time.Now())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateCategoryThenList(t *testing.T) {
	s := newTestServer(t)
	s.login()

	w := s.do(http.MethodPost, "/categories", gin.H{"name": "Work", "icon": "briefcase"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cats := decode[[]model.Category](t, w)
	require.Len(t, cats, 1)
	assert.Equal(t, "Work", cats[0].Name)
	assert.Equal(t, "briefcase", cats[0].Icon)
	assert.Equal(t, model.CategoryColor, cats[0].Color)
	assert.Empty(t, cats[0].Tasks)

	w = s.do(http.MethodPost, "/categories", gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskCompletionAndArchive(t *testing.T) {
	s := newTestServer(t)
	s.login()

	cat := decode[model.Category](t, s.do(http.MethodPost, "/categories", gin.H{"name": "Errands", "icon": "cart"}))
	todos := "/categories/" + cat.ID + "/todos"

	w := s.do(http.MethodPost, todos, gin.H{"text": "Buy milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[model.Task](t, w)

	w = s.do(http.MethodPatch, todos, gin.H{"todoId": task.ID, "completed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := decode[[]model.Task](t, s.do(http.MethodGet, todos, nil))
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed)
	assert.Equal(t, "Buy milk", list[0].Title)

	w = s.do(http.MethodPost, todos+"/"+task.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Task](t, s.do(http.MethodGet, todos, nil)))
	assert.Len(t, decode[[]model.Task](t, s.do(http.MethodGet, todos+"?include_archived=true", nil)), 1)

	w = s.do(http.MethodPatch, todos+"/"+task.ID, gin.H{"archived": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, todos+"?todoId="+task.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, todos+"/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCategoryRemovesTasks(t *testing.T) {
	s := newTestServer(t)
	s.login()

	cat := decode[model.Category](t, s.do(http.MethodPost, "/categories", gin.H{"name": "Temp"}))
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/categories/"+cat.ID+"/todos", gin.H{"title": "x"}).Code)

	w := s.do(http.MethodDelete, "/categories?id="+cat.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/categories/"+cat.ID+"/todos", nil).Code)
	assert.Empty(t, decode[[]model.Category](t, s.do(http.MethodGet, "/categories", nil)))
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/categories/"+cat.ID, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/categories", nil).Code)
}

func TestPartialCategoryUpdate(t *testing.T) {
	s := newTestServer(t)
	s.login()

	cat := decode[model.Category](t, s.do(http.MethodPost, "/categories", gin.H{"name": "Home", "icon": "house"}))
	w := s.do(http.MethodPatch, "/categories/"+cat.ID, gin.H{"name": "House"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Category](t, w)
	assert.Equal(t, "House", got.Name)
	assert.Equal(t, "house", got.Icon)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.login()

	cat := decode[model.Category](t, s.do(http.MethodPost, "/categories", gin.H{"name": "Work", "icon": "briefcase"}))
	s.do(http.MethodPost, "/categories/"+cat.ID+"/todos", gin.H{"title": "Report"})

	w := s.do(http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "taskvault-export-")
	export := decode[model.DataExport](t, w)
	assert.Equal(t, 1, export.Metadata.TotalTodos)

	w = s.do(http.MethodPost, "/import?strategy=replace", export)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[model.ImportResult](t, w)
	assert.True(t, res.Success)
	assert.Equal(t, &model.ImportCounts{Categories: 1, Todos: 1}, res.Imported)

	w = s.do(http.MethodPost, "/import", gin.H{"categories": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	assert.JSONEq(t, `{"status":"ok","store":"idle"}`, w.Body.String())

	w = s.do(http.MethodPost, "/db/init", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Database initialized successfully"}`, w.Body.String())
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/db/init", nil).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/readyz", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", nil).Code)
	assert.JSONEq(t, `{"status":"ok","store":"open"}`, s.do(http.MethodGet, "/healthz", nil).Body.String())

	s.login()
	w = s.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == handler.CookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Equal(t, "", cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
}

func TestGetCategory(t *testing.T) {
	s := newTestServer(t)
	s.login()

	cat := decode[model.Category](t, s.do(http.MethodPost, "/categories", gin.H{"name": "Work", "icon": "briefcase"}))
	task := decode[model.Task](t, s.do(http.MethodPost, "/categories/"+cat.ID+"/todos", gin.H{"title": "Report"}))
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/categories/"+cat.ID+"/todos/"+task.ID+"/archive", nil).Code)

	w := s.do(http.MethodGet, "/categories/"+cat.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[model.Category](t, w)
	assert.Equal(t, "Work", got.Name)
	assert.Empty(t, got.Tasks)

	got = decode[model.Category](t, s.do(http.MethodGet, "/categories/"+cat.ID+"?include_archived=true", nil))
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, task.ID, got.Tasks[0].ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/categories/missing", nil).Code)
}

func TestPatchNullClearsOptionalFields(t *testing.T) {
	s := newTestServer(t)
	s.login()

	cat := decode[model.Category](t, s.do(http.MethodPost, "/categories", gin.H{"name": "Errands", "description": "weekend"}))
	todos := "/categories/" + cat.ID + "/todos"
	w := s.do(http.MethodPost, todos, gin.H{"title": "Dentist", "notes": "bring card", "dueDate": "2026-11-02", "priority": "high"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[model.Task](t, w)
	require.NotNil(t, task.Notes)
	require.NotNil(t, task.DueDate)

	w = s.do(http.MethodPatch, todos+"/"+task.ID, map[string]any{"notes": nil, "dueDate": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[model.Task](t, w)
	assert.Nil(t, got.Notes)
	assert.Nil(t, got.DueDate)
	require.NotNil(t, got.Priority)
	assert.Equal(t, "high", *got.Priority)

	list := decode[[]model.Task](t, s.do(http.MethodGet, todos, nil))
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Notes)
	assert.Nil(t, list[0].DueDate)

	w = s.do(http.MethodPatch, "/categories/"+cat.ID, map[string]any{"description": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[model.Category](t, w).Description)
}

func TestBackupListAndRestore(t *testing.T) {
	dir := t.TempDir()
	var job *backup.Job
	s := newTestServerWith(t, func(d *Deps) {
		codec, err := encrypt.NewCodec("backup-test-key")
		require.NoError(t, err)
		job = backup.NewJob(d.Store, ownerEmail, dir, 3, codec, zap.NewNop())
		d.Backups = job
	})
	s.login()

	w := s.do(http.MethodGet, "/backups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"backups":[]}`, w.Body.String())

	cat := decode[model.Category](t, s.do(http.MethodPost, "/categories", gin.H{"name": "Keep me"}))
	s.do(http.MethodPost, "/categories/"+cat.ID+"/todos", gin.H{"title": "one"})

	w = s.do(http.MethodPost, "/backups", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	name := decode[map[string]any](t, w)["name"].(string)

	listed := decode[struct {
		Backups []string `json:"backups"`
	}](t, s.do(http.MethodGet, "/backups", nil))
	assert.Equal(t, []string{name}, listed.Backups)

	// 备份之后的改动会被恢复覆盖
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/categories/"+cat.ID, nil).Code)
	s.do(http.MethodPost, "/categories", gin.H{"name": "Scratch"})

	w = s.do(http.MethodPost, "/backups/"+name+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[model.ImportResult](t, w)
	assert.True(t, res.Success)
	assert.Equal(t, &model.ImportCounts{Categories: 1, Todos: 1}, res.Imported)

	cats := decode[[]model.Category](t, s.do(http.MethodGet, "/categories", nil))
	require.Len(t, cats, 1)
	assert.Equal(t, "Keep me", cats[0].Name)
	require.Len(t, cats[0].Tasks, 1)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/backups/nope.enc/restore", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/backups/taskvault-backup-19700101-000000.000.enc/restore", nil).Code)
}

func TestBackupRoutesAbsentWithoutJob(t *testing.T) {
	s := newTestServer(t)
	s.login()
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/backups", nil).Code)
}
