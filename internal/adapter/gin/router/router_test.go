package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"userboard-api/internal/adapter/db/postgres"
	"userboard-api/internal/adapter/db/session"
	"userboard-api/internal/adapter/gin/handler"
	"userboard-api/internal/adapter/gin/middleware"
	"userboard-api/internal/usecase/user"
	"userboard-api/pkg/metrics"
	"userboard-api/pkg/validation"
)

type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, func(*Options) {})
}

func setupTestServerWith(t *testing.T, configure func(*Options)) *testServer {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	// Each :memory: connection is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&postgres.UserSchema{}))

	sessions := session.NewFactory(db, log)
	newUsecase := func(s *session.Session) user.Usecase {
		return user.New(postgres.NewUserRepoPG(s.DB(), log), log)
	}

	registry := prometheus.NewRegistry()
	opts := Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		Metrics:        metrics.NewCollector(registry),
		Gatherer:       registry,
	}
	configure(&opts)

	h := SetupRouter(
		handler.NewUserHandler(newUsecase, validation.New(), log),
		handler.NewSystemHandler("UserBoard API", "userboard-api", sessions, log),
		sessions,
		opts,
		log,
	)

	return &testServer{handler: h, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	s.handler.ServeHTTP(w, req)
	return w
}

func TestUserLifecycle(t *testing.T) {
	s := setupTestServer(t)

	// Create
	w := s.do(t, http.MethodPost, "/users/create",
		`{"firstname":"Jane","lastname":"Smith","age":30,"date_of_birth":"1993-12-10"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, handler.UserResponse{
		ID:          created.ID,
		Firstname:   "Jane",
		Lastname:    "Smith",
		Age:         30,
		DateOfBirth: "1993-12-10",
	}, created)

	// List holds exactly the created user
	w = s.do(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, created, users[0])

	// Delete succeeds once
	deleteBody := fmt.Sprintf(`{"id":%d}`, created.ID)
	w = s.do(t, http.MethodDelete, "/user", deleteBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User deleted successfully"}`, w.Body.String())

	// List is empty again
	w = s.do(t, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// A second delete reports not found
	w = s.do(t, http.MethodDelete, "/user", deleteBody)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"User not found"}`, w.Body.String())
}

func TestCreateUser_FreshIDs(t *testing.T) {
	s := setupTestServer(t)
	body := `{"firstname":"John","lastname":"Doe","age":25,"date_of_birth":"1998-05-15"}`

	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPost, "/users/create", body)
		require.Equal(t, http.StatusOK, w.Code)

		var created handler.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.False(t, seen[created.ID], "id %d assigned twice", created.ID)
		seen[created.ID] = true
	}
}

func TestDeleteUnknownUser_LeavesStoreUnchanged(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/users/create",
		`{"firstname":"Jane","lastname":"Smith","age":30,"date_of_birth":"1993-12-10"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/user", `{"id":424242}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/users", "")
	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestCreateUser_InvalidNeverReachesStore(t *testing.T) {
	s := setupTestServer(t)

	bodies := []string{
		`{"firstname":"","lastname":"Smith","age":30,"date_of_birth":"1993-12-10"}`,
		`{"firstname":"Jane","lastname":"Smith","age":-1,"date_of_birth":"1993-12-10"}`,
		`{"firstname":"Jane","lastname":"Smith","age":151,"date_of_birth":"1993-12-10"}`,
		`{"firstname":"Jane","lastname":"Smith","age":30}`,
		`{"firstname":"","lastname":"Smith","age":"thirty","date_of_birth":"bad"}`,
	}
	for _, body := range bodies {
		w := s.do(t, http.MethodPost, "/users/create", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
	}

	w := s.do(t, http.MethodGet, "/users", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRootAndHealth(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"UserBoard API is running"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)
}

func TestRequestID(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/", "")
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-abc")
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, "req-abc", w.Header().Get(middleware.HeaderRequestID))
}

func TestCORS(t *testing.T) {
	s := setupTestServer(t)

	t.Run("Preflight From Allowed Origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/users/create", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		s.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("Unknown Origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.example")
		s.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)

	s.do(t, http.MethodGet, "/users", "")

	w := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `userboard_http_requests_total{method="GET",route="/users",status_code="200"} 1`)
}

func TestOpenAPI(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/openapi.json", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, p := range []string{"/users", "/users/create", "/user"} {
		assert.Contains(t, paths, p)
	}
}

func TestSessionReleasedAfterRequest(t *testing.T) {
	s := setupTestServer(t)

	// The pool holds a single connection, so a leaked session would block the next request
	for i := 0; i < 5; i++ {
		w := s.do(t, http.MethodGet, "/users", "")
		require.Equal(t, http.StatusOK, w.Code)
		w = s.do(t, http.MethodDelete, "/user", `{"id":1}`)
		require.Equal(t, http.StatusNotFound, w.Code)
		w = s.do(t, http.MethodPost, "/users/create", `{"firstname":"","lastname":"","age":1,"date_of_birth":"2000-01-01"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}
}

// recordingLimiter allows every request and remembers the keys it was asked about
type recordingLimiter struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return true, nil
}

func (l *recordingLimiter) lastKey() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.keys) == 0 {
		return ""
	}
	return l.keys[len(l.keys)-1]
}

func TestRateLimitKey_ClientIP(t *testing.T) {
	tests := []struct {
		name    string
		proxies []string
		wantIP  string
	}{
		// httptest requests come from 192.0.2.1
		{name: "forwarded header ignored by default", proxies: nil, wantIP: "192.0.2.1"},
		{name: "forwarded header from untrusted peer ignored", proxies: []string{"10.0.0.0/8"}, wantIP: "192.0.2.1"},
		{name: "forwarded header from trusted proxy honored", proxies: []string{"192.0.2.1"}, wantIP: "203.0.113.7"},
		{name: "invalid proxy list trusts none", proxies: []string{"not-a-proxy"}, wantIP: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := &recordingLimiter{}
			s := setupTestServerWith(t, func(o *Options) {
				o.RateLimiter = limiter
				o.TrustedProxies = tt.proxies
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.7")
			s.handler.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ratelimit:tb:GET:/:"+tt.wantIP, limiter.lastKey())
		})
	}
}
