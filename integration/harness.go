// Package integration wires every subsystem together behind a real
// HTTP listener and drives full request flows against it.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xploralabs/xplora/server/api/rest"
	"github.com/xploralabs/xplora/server/audit"
	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/config"
	"github.com/xploralabs/xplora/server/events"
	"github.com/xploralabs/xplora/server/quest/catalog"
	"github.com/xploralabs/xplora/server/quest/profile"
	"github.com/xploralabs/xplora/server/quest/ranking"
	"github.com/xploralabs/xplora/server/quest/submission"
	"github.com/xploralabs/xplora/server/testutil"
)

const AdminKey = "integration-admin-key"

// TestServer wraps a fully wired server behind a real listener.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Server *httptest.Server
	URL    string
	Sec    config.SecurityConfig
	audits *audit.Service
}

// NewTestServer mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	ps := testutil.SetupTestPubSub(t)
	logger := testutil.Logger()
	pub := events.NewPublisher(ps, logger)

	cfg := &config.Config{}
	cfg.Server.AdminKey = AdminKey
	cfg.Security = config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}

	profiles := profile.NewService(gdb, pub, logger)
	audits := audit.NewService(gdb, logger)

	router := rest.NewRouter(rest.Deps{
		Config:      cfg,
		DB:          gdb,
		Cache:       c,
		PubSub:      ps,
		Logger:      logger,
		Catalogs:    catalog.NewService(gdb, pub, logger),
		Profiles:    profiles,
		Submissions: submission.NewService(gdb, pub, logger),
		Rankings:    ranking.NewService(c, profiles, logger),
		Audits:      audits,
	})

	srv := httptest.NewServer(router)
	ts := &TestServer{
		DB:     gdb,
		Cache:  c,
		PubSub: ps,
		Server: srv,
		URL:    srv.URL,
		Sec:    cfg.Security,
		audits: audits,
	}
	t.Cleanup(ts.Close)
	return ts
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.audits.Close()
}

var idCounter atomic.Int64

// UniqueID returns a name unique within the test process.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, idCounter.Add(1))
}

// PostJSON sends a JSON POST with an optional bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body any, token string) *http.Response {
	t.Helper()
	return ts.request(t, http.MethodPost, path, body, token, nil)
}

// Put sends a JSON PUT with an optional bearer token.
func (ts *TestServer) Put(t *testing.T, path string, body any, token string) *http.Response {
	t.Helper()
	return ts.request(t, http.MethodPut, path, body, token, nil)
}

// Delete sends a DELETE with an optional bearer token.
func (ts *TestServer) Delete(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.request(t, http.MethodDelete, path, nil, token, nil)
}

// Get sends a GET with an optional bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.request(t, http.MethodGet, path, nil, token, nil)
}

func (ts *TestServer) request(t *testing.T, method, path string, body any, token string, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON decodes and closes a response body.
func ReadJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out), string(data))
}

// Login signs in (auto-registering on first use) and returns the token
// and account ID.
func (ts *TestServer) Login(t *testing.T, username, password string) (string, int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Token     string `json:"token"`
		AccountID int64  `json:"account_id"`
	}
	ReadJSON(t, resp, &out)
	return out.Token, out.AccountID
}

// Bootstrap initializes the registry with the given authority.
func (ts *TestServer) Bootstrap(t *testing.T, authorityID int64) {
	t.Helper()
	resp := ts.request(t, http.MethodPost, "/api/registry",
		map[string]int64{"authority_id": authorityID}, "",
		map[string]string{"X-Admin-Key": AdminKey})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// Quest returns a valid quest body with the given difficulty.
func Quest(difficulty string) map[string]any {
	return map[string]any{
		"title":               "Sunrise at Sarangkot",
		"description":         "Photograph the Annapurna range from the viewpoint",
		"quest_type":          "exploration",
		"difficulty":          difficulty,
		"time_to_live_hours":  48,
		"verifiable_landmark": "Sarangkot viewpoint tower",
		"landmark_name":       "Sarangkot",
		"latitude":            28.24,
		"longitude":           83.95,
	}
}
