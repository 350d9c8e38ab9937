package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavestride/internal/app/server"
	"leavestride/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (e envelope) code() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Code
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.StoreDriver = "memory"
	cfg.JWTSecret = "test-secret"
	cfg.SeedAdminEmail = "admin@test.local"
	cfg.SeedAdminPassword = "ChangeMe123!"
	cfg.RateLimitRequests = 1000
	cfg.FrontendDir = t.TempDir()
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any, headers ...string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err, "%s %s", method, path)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), "decode %s %s: %s", method, path, raw)
	}
	return resp, env
}

func expectStatus(t *testing.T, resp *http.Response, env envelope, want int) {
	t.Helper()
	require.Equal(t, want, resp.StatusCode, "%s %s (%s)", resp.Request.Method, resp.Request.URL.Path, env.code())
}

func decode(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	resp, env := call(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	expectStatus(t, resp, env, http.StatusOK)
	var tokens struct {
		Token string `json:"token"`
	}
	decode(t, env, &tokens)
	require.NotEmpty(t, tokens.Token)
	return tokens.Token
}

func createUser(t *testing.T, ts *httptest.Server, token string, payload map[string]any) string {
	t.Helper()
	resp, env := call(t, ts, http.MethodPost, "/api/v1/users", token, payload)
	expectStatus(t, resp, env, http.StatusCreated)
	var u struct {
		ID         string `json:"id"`
		EmployeeID string `json:"employeeId"`
	}
	decode(t, env, &u)
	require.NotEmpty(t, u.ID)
	require.NotEmpty(t, u.EmployeeID)
	return u.ID
}

// nextMonday is at least two weeks out so submissions never start in the past.
func nextMonday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 14)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

type leaveView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Days   int    `json:"days"`
}

type balancesView struct {
	LeaveBalances struct {
		Vacation int `json:"vacation"`
	} `json:"leaveBalances"`
	Department string `json:"department"`
}

func TestLeaveApprovalJourney(t *testing.T) {
	cfg := testConfig(t)
	ts := newTestServer(t, cfg)

	adminToken := login(t, ts, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	managerID := createUser(t, ts, adminToken, map[string]any{
		"firstName": "Mona", "lastName": "Reyes", "email": "mona@test.local",
		"password": "secret123", "role": "MANAGER", "department": "Engineering",
	})
	employeeID := createUser(t, ts, adminToken, map[string]any{
		"firstName": "Erin", "lastName": "Stone", "email": "erin@test.local",
		"password": "secret123", "department": "Engineering", "managerId": managerID,
	})

	employeeToken := login(t, ts, "erin@test.local", "secret123")
	managerToken := login(t, ts, "mona@test.local", "secret123")

	from := nextMonday()
	resp, env := call(t, ts, http.MethodPost, "/api/v1/leaves", employeeToken, map[string]string{
		"leaveType": "VACATION",
		"from":      from.Format("2006-01-02"),
		"to":        from.AddDate(0, 0, 1).Format("2006-01-02"),
		"reason":    "Family visit",
	})
	expectStatus(t, resp, env, http.StatusCreated)
	var submitted leaveView
	decode(t, env, &submitted)
	assert.Equal(t, "PENDING", submitted.Status)
	assert.Equal(t, 2, submitted.Days)

	resp, env = call(t, ts, http.MethodPatch, "/api/v1/leaves/"+submitted.ID, employeeToken, map[string]string{"status": "APPROVED"})
	expectStatus(t, resp, env, http.StatusForbidden)
	resp, env = call(t, ts, http.MethodPatch, "/api/v1/leaves/no-such-request", employeeToken, map[string]string{"status": "APPROVED"})
	expectStatus(t, resp, env, http.StatusNotFound)

	resp, env = call(t, ts, http.MethodPatch, "/api/v1/leaves/"+submitted.ID, managerToken, map[string]string{"status": "APPROVED", "comment": "Enjoy"})
	expectStatus(t, resp, env, http.StatusOK)
	var approved leaveView
	decode(t, env, &approved)
	assert.Equal(t, "APPROVED", approved.Status)

	resp, env = call(t, ts, http.MethodGet, "/api/v1/users/me", employeeToken, nil)
	expectStatus(t, resp, env, http.StatusOK)
	var me balancesView
	decode(t, env, &me)
	assert.Equal(t, 19, me.LeaveBalances.Vacation)

	// A profile-only edit leaves the debited balance alone.
	resp, env = call(t, ts, http.MethodPut, "/api/v1/users/"+employeeID, adminToken, map[string]string{"department": "Finance"})
	expectStatus(t, resp, env, http.StatusOK)
	var edited balancesView
	decode(t, env, &edited)
	assert.Equal(t, "Finance", edited.Department)
	assert.Equal(t, 19, edited.LeaveBalances.Vacation)

	resp, env = call(t, ts, http.MethodPost, "/api/v1/leaves", employeeToken, map[string]string{
		"leaveType": "CASUAL",
		"from":      from.Format("2006-01-02"),
		"to":        from.AddDate(0, 0, 2).Format("2006-01-02"),
		"reason":    "Overlap",
	})
	expectStatus(t, resp, env, http.StatusBadRequest)

	resp, env = call(t, ts, http.MethodGet, "/api/v1/admin/dashboard", employeeToken, nil)
	expectStatus(t, resp, env, http.StatusForbidden)
	resp, env = call(t, ts, http.MethodGet, "/api/v1/admin/dashboard", managerToken, nil)
	expectStatus(t, resp, env, http.StatusOK)
	var dashboard struct {
		TotalEmployees     int `json:"totalEmployees"`
		TotalLeaveRequests int `json:"totalLeaveRequests"`
	}
	decode(t, env, &dashboard)
	assert.Equal(t, 3, dashboard.TotalEmployees)
	assert.Equal(t, 1, dashboard.TotalLeaveRequests)

	resp, _ = call(t, ts, http.MethodGet, "/api/v1/reports/leaves?format=csv", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "leave-requests.csv")
	resp, env = call(t, ts, http.MethodGet, "/api/v1/reports/leaves", managerToken, nil)
	expectStatus(t, resp, env, http.StatusForbidden)
}

func TestIdempotentSubmitReplays(t *testing.T) {
	cfg := testConfig(t)
	ts := newTestServer(t, cfg)
	token := login(t, ts, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	from := nextMonday()
	body := map[string]string{
		"leaveType": "WFH",
		"from":      from.Format("2006-01-02"),
		"to":        from.AddDate(0, 0, 1).Format("2006-01-02"),
		"reason":    "Remote week",
	}
	first, firstEnv := call(t, ts, http.MethodPost, "/api/v1/leaves", token, body, "Idempotency-Key", "submit-1")
	expectStatus(t, first, firstEnv, http.StatusCreated)
	second, secondEnv := call(t, ts, http.MethodPost, "/api/v1/leaves", token, body, "Idempotency-Key", "submit-1")
	expectStatus(t, second, secondEnv, http.StatusCreated)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(firstEnv.Data), string(secondEnv.Data))

	body["reason"] = "Different"
	resp, env := call(t, ts, http.MethodPost, "/api/v1/leaves", token, body, "Idempotency-Key", "submit-1")
	expectStatus(t, resp, env, http.StatusConflict)

	resp, env = call(t, ts, http.MethodGet, "/api/v1/leaves", token, nil)
	expectStatus(t, resp, env, http.StatusOK)
	var list []leaveView
	decode(t, env, &list)
	assert.Len(t, list, 1)
}

func TestSessionLifecycle(t *testing.T) {
	cfg := testConfig(t)
	ts := newTestServer(t, cfg)

	resp, env := call(t, ts, http.MethodGet, "/api/v1/leaves", "", nil)
	expectStatus(t, resp, env, http.StatusUnauthorized)

	resp, env = call(t, ts, http.MethodGet, "/api/v1/leaves", "not-a-token", nil)
	expectStatus(t, resp, env, http.StatusUnauthorized)

	resp, env = call(t, ts, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"firstName": "New", "lastName": "Hire", "email": "new@test.local", "password": "secret123", "department": "Sales",
	})
	expectStatus(t, resp, env, http.StatusCreated)

	token := login(t, ts, "new@test.local", "secret123")
	resp, env = call(t, ts, http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, resp, env, http.StatusOK)

	resp, env = call(t, ts, http.MethodGet, "/api/v1/users", token, nil)
	expectStatus(t, resp, env, http.StatusForbidden)

	resp, env = call(t, ts, http.MethodPost, "/api/v1/auth/logout", token, nil)
	expectStatus(t, resp, env, http.StatusOK)
	resp, env = call(t, ts, http.MethodGet, "/api/v1/auth/me", token, nil)
	expectStatus(t, resp, env, http.StatusUnauthorized)

	resp, env = call(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "new@test.local", "password": "wrong"})
	expectStatus(t, resp, env, http.StatusUnauthorized)
}

func TestOperationalEndpoints(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.FrontendDir, "index.html"), []byte("<html>app</html>"), 0o644))
	ts := newTestServer(t, cfg)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), path)
	}

	resp, err := ts.Client().Get(ts.URL + "/leaves/calendar")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "app", "client routes fall back to the SPA index")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Environment = "production"
	_, err := server.New(context.Background(), cfg)
	assert.Error(t, err, "the memory store is refused in production")
}
