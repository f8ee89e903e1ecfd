package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"timekeep/internal/app/server"
	"timekeep/internal/platform/config"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *apiError       `json:"error"`
	RequestID string          `json:"requestId"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		Addr:               ":0",
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		Environment:        "test",
		FrontendDir:        "frontend/dist",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		SeedAdminName:      "Test Admin",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func startApp(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts, cfg
}

func TestTimekeepingAndLeaveJourney(t *testing.T) {
	ts, cfg := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	employeeEmail := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeeID := createEmployee(t, client, ts.URL, adminToken, employeeEmail, 5, 5)
	employeeToken := login(t, client, ts.URL, employeeEmail, "Password123!")

	// Attendance: one open entry per day, clock-out requires an open entry.
	postJSONStatus(t, client, ts.URL+"/api/v1/attendance/clock-in", employeeToken, nil, http.StatusCreated)
	env := postJSONStatus(t, client, ts.URL+"/api/v1/attendance/clock-in", employeeToken, nil, http.StatusConflict)
	if env.Error == nil || env.Error.Code != "already_clocked_in" {
		t.Fatalf("expected already_clocked_in, got %+v", env.Error)
	}
	postJSONStatus(t, client, ts.URL+"/api/v1/attendance/clock-out", employeeToken, nil, http.StatusOK)
	env = postJSONStatus(t, client, ts.URL+"/api/v1/attendance/clock-out", employeeToken, nil, http.StatusConflict)
	if env.Error == nil || env.Error.Code != "no_open_entry" {
		t.Fatalf("expected no_open_entry, got %+v", env.Error)
	}

	// File a 3-day vacation request and reject an overlapping second filing.
	requestID := fileLeave(t, client, ts.URL, employeeToken, "VL", "2024-06-10", "2024-06-12")
	env = postJSONStatus(t, client, ts.URL+"/api/v1/leave/requests", employeeToken, map[string]any{
		"leaveType": "SL",
		"startDate": "2024-06-12",
		"endDate":   "2024-06-14",
	}, http.StatusConflict)
	if env.Error == nil || env.Error.Code != "overlap" {
		t.Fatalf("expected overlap, got %+v", env.Error)
	}

	// Approve deducts 3 days from the vacation balance.
	env = postJSON(t, client, ts.URL+"/api/v1/leave/requests/"+requestID+"/approve", adminToken, nil)
	var approved map[string]any
	if err := json.Unmarshal(env.Data, &approved); err != nil {
		t.Fatalf("failed to decode approval: %v", err)
	}
	if approved["status"] != "approved" {
		t.Fatalf("expected approved status, got %v", approved["status"])
	}
	assertBalances(t, client, ts.URL, employeeToken, 2, 5)

	// A second approval must not deduct again.
	env = postJSONStatus(t, client, ts.URL+"/api/v1/leave/requests/"+requestID+"/approve", adminToken, nil, http.StatusConflict)
	if env.Error == nil || env.Error.Code != "already_processed" {
		t.Fatalf("expected already_processed, got %+v", env.Error)
	}
	assertBalances(t, client, ts.URL, employeeToken, 2, 5)

	// Manual adjustment, and rejection of one that would go negative.
	postJSON(t, client, ts.URL+"/api/v1/leave/balances/adjust", adminToken, map[string]any{
		"employeeId": employeeID,
		"leaveType":  "SL",
		"amount":     2,
		"reason":     "Annual accrual",
	})
	env = postJSONStatus(t, client, ts.URL+"/api/v1/leave/balances/adjust", adminToken, map[string]any{
		"employeeId": employeeID,
		"leaveType":  "VL",
		"amount":     -10,
	}, http.StatusUnprocessableEntity)
	if env.Error == nil || env.Error.Code != "negative_balance" {
		t.Fatalf("expected negative_balance, got %+v", env.Error)
	}
	assertBalances(t, client, ts.URL, employeeToken, 2, 7)

	// Tardiness: 125 minutes late charges 0.26 days against vacation leave.
	postJSONStatus(t, client, ts.URL+"/api/v1/deductions/", adminToken, map[string]any{
		"employeeId": employeeID,
		"minutes":    125,
	}, http.StatusCreated)
	assertBalances(t, client, ts.URL, employeeToken, 1.74, 7)

	// The employee was notified about the decisions and the deduction.
	env = getJSON(t, client, ts.URL+"/api/v1/notifications/", employeeToken)
	var items []map[string]any
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}
	if len(items) < 2 {
		t.Fatalf("expected at least 2 notifications, got %d", len(items))
	}

	// Every balance mutation went through the ledger, so reconciliation holds.
	env = getJSON(t, client, ts.URL+"/api/v1/reports/reconciliation", adminToken)
	var recon struct {
		Drifted int `json:"drifted"`
	}
	if err := json.Unmarshal(env.Data, &recon); err != nil {
		t.Fatalf("failed to decode reconciliation: %v", err)
	}
	if recon.Drifted != 0 {
		t.Fatalf("expected zero drifted reconciliation rows, got %d", recon.Drifted)
	}
}

func TestLeaveRejectionLeavesBalancesUntouched(t *testing.T) {
	ts, cfg := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	employeeEmail := fmt.Sprintf("reject-%d@example.com", time.Now().UnixNano())
	createEmployee(t, client, ts.URL, adminToken, employeeEmail, 5, 5)
	employeeToken := login(t, client, ts.URL, employeeEmail, "Password123!")

	requestID := fileLeave(t, client, ts.URL, employeeToken, "SL", "2024-07-01", "2024-07-02")
	env := postJSON(t, client, ts.URL+"/api/v1/leave/requests/"+requestID+"/reject", adminToken, nil)
	var rejected map[string]any
	if err := json.Unmarshal(env.Data, &rejected); err != nil {
		t.Fatalf("failed to decode rejection: %v", err)
	}
	if rejected["status"] != "rejected" {
		t.Fatalf("expected rejected status, got %v", rejected["status"])
	}
	assertBalances(t, client, ts.URL, employeeToken, 5, 5)

	// A rejected request cannot be approved afterwards.
	env = postJSONStatus(t, client, ts.URL+"/api/v1/leave/requests/"+requestID+"/approve", adminToken, nil, http.StatusConflict)
	if env.Error == nil || env.Error.Code != "already_processed" {
		t.Fatalf("expected already_processed, got %+v", env.Error)
	}

	// A rejected range no longer blocks a new filing.
	fileLeave(t, client, ts.URL, employeeToken, "SL", "2024-07-01", "2024-07-02")
}

func TestStatementPDFAndAccessControl(t *testing.T) {
	ts, cfg := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	employeeEmail := fmt.Sprintf("statement-%d@example.com", time.Now().UnixNano())
	createEmployee(t, client, ts.URL, adminToken, employeeEmail, 10, 5)
	employeeToken := login(t, client, ts.URL, employeeEmail, "Password123!")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/reports/statement", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+employeeToken)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read pdf: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Fatal("expected PDF payload")
	}

	// Admin-only surfaces reject employees, protected ones reject anonymous.
	getJSONStatus(t, client, ts.URL+"/api/v1/reports/dashboard", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/audit", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/profiles/me", "", http.StatusUnauthorized)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	env := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, email string, vl, sl float64) string {
	t.Helper()
	env := postJSON(t, client, baseURL+"/api/v1/profiles/", token, map[string]any{
		"email":     email,
		"password":  "Password123!",
		"fullName":  "Journey Tester",
		"role":      "employee",
		"openingVl": vl,
		"openingSl": sl,
	})
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode employee response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected employee id")
	}
	return id
}

func fileLeave(t *testing.T, client *http.Client, baseURL, token, leaveType, startDate, endDate string) string {
	t.Helper()
	env := postJSON(t, client, baseURL+"/api/v1/leave/requests", token, map[string]any{
		"leaveType": leaveType,
		"startDate": startDate,
		"endDate":   endDate,
		"reason":    "Family trip",
	})
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode leave response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected leave request id")
	}
	return id
}

func assertBalances(t *testing.T, client *http.Client, baseURL, token string, wantVL, wantSL float64) {
	t.Helper()
	env := getJSON(t, client, baseURL+"/api/v1/profiles/me", token)
	var me struct {
		VLBalance float64 `json:"vlBalance"`
		SLBalance float64 `json:"slBalance"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if math.Abs(me.VLBalance-wantVL) > 1e-9 {
		t.Fatalf("expected VL balance %v, got %v", wantVL, me.VLBalance)
	}
	if math.Abs(me.SLBalance-wantSL) > 1e-9 {
		t.Fatalf("expected SL balance %v, got %v", wantSL, me.SLBalance)
	}
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodPost, url, token, body)
	if status >= 400 {
		t.Fatalf("unexpected status %d: %+v", status, env.Error)
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodPost, url, token, body)
	if status != want {
		t.Fatalf("expected status %d, got %d: %+v", want, status, env.Error)
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodGet, url, token, nil)
	if status >= 400 {
		t.Fatalf("unexpected status %d: %+v", status, env.Error)
	}
	return env
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodGet, url, token, nil)
	if status != want {
		t.Fatalf("expected status %d, got %d: %+v", want, status, env.Error)
	}
	return env
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (envelope, int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env, resp.StatusCode
}
