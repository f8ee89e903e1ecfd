package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestApproveRetryWithIdempotencyKeyReplaysOnce(t *testing.T) {
	ts, cfg := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	employeeEmail := fmt.Sprintf("idem-%d@example.com", time.Now().UnixNano())
	employeeID := createEmployee(t, client, ts.URL, adminToken, employeeEmail, 5, 5)
	employeeToken := login(t, client, ts.URL, employeeEmail, "Password123!")

	requestID := fileLeave(t, client, ts.URL, employeeToken, "VL", "2024-08-05", "2024-08-06")
	approveURL := ts.URL + "/api/v1/leave/requests/" + requestID + "/approve"
	key := fmt.Sprintf("approve-%d", time.Now().UnixNano())

	env, status := postJSONWithKey(t, client, approveURL, adminToken, key, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %+v", status, env.Error)
	}
	assertBalances(t, client, ts.URL, employeeToken, 3, 5)

	// Retrying with the same key replays the stored response instead of
	// surfacing already_processed, and nothing is deducted again.
	env, status = postJSONWithKey(t, client, approveURL, adminToken, key, nil)
	if status != http.StatusOK {
		t.Fatalf("expected replayed 200, got %d: %+v", status, env.Error)
	}
	var replayed map[string]any
	if err := json.Unmarshal(env.Data, &replayed); err != nil {
		t.Fatalf("failed to decode replay: %v", err)
	}
	if replayed["status"] != "approved" {
		t.Fatalf("expected replayed approved status, got %v", replayed["status"])
	}
	assertBalances(t, client, ts.URL, employeeToken, 3, 5)

	// Without a key the retry still falls back to the status conflict.
	env = postJSONStatus(t, client, approveURL, adminToken, nil, http.StatusConflict)
	if env.Error == nil || env.Error.Code != "already_processed" {
		t.Fatalf("expected already_processed, got %+v", env.Error)
	}

	// Reusing the key for a different payload is a conflict, not a replay.
	adjustURL := ts.URL + "/api/v1/leave/balances/adjust"
	adjustKey := fmt.Sprintf("adjust-%d", time.Now().UnixNano())
	env, status = postJSONWithKey(t, client, adjustURL, adminToken, adjustKey, map[string]any{
		"employeeId": employeeID,
		"leaveType":  "SL",
		"amount":     1,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %+v", status, env.Error)
	}
	assertBalances(t, client, ts.URL, employeeToken, 3, 6)

	env, status = postJSONWithKey(t, client, adjustURL, adminToken, adjustKey, map[string]any{
		"employeeId": employeeID,
		"leaveType":  "SL",
		"amount":     2,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %+v", status, env.Error)
	}
	if env.Error == nil || env.Error.Code != "idempotency_conflict" {
		t.Fatalf("expected idempotency_conflict, got %+v", env.Error)
	}
	assertBalances(t, client, ts.URL, employeeToken, 3, 6)
}

func TestDeductionRetryWithIdempotencyKeyChargesOnce(t *testing.T) {
	ts, cfg := startApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	employeeEmail := fmt.Sprintf("idem-deduct-%d@example.com", time.Now().UnixNano())
	employeeID := createEmployee(t, client, ts.URL, adminToken, employeeEmail, 5, 5)
	employeeToken := login(t, client, ts.URL, employeeEmail, "Password123!")

	deductURL := ts.URL + "/api/v1/deductions/"
	key := fmt.Sprintf("deduct-%d", time.Now().UnixNano())
	payload := map[string]any{"employeeId": employeeID, "minutes": 60}

	env, status := postJSONWithKey(t, client, deductURL, adminToken, key, payload)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %+v", status, env.Error)
	}
	assertBalances(t, client, ts.URL, employeeToken, 4.875, 5)

	env, status = postJSONWithKey(t, client, deductURL, adminToken, key, payload)
	if status != http.StatusOK {
		t.Fatalf("expected replayed 200, got %d: %+v", status, env.Error)
	}
	assertBalances(t, client, ts.URL, employeeToken, 4.875, 5)
}

func postJSONWithKey(t *testing.T, client *http.Client, url, token, idempotencyKey string, body any) (envelope, int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", idempotencyKey)
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
