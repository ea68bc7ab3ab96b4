package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/twxlab/twx/internal/config"
	"github.com/twxlab/twx/internal/models"
)

// TestAPI_LoginThenListElements is an integration test: it builds the full
// router with a sqlmock-backed DB, logs in to get a JWT, then calls
// GET /elements with the token.
func TestAPI_LoginThenListElements(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// Login: GetByUsername("integration"), viewer account without a password.
	mock.ExpectQuery(`SELECT id, username, password_hash, role FROM users WHERE username = \$1`).
		WithArgs("integration").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).
			AddRow(1, "integration", "", "viewer"))

	// GET /elements: List with default limit/offset.
	now := time.Now()
	mock.ExpectQuery(`FROM elements ORDER BY id LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "asset_number", "ifc_type", "name", "notes", "status",
			"current_project_id", "current_condition", "scan_code", "created_at", "updated_at",
		}).AddRow(1, "IfcBeam-000001", "IfcBeam", "", "", models.StatusActive, 3,
			models.ConditionGood, "TWX-ASSET-IfcBeam-000001", now, now))

	cfg := config.Config{JWTSecret: "test-secret-for-integration", JWTExpireHours: 1}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	// 1) Login
	loginBody, _ := json.Marshal(map[string]string{"username": "integration"})
	loginResp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", loginResp.StatusCode)
	}
	var loginOut struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&loginOut); err != nil || loginOut.Token == "" {
		t.Fatalf("login response: %v", err)
	}

	// 2) GET /elements with Bearer token
	req, _ := http.NewRequest("GET", srv.URL+"/elements", nil)
	req.Header.Set("Authorization", "Bearer "+loginOut.Token)
	elementsResp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("elements request: %v", err)
	}
	defer elementsResp.Body.Close()
	if elementsResp.StatusCode != http.StatusOK {
		t.Fatalf("GET /elements status: got %d, want 200", elementsResp.StatusCode)
	}
	var elements []struct {
		ID          int    `json:"id"`
		AssetNumber string `json:"asset_number"`
		ScanCode    string `json:"scan_code"`
	}
	if err := json.NewDecoder(elementsResp.Body).Decode(&elements); err != nil {
		t.Fatalf("decode elements: %v", err)
	}
	if len(elements) != 1 || elements[0].AssetNumber != "IfcBeam-000001" {
		t.Errorf("unexpected elements: %+v", elements)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_ElementsRequireAuth verifies the element routes sit behind the JWT middleware.
func TestAPI_ElementsRequireAuth(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x"}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/elements")
	if err != nil {
		t.Fatalf("elements request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /elements status: got %d, want 401", resp.StatusCode)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x"}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_Ready checks that /ready pings the DB and returns 200 when DB is reachable.
func TestAPI_Ready(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x"}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready status: got %d, want 200", resp.StatusCode)
	}
}
