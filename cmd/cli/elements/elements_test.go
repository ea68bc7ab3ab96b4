package elements

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/twxlab/twx/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

// writeToken points HOME at a temp dir holding a stored token.
func writeToken(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".twx"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".twx", "token"), []byte("test-token"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", home)
}

func TestListElements_TableOutput(t *testing.T) {
	elements := []models.Element{
		{ID: 1, AssetNumber: "IfcBeam-000001", IfcType: "IfcBeam", Status: models.StatusActive,
			CurrentCondition: models.ConditionGood, CurrentProjectID: 3},
		{ID: 2, AssetNumber: "IfcSlab-000001", IfcType: "IfcSlab", Status: models.StatusInTransit,
			CurrentCondition: models.ConditionFair, CurrentProjectID: 4},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/elements" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		_ = json.NewEncoder(w).Encode(elements)
	}))
	defer srv.Close()

	writeToken(t)
	t.Setenv("TWX_API_URL", srv.URL)

	cmd := listElementsCmd()
	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "IfcBeam-000001") || !strings.Contains(out, "IfcSlab-000001") {
		t.Fatalf("expected asset numbers in output, got: %s", out)
	}
	if !strings.Contains(out, "in_transit") {
		t.Fatalf("expected status in output, got: %s", out)
	}
}

func TestListElements_NoToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := listElementsCmd()
	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "login") {
		t.Fatalf("expected login prompt, got: %s", out)
	}
}
