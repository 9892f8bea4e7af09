package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"license-service/internal/handler"
	"license-service/pkg/httputil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "licensectl version "+version+"\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestVerifyCmd(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != handler.VerifyPath {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		httputil.JSON(w, http.StatusOK, handler.VerifyResponse{Valid: true, Message: "License key is valid"})
	}))
	defer server.Close()

	out, err := runCLI(t, "verify", "--api-url", server.URL, "--key", "ABCD-EFGH-IJKL-MNOP", "--device", "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "valid: License key is valid\n" {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.Contains(gotQuery, "activate") {
		t.Errorf("verify must not activate, got query %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "deviceId=dev-1") {
		t.Errorf("want deviceId in query, got %q", gotQuery)
	}
}

func TestActivateCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("activate") != "true" {
			t.Errorf("want activate=true, got %q", r.URL.RawQuery)
		}
		httputil.JSON(w, http.StatusOK, handler.VerifyResponse{
			Valid:   false,
			Message: "License key is already activated on another device",
		})
	}))
	defer server.Close()

	out, err := runCLI(t, "activate", "--api-url", server.URL, "--key", "ABCDEFGHIJKLMNOP")
	if !errors.Is(err, errLicenseRejected) {
		t.Errorf("want errLicenseRejected, got %v", err)
	}
	if !strings.Contains(out, "invalid: License key is already activated on another device") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestVerifyCmd_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusBadRequest, "Invalid license key length (should be 16 characters without dashes)", "")
	}))
	defer server.Close()

	_, err := runCLI(t, "verify", "--api-url", server.URL, "--key", "ABC")
	if err == nil || !strings.Contains(err.Error(), "Invalid license key length") {
		t.Errorf("want server message in error, got %v", err)
	}
}

func TestVerifyCmd_RequiresAPIURL(t *testing.T) {
	t.Setenv("LICENSECTL_API_URL", "")

	if _, err := runCLI(t, "verify", "--key", "ABCDEFGHIJKLMNOP"); err == nil {
		t.Error("want error without api url")
	}
}

func TestKeysCheckCmd(t *testing.T) {
	file := filepath.Join(t.TempDir(), "keys.txt")
	if err := os.WriteFile(file, []byte("ABCD-EFGH-IJKL-MNOP\n  QRSTUVWXYZ123456  \n"), 0o600); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}

	out, err := runCLI(t, "keys", "check", "--file", file, "ABCDEFGHIJKLMNOP", "QRST-UVWX-YZ12-3456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "valid") != 2 {
		t.Errorf("want both keys valid, got %q", out)
	}

	out, err = runCLI(t, "keys", "check", "--file", file, "ABCD", "ZZZZZZZZZZZZZZZZ")
	if !errors.Is(err, errKeysRejected) {
		t.Errorf("want errKeysRejected, got %v", err)
	}
	if !strings.Contains(out, "malformed") || !strings.Contains(out, "unknown") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestKeysCheckCmd_MissingFile(t *testing.T) {
	_, err := runCLI(t, "keys", "check", "--file", filepath.Join(t.TempDir(), "missing.txt"), "ABCDEFGHIJKLMNOP")
	if err == nil {
		t.Error("want error for missing key file")
	}
}

func TestMigrateCmd_SQLite(t *testing.T) {
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "license.db"))

	out, err := runCLI(t, "migrate", "--driver", "sqlite", "up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Applied 1 migration(s)") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = runCLI(t, "migrate", "--driver", "sqlite", "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "001") || !strings.Contains(out, "applied") {
		t.Errorf("unexpected output: %q", out)
	}
}
