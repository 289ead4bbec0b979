package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skillhub/internal/logger"
	"skillhub/internal/sandbox"
)

func TestRunCheckSeedDefault(t *testing.T) {
	var out bytes.Buffer
	if err := runCheckSeed(nil, &out); err != nil {
		t.Fatalf("runCheckSeed: %v", err)
	}
	want := "users: 3\ncourses: 1\ncommunities: 1\n"
	if out.String() != want {
		t.Fatalf("unexpected summary:\n%s", out.String())
	}
}

func TestRunCheckSeedRejectsUnknownMember(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seed := "users:\n  - fullname: A\n    email: a@x.dev\n    password: pw\ncommunities:\n  - name: C\n    admin: ghost@x.dev\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	err := runCheckSeed([]string{"--seed", path}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "ghost@x.dev") {
		t.Fatalf("expected unknown user error, got %v", err)
	}
}

func TestNewHTTPServerServesStatus(t *testing.T) {
	cfg := sandbox.DefaultConfig()
	cfg.BcryptCost = 4
	server, err := newHTTPServer(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("newHTTPServer: %v", err)
	}
	if server.Addr != cfg.Addr {
		t.Fatalf("addr = %q", server.Addr)
	}

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
