package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/osakit/osarun"
	"go.uber.org/zap"
)

type stubRunner struct {
	res        osarun.Result
	err        error
	lastScript string
	lastFile   string
}

func (s *stubRunner) Run(ctx context.Context, script string) (osarun.Result, error) {
	s.lastScript = script
	return s.res, s.err
}

func (s *stubRunner) RunFile(ctx context.Context, path string) (osarun.Result, error) {
	s.lastFile = path
	return s.res, s.err
}

func newTestAPI(t *testing.T, runner osarun.Runner) (*API, string) {
	t.Helper()
	dir := t.TempDir()
	return NewAPI(`localhost`, `0`, dir, "", tls.NoClientCert, runner, zap.NewNop()), dir
}

func doRequest(a *API, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	a.httpSrv.Handler.ServeHTTP(w, req)
	return w
}

func TestHandleStatus(t *testing.T) {
	a, _ := newTestAPI(t, &stubRunner{})
	w := doRequest(a, http.MethodGet, `/`, "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestHandleRun(t *testing.T) {
	stub := &stubRunner{res: osarun.Result{Stdout: "hello"}}
	a, _ := newTestAPI(t, stub)
	w := doRequest(a, http.MethodPost, `/run`, `{"script":"return \"hello\""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var res osarun.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("error decoding response: %v", err)
	}
	if res.Stdout != "hello" || res.ExitCode != 0 {
		t.Errorf("result = %+v, want stdout hello, exit 0", res)
	}
	if stub.lastScript != `return "hello"` {
		t.Errorf("script passed = %q", stub.lastScript)
	}
}

func TestHandleRun_NonZeroExit(t *testing.T) {
	stub := &stubRunner{res: osarun.Result{Stderr: "boom", ExitCode: 1}}
	a, _ := newTestAPI(t, stub)
	w := doRequest(a, http.MethodPost, `/run`, `{"script":"error \"boom\""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var res osarun.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 1 || res.Stderr != "boom" {
		t.Errorf("result = %+v, want exit 1, stderr boom", res)
	}
}

func TestHandleRun_EmptyScript(t *testing.T) {
	a, _ := newTestAPI(t, &stubRunner{})
	w := doRequest(a, http.MethodPost, `/run`, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRun_MethodNotAllowed(t *testing.T) {
	a, _ := newTestAPI(t, &stubRunner{})
	w := doRequest(a, http.MethodGet, `/run`, "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleRun_Timeout(t *testing.T) {
	stub := &stubRunner{err: &osarun.TimeoutError{Timeout: 30 * time.Second}}
	a, _ := newTestAPI(t, stub)
	w := doRequest(a, http.MethodPost, `/run`, `{"script":"delay 600"}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}

func TestHandleUploadAndList(t *testing.T) {
	a, dir := newTestAPI(t, &stubRunner{})
	w := doRequest(a, http.MethodPost, `/scripts/greet.applescript`, `return "hi"`)
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	b, err := os.ReadFile(filepath.Join(dir, `greet.applescript`))
	if err != nil {
		t.Fatalf("uploaded script not written: %v", err)
	}
	if string(b) != `return "hi"` {
		t.Errorf("script contents = %q", b)
	}

	w = doRequest(a, http.MethodGet, `/scripts`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	var names []string
	if err := json.Unmarshal(w.Body.Bytes(), &names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != `greet.applescript` {
		t.Errorf("names = %q, want [greet.applescript]", names)
	}
}

func TestHandleRunScript(t *testing.T) {
	stub := &stubRunner{res: osarun.Result{Stdout: "hi"}}
	a, dir := newTestAPI(t, stub)
	if err := os.WriteFile(filepath.Join(dir, `greet.applescript`), []byte(`return "hi"`), 0o644); err != nil {
		t.Fatal(err)
	}
	w := doRequest(a, http.MethodPost, `/scripts/greet.applescript/run`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if stub.lastFile != filepath.Join(dir, `greet.applescript`) {
		t.Errorf("file passed = %q", stub.lastFile)
	}
}

func TestHandleRunScript_NotFound(t *testing.T) {
	a, _ := newTestAPI(t, &stubRunner{})
	w := doRequest(a, http.MethodPost, `/scripts/missing.applescript/run`, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleUpload_UnsupportedExtension(t *testing.T) {
	a, dir := newTestAPI(t, &stubRunner{})
	w := doRequest(a, http.MethodPost, `/scripts/notes.txt`, `not a script`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if osarun.FileExists(filepath.Join(dir, `notes.txt`)) {
		t.Error("rejected upload was written to the scripts directory")
	}
}

func TestHandleUpload_PathEscape(t *testing.T) {
	a, _ := newTestAPI(t, &stubRunner{})
	w := doRequest(a, http.MethodPost, `/scripts/../escape.applescript`, `boom`)
	// mux normalizes the path before routing, so the request either
	// misses the scripts route entirely or the containment check rejects it.
	if w.Code == http.StatusOK {
		t.Errorf("status = %d, want rejection", w.Code)
	}
}
