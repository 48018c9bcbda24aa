package tactile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"tools4ai/internal/actions"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "action.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestShellExecutor_PositionalArgs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh scripts are not available on Windows")
	}
	script := writeScript(t, "echo \"hello $1, you are $2\"\n")

	out, err := NewShellExecutor().Run(context.Background(), &actions.ShellSpec{Script: script}, []any{"Ada", 36})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(out) != "hello Ada, you are 36" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestShellExecutor_Stderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh scripts are not available on Windows")
	}
	script := writeScript(t, "echo out; echo err 1>&2; exit 3\n")

	out, err := NewShellExecutor().Run(context.Background(), &actions.ShellSpec{Script: script}, nil)
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(out, "out") || !strings.Contains(out, "--- stderr ---") || !strings.Contains(out, "err") {
		t.Errorf("expected combined output, got %q", out)
	}
}

func TestShellExecutor_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sleep is not available on Windows")
	}
	script := writeScript(t, "exec sleep 10\n")

	_, err := NewShellExecutor().Run(context.Background(), &actions.ShellSpec{Script: script, TimeoutSecs: 1}, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestShellExecutor_Truncates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh scripts are not available on Windows")
	}
	script := writeScript(t, "printf '%0100d' 0\n")

	e := &ShellExecutor{MaxOutput: 10}
	out, err := e.Run(context.Background(), &actions.ShellSpec{Script: script}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.HasSuffix(out, "...[truncated]") || !strings.HasPrefix(out, "0000000000\n") {
		t.Errorf("unexpected truncated output: %q", out)
	}
}

func TestShellExecutor_RequiresScript(t *testing.T) {
	_, err := NewShellExecutor().Run(context.Background(), &actions.ShellSpec{}, nil)
	if !errors.Is(err, actions.ErrInvalidSpec) {
		t.Errorf("expected ErrInvalidSpec, got %v", err)
	}
}

func TestCommand_Interpreter(t *testing.T) {
	name, argv := command(&actions.ShellSpec{Script: "run.py", Interpreter: "python3"}, []any{"a", 2.5, true})
	if name != "python3" {
		t.Errorf("name = %q, want python3", name)
	}
	want := []string{"run.py", "a", "2.5", "true"}
	if strings.Join(argv, " ") != strings.Join(want, " ") {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func TestHTTPExecutor_GetUsesQuery(t *testing.T) {
	var gotPath, gotQuery, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("X-Api-Key")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	spec := &actions.HTTPSpec{Method: "get", URL: srv.URL + "/pet/{petId}", Headers: map[string]string{"X-Api-Key": "k"}}
	params := []actions.Param{actions.Integer("petId"), actions.String("status")}

	out, err := NewHTTPExecutor().Call(context.Background(), spec, params, []any{7, "sold"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("body = %q", out)
	}
	if gotPath != "/pet/7" {
		t.Errorf("path = %q, want /pet/7", gotPath)
	}
	if gotQuery != "status=sold" {
		t.Errorf("query = %q, want status=sold", gotQuery)
	}
	if gotHeader != "k" {
		t.Errorf("header = %q, want k", gotHeader)
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"dal", "dal"},
		{3, "3"},
		{2.5, "2.5"},
		{true, "true"},
		{map[string]any{"a": 1}, `{"a":1}`},
		{[]any{"x", "y"}, `["x","y"]`},
		{struct {
			Dish string `json:"dish"`
		}{"naan"}, `{"dish":"naan"}`},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPExecutor_GetEncodesNonScalarQueryAsJSON(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
	}))
	defer srv.Close()

	spec := &actions.HTTPSpec{Method: "GET", URL: srv.URL + "/search"}
	params := []actions.Param{actions.Array("tags"), actions.Complex("filter", map[string]any{})}

	_, err := NewHTTPExecutor().Call(context.Background(), spec, params,
		[]any{[]any{"x", "y"}, map[string]any{"a": 1}})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got.Get("tags") != `["x","y"]` {
		t.Errorf("tags = %q", got.Get("tags"))
	}
	if got.Get("filter") != `{"a":1}` {
		t.Errorf("filter = %q", got.Get("filter"))
	}
}

func TestHTTPExecutor_PostUsesJSONBody(t *testing.T) {
	var body map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	spec := &actions.HTTPSpec{Method: http.MethodPost, URL: srv.URL + "/orders"}
	params := []actions.Param{actions.String("dish"), actions.Integer("qty")}

	if _, err := NewHTTPExecutor().Call(context.Background(), spec, params, []any{"dal", 2}); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("content type = %q", contentType)
	}
	if body["dish"] != "dal" || body["qty"] != 2.0 {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHTTPExecutor_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	out, err := NewHTTPExecutor().Call(context.Background(), &actions.HTTPSpec{URL: srv.URL}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("expected status error, got %v", err)
	}
	if !strings.Contains(out, "nope") {
		t.Errorf("expected body in output, got %q", out)
	}
}
