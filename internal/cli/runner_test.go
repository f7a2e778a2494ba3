package cli

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Makepad-fr/tada/internal/api/apitest"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

type fixture struct {
	srv     *apitest.Server
	cfg     *config.Config
	storage string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv(session.EnvVar, "")
	srv := apitest.New(t)
	srv.AddUser("ann", "secret")
	dir := t.TempDir()
	return &fixture{
		srv:     srv,
		storage: filepath.Join(dir, "storage.json"),
		cfg: &config.Config{
			APIURL:      srv.URL,
			StorageFile: filepath.Join(dir, "storage.json"),
			Theme:       "mono",
			LogLevel:    "debug",
			LogFile:     filepath.Join(dir, "tada.log"),
		},
	}
}

// loginAs stores a valid token for user directly.
func (f *fixture) loginAs(t *testing.T, user string) {
	t.Helper()
	st, _ := jsonstore.Open(f.storage)
	if err := st.Set(session.Key, f.srv.IssueToken(user)); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, Options{
		Config: f.cfg,
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errOut,
	})
	return code, out.String(), errOut.String()
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	code, out, _ := f.run(t, "", "help")
	if code != 0 || !strings.Contains(out, "Subcommands:") {
		t.Errorf("help: code=%d out=%q", code, out)
	}
}

func TestUsageErrors(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "ann")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown", []string{"frobnicate"}, "unknown subcommand"},
		{"add without body", []string{"add"}, "usage: tada add"},
		{"done without index", []string{"done"}, "usage: tada done"},
		{"rm not a number", []string{"rm", "x"}, "not a number"},
		{"auth without verb", []string{"auth"}, "usage: tada auth"},
		{"index out of range", []string{"done", "3"}, "index out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := f.run(t, "", tt.args...)
			if code != 2 {
				t.Errorf("code = %d, want 2", code)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want %q", errOut, tt.want)
			}
		})
	}
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t)

	code, out, _ := f.run(t, "", "auth", "status")
	if code != 0 || !strings.Contains(out, "not logged in") {
		t.Fatalf("status before login: %d %q", code, out)
	}

	code, _, errOut := f.run(t, "wrong\n", "auth", "login", "ann")
	if code != 1 || !strings.Contains(errOut, "401") {
		t.Fatalf("bad login: %d %q", code, errOut)
	}

	code, out, errOut = f.run(t, "ann\nsecret\n", "auth", "login")
	if code != 0 {
		t.Fatalf("login: %d %q", code, errOut)
	}
	if !strings.Contains(out, "logged in") {
		t.Errorf("login output = %q", out)
	}
	st, _ := jsonstore.Open(f.storage)
	if tok, ok, _ := st.Get(session.Key); !ok || tok == "" {
		t.Fatal("token not stored")
	}

	code, out, _ = f.run(t, "", "auth", "whoami")
	if code != 0 || !strings.Contains(out, `"sub": "ann"`) {
		t.Errorf("whoami: %d %q", code, out)
	}

	code, out, _ = f.run(t, "", "auth", "status")
	if code != 0 || !strings.Contains(out, "source: storage") {
		t.Errorf("status: %d %q", code, out)
	}

	code, out, _ = f.run(t, "", "auth", "logout")
	if code != 0 || !strings.Contains(out, "logged out") {
		t.Errorf("logout: %d %q", code, out)
	}
	if _, ok, _ := st.Get(session.Key); ok {
		t.Error("token still stored after logout")
	}

	code, _, errOut = f.run(t, "", "auth", "whoami")
	if code != 2 || !strings.Contains(errOut, "not logged in") {
		t.Errorf("whoami after logout: %d %q", code, errOut)
	}
}

func TestLogoutWithEnvToken(t *testing.T) {
	f := newFixture(t)
	t.Setenv(session.EnvVar, "opaque")
	code, out, _ := f.run(t, "", "auth", "logout")
	if code != 0 || !strings.Contains(out, session.EnvVar) {
		t.Errorf("logout: %d %q", code, out)
	}
	code, out, _ = f.run(t, "", "auth", "whoami")
	if code != 0 || !strings.Contains(out, "Opaque token") {
		t.Errorf("whoami: %d %q", code, out)
	}
}

func TestLoginWithEnvToken(t *testing.T) {
	f := newFixture(t)
	t.Setenv(session.EnvVar, "opaque")
	code, out, errOut := f.run(t, "secret\n", "auth", "login", "ann")
	if code != 0 {
		t.Fatalf("login: %d %q", code, errOut)
	}
	if !strings.Contains(out, "takes precedence") {
		t.Errorf("no env override hint in %q", out)
	}
	st, _ := jsonstore.Open(f.storage)
	if tok, ok, _ := st.Get(session.Key); !ok || tok == "" {
		t.Error("token not stored")
	}
}

func TestTodoCommands(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "ann")

	if code, _, errOut := f.run(t, "", "add", "buy", "milk"); code != 0 {
		t.Fatalf("add: %d %q", code, errOut)
	}
	if code, _, errOut := f.run(t, "", "add", "walk dog"); code != 0 {
		t.Fatalf("add: %d %q", code, errOut)
	}
	items := f.srv.Todos("ann")
	if len(items) != 2 || items[0].Body != "buy milk" || items[0].Complete {
		t.Fatalf("backend = %+v", items)
	}

	if code, _, errOut := f.run(t, "", "done", "2"); code != 0 {
		t.Fatalf("done: %d %q", code, errOut)
	}
	items = f.srv.Todos("ann")
	if items[0].Complete || !items[1].Complete {
		t.Fatalf("after done: %+v", items)
	}

	code, out, _ := f.run(t, "", "ls")
	if code != 0 {
		t.Fatalf("ls: %d", code)
	}
	for _, want := range []string{" 1. [ ] buy milk", " 2. [x] walk dog", "Total 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls output missing %q:\n%s", want, out)
		}
	}

	f.cfg.Group = true
	_, out, _ = f.run(t, "", "ls")
	pending := strings.Index(out, "Pending")
	done := strings.Index(out, "Done")
	walk := strings.Index(out, "walk dog")
	if pending < 0 || done < 0 || walk < done {
		t.Errorf("grouped ls:\n%s", out)
	}
	f.cfg.Group = false

	if code, _, errOut := f.run(t, "", "rm", "1"); code != 0 {
		t.Fatalf("rm: %d %q", code, errOut)
	}
	items = f.srv.Todos("ann")
	if len(items) != 1 || items[0].Body != "walk dog" {
		t.Fatalf("after rm: %+v", items)
	}
}

func TestRequestFailures(t *testing.T) {
	f := newFixture(t)

	code, _, errOut := f.run(t, "", "ls")
	if code != 1 || !strings.Contains(errOut, "tada auth login") {
		t.Errorf("ls without token: %d %q", code, errOut)
	}

	f.loginAs(t, "ann")
	f.srv.Fail(http.MethodPost, "/todos", http.StatusInternalServerError)
	code, _, errOut = f.run(t, "", "add", "x")
	if code != 1 || !strings.Contains(errOut, "500") {
		t.Errorf("add against failing server: %d %q", code, errOut)
	}
}

func TestBadConfig(t *testing.T) {
	f := newFixture(t)
	f.cfg.APIURL = "ftp://nope"
	code, _, errOut := f.run(t, "", "ls")
	if code != 1 || !strings.Contains(errOut, "unsupported scheme") {
		t.Errorf("code=%d stderr=%q", code, errOut)
	}

	if code := Run(context.Background(), []string{"ls"}, Options{Stderr: &bytes.Buffer{}}); code != 1 {
		t.Errorf("nil config: code = %d", code)
	}
}
