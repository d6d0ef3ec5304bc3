package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/idilsaglam/todo/internal/apitest"
	"github.com/idilsaglam/todo/internal/model"
)

// isolate keeps config, .env and log lookups inside temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	for _, k := range []string{"TODO_API_URL", "TODO_THEME", "TODO_LOG_FILE", "TODO_LOG_LEVEL", "TODO_METRICS_ADDR", "TODO_TIMEOUT", "TODO_CONFIG"} {
		t.Setenv(k, "")
	}
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.String(), errBuf.String(), e
}

func TestListPrintsServerItems(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"}, model.Item{ID: 2, Content: "Walk dog", Completed: true})

	out, _, err := runCLI(t, "--api", srv.URL(), "--theme", "mono", "ls")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	for _, want := range []string{"#1 [ ] Buy milk", "#2 [x] Walk dog", "Total 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestListGroup(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"}, model.Item{ID: 2, Content: "Walk dog", Completed: true})

	out, _, err := runCLI(t, "--api", srv.URL(), "--theme", "mono", "ls", "--group")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	pend, done := strings.Index(out, "Pending"), strings.Index(out, "Done")
	if pend < 0 || done < pend {
		t.Fatalf("expected Pending before Done:\n%s", out)
	}
	if i := strings.Index(out, "Walk dog"); i < done {
		t.Fatalf("completed item should be under Done:\n%s", out)
	}
}

func TestListJSON(t *testing.T) {
	isolate(t)
	seed := []model.Item{{ID: 1, Content: "Buy milk"}, {ID: 2, Content: "Walk dog", Completed: true}}
	srv := apitest.New(t, seed...)

	out, _, err := runCLI(t, "--api", srv.URL(), "ls", "--json")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	var got []model.Item
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0] != seed[0] || got[1] != seed[1] {
		t.Fatalf("unexpected items %#v", got)
	}
}

func TestListServerErrorStillPrintsAndFails(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"})
	srv.FailList(http.StatusInternalServerError)

	out, _, err := runCLI(t, "--api", srv.URL(), "--theme", "mono", "ls")
	if err == nil {
		t.Fatalf("expected error on 500")
	}
	if !strings.Contains(out, "Buy milk") {
		t.Fatalf("decoded items should still be printed:\n%s", out)
	}
}

func TestAddCreatesAndPrints(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"})

	out, _, err := runCLI(t, "--api", srv.URL(), "--theme", "mono", "add", "Walk", "dog")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "#2 [ ] Walk dog") {
		t.Fatalf("expected new item in output:\n%s", out)
	}
	if srv.Count(http.MethodPost, "todo_list/") != 1 {
		t.Fatalf("expected one POST, got %#v", srv.Requests())
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"})

	_, _, err := runCLI(t, "--api", srv.URL(), "add", "buy", "MILK")
	if err == nil || err.Error() != "Entry already exists." {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if srv.Count(http.MethodPost, "") != 0 {
		t.Fatalf("duplicate must not be posted")
	}
}

func TestAddRejectsBlank(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)

	_, _, err := runCLI(t, "--api", srv.URL(), "add", "  ")
	if err == nil || err.Error() != "Invalid input!" {
		t.Fatalf("expected blank error, got %v", err)
	}
	if srv.Count(http.MethodPost, "") != 0 {
		t.Fatalf("blank must not be posted")
	}
}

func TestDoneSendsNegation(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"}, model.Item{ID: 2, Content: "Walk dog", Completed: true})

	out, _, err := runCLI(t, "--api", srv.URL(), "--theme", "mono", "done", "2")
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	var patch *apitest.Request
	for _, r := range srv.Requests() {
		if r.Method == http.MethodPatch {
			r := r
			patch = &r
		}
	}
	if patch == nil || patch.Path != "/api/update_item/2/" || patch.Body["completed"] != "False" {
		t.Fatalf("unexpected PATCH %#v", patch)
	}
	if !strings.Contains(out, "reopened") || !strings.Contains(out, "#2 [ ] Walk dog") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDoneUnknownID(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"})

	_, stderr, err := runCLI(t, "--api", srv.URL(), "done", "9")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
	if srv.Count(http.MethodPatch, "") != 0 {
		t.Fatalf("unknown id must not be patched")
	}
	if !strings.Contains(stderr, "✖ item 9 not found") || strings.Contains(stderr, "Error:") {
		t.Fatalf("expected the failure as a status line, got %q", stderr)
	}
}

func TestDoneUsesListFromFailedResponse(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"})
	srv.FailList(http.StatusInternalServerError)

	_, _, err := runCLI(t, "--api", srv.URL(), "--theme", "mono", "done", "1")
	if srv.Count(http.MethodPatch, "update_item/1/") != 1 {
		t.Fatalf("expected the decoded list to resolve the id, got %#v", srv.Requests())
	}
	// the re-fetch still answers 500
	if err == nil {
		t.Fatalf("expected the failed re-fetch to be reported")
	}
}

func TestAddChecksDuplicatesInFailedResponse(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"})
	srv.FailList(http.StatusInternalServerError)

	_, _, err := runCLI(t, "--api", srv.URL(), "add", "buy", "milk")
	if err == nil || !strings.Contains(err.Error(), "already") {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if srv.Count(http.MethodPost, "") != 0 {
		t.Fatalf("duplicate must not be posted")
	}
}

func TestFailedMutationsStillRefresh(t *testing.T) {
	tests := []struct {
		name   string
		method string
		args   []string
		op     string
	}{
		{"add", http.MethodPost, []string{"add", "Walk", "dog"}, "add"},
		{"done", http.MethodPatch, []string{"done", "1"}, "toggle"},
		{"rm", http.MethodDelete, []string{"rm", "1"}, "rm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"})
			srv.Fail(tt.method, http.StatusInternalServerError)
			before := srv.Count(http.MethodGet, "todo_list/")

			args := append([]string{"--api", srv.URL(), "--theme", "mono"}, tt.args...)
			out, stderr, err := runCLI(t, args...)
			if err == nil {
				t.Fatalf("expected %s to fail", tt.name)
			}
			if got := srv.Count(http.MethodGet, "todo_list/") - before; got < 1 {
				t.Fatalf("expected a re-fetch after the failure, got %#v", srv.Requests())
			}
			if !strings.Contains(out, "#1 [ ] Buy milk") {
				t.Fatalf("expected the re-fetched list on stdout:\n%s", out)
			}
			if !strings.Contains(stderr, "error: "+tt.op) {
				t.Fatalf("expected the failure on stderr, got %q", stderr)
			}
		})
	}
}

func TestUsageErrorsArePrinted(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{
		{"done"},
		{"ls", "--nope"},
		{"frobnicate"},
	} {
		_, stderr, err := runCLI(t, args...)
		if err == nil {
			t.Fatalf("%v: expected an error", args)
		}
		if !strings.Contains(stderr, "✖ "+err.Error()) {
			t.Fatalf("%v: expected %q on stderr, got %q", args, err, stderr)
		}
	}
}

func TestRemove(t *testing.T) {
	isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "Buy milk"}, model.Item{ID: 2, Content: "Walk dog"})

	out, _, err := runCLI(t, "--api", srv.URL(), "--theme", "mono", "rm", "#1")
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	if srv.Count(http.MethodDelete, "delete_item/1") != 1 {
		t.Fatalf("expected DELETE, got %#v", srv.Requests())
	}
	if strings.Contains(out, "Buy milk") || !strings.Contains(out, "Walk dog") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRemoveBadID(t *testing.T) {
	isolate(t)
	srv := apitest.New(t)

	if _, _, err := runCLI(t, "--api", srv.URL(), "rm", "abc"); err == nil {
		t.Fatalf("expected error for a non-numeric id")
	}
	if len(srv.Requests()) != 0 {
		t.Fatalf("no request should be sent")
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	wd := isolate(t)
	srv := apitest.New(t, model.Item{ID: 1, Content: "From file"})

	// project file points at the fake server
	body := "api_url = \"" + srv.URL() + "\"\ntheme = \"mono\"\n"
	if err := os.WriteFile(filepath.Join(wd, "todo.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, "ls")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out, "#1 [ ] From file") {
		t.Fatalf("expected config file to select server and theme:\n%s", out)
	}

	// a flag wins over the file
	if _, _, err := runCLI(t, "--api", "http://127.0.0.1:1/api/", "--timeout", "200ms", "ls"); err == nil {
		t.Fatalf("expected --api to override the config file")
	}
}

func TestInvalidConfigIsRejected(t *testing.T) {
	isolate(t)

	_, stderr, err := runCLI(t, "--theme", "sparkly", "ls")
	if err == nil || !strings.Contains(err.Error(), "theme") {
		t.Fatalf("expected theme error, got %v", err)
	}
	if !strings.Contains(stderr, "✖ config: theme") {
		t.Fatalf("expected the config error on stderr, got %q", stderr)
	}
}

func TestLogFileFlag(t *testing.T) {
	wd := isolate(t)
	srv := apitest.New(t)
	srv.FailList(http.StatusInternalServerError)
	logPath := filepath.Join(wd, "logs", "todo.log")

	_, stderr, _ := runCLI(t, "--api", srv.URL(), "--log-file", logPath, "ls")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "response error") || !strings.Contains(string(data), "status=500") {
		t.Fatalf("expected the failed request in the log, got:\n%s", data)
	}
	if strings.Contains(stderr, "response error") {
		t.Fatalf("logs should go to the file, not stderr")
	}
}
