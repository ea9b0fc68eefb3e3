package agentloop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testEnv(t *testing.T) *LocalExecutionEnvironment {
	t.Helper()
	return NewLocalExecutionEnvironment(t.TempDir())
}

func TestWriteReadRoundTrip(t *testing.T) {
	env := testEnv(t)
	content := "line one\nline two\n"

	if err := env.WriteFile("notes/todo.txt", content); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := env.ReadFile("notes/todo.txt")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != content {
		t.Errorf("round trip mismatch: expected %q, got %q", content, got)
	}
}

func TestReadFileMissing(t *testing.T) {
	env := testEnv(t)
	_, err := env.ReadFile("does-not-exist.txt")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var te *ToolError
	if !errors.As(err, &te) || te.Kind != ErrIO {
		t.Errorf("expected an io ToolError, got %v", err)
	}
}

func TestListDirectorySorted(t *testing.T) {
	env := testEnv(t)
	for _, name := range []string{"zeta.txt", "alpha.txt"} {
		if err := env.WriteFile(name, ""); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(env.WorkingDirectory(), "mid"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := env.ListDirectory(".")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []struct {
		name  string
		isDir bool
	}{
		{"alpha.txt", false},
		{"mid", true},
		{"zeta.txt", false},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Name != w.name || entries[i].IsDir != w.isDir {
			t.Errorf("entry %d: expected %+v, got %+v", i, w, entries[i])
		}
	}
}

func TestSearchMatchesPerLine(t *testing.T) {
	env := testEnv(t)
	if err := env.WriteFile("a.txt", "foo bar\nbaz\nfoofoo\n"); err != nil {
		t.Fatal(err)
	}

	matches, err := env.Search("foo", "")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matching lines, got %d: %+v", len(matches), matches)
	}
	if matches[0].Line != 1 || matches[0].Text != "foo bar" {
		t.Errorf("first match wrong: %+v", matches[0])
	}
	if matches[1].Line != 3 || matches[1].Text != "foofoo" {
		t.Errorf("second match wrong: %+v", matches[1])
	}
}

func TestSearchMalformedPattern(t *testing.T) {
	env := testEnv(t)
	_, err := env.Search("[unclosed", "")
	var te *ToolError
	if !errors.As(err, &te) || te.Kind != ErrValidation {
		t.Errorf("expected a validation ToolError for a bad pattern, got %v", err)
	}
}

func TestExecCommandCapturesStreams(t *testing.T) {
	env := testEnv(t)
	result, err := env.ExecCommand(context.Background(), "echo out; echo err >&2", ExecOptions{TimeoutMs: 5000})
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit 0, got %d", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "out" {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}
	if strings.TrimSpace(result.Stderr) != "err" {
		t.Errorf("unexpected stderr: %q", result.Stderr)
	}
}

func TestExecCommandNonZeroExit(t *testing.T) {
	env := testEnv(t)
	result, err := env.ExecCommand(context.Background(), "echo partial; exit 3", ExecOptions{TimeoutMs: 5000})
	if err != nil {
		t.Fatalf("non-zero exit must not be an exec error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
	if strings.TrimSpace(result.Stdout) != "partial" {
		t.Errorf("partial output lost: %q", result.Stdout)
	}
}

func TestExecCommandTimeout(t *testing.T) {
	env := testEnv(t)
	result, err := env.ExecCommand(context.Background(), "sleep 5", ExecOptions{TimeoutMs: 100})
	if err != nil {
		t.Fatalf("timeout must not be an exec error: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected TimedOut to be set")
	}
	if result.ExitCode != -1 {
		t.Errorf("expected exit code -1 on timeout, got %d", result.ExitCode)
	}
}

func TestExecCommandEnvOverride(t *testing.T) {
	env := testEnv(t)
	result, err := env.ExecCommand(context.Background(), "echo $LOOM_TEST_VAR", ExecOptions{
		Env:       map[string]string{"LOOM_TEST_VAR": "hello"},
		TimeoutMs: 5000,
	})
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Errorf("env override not applied: %q", result.Stdout)
	}
}

func TestSensitiveEnvVarsFiltered(t *testing.T) {
	cases := []struct {
		name      string
		sensitive bool
	}{
		{"ANTHROPIC_API_KEY", true},
		{"DB_PASSWORD", true},
		{"GITHUB_TOKEN", true},
		{"AWS_SECRET", true},
		{"PATH", false},
		{"HOME", false},
		{"LANG", false},
	}
	for _, tc := range cases {
		if got := isSensitiveEnvVar(tc.name); got != tc.sensitive {
			t.Errorf("isSensitiveEnvVar(%q) = %v, expected %v", tc.name, got, tc.sensitive)
		}
	}
}

func TestResolvePathRelativeAndAbsolute(t *testing.T) {
	env := testEnv(t)
	rel := env.resolvePath("sub/file.txt")
	if !strings.HasPrefix(rel, env.WorkingDirectory()) {
		t.Errorf("relative path not anchored to working dir: %q", rel)
	}
	abs := env.resolvePath("/etc/hosts")
	if abs != "/etc/hosts" {
		t.Errorf("absolute path rewritten: %q", abs)
	}
}
