package agentloop

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"syscall"
	"time"
)

// ExecResult holds the result of a command execution. It is populated even
// when the command exits non-zero or times out, so partial output survives.
type ExecResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	TimedOut   bool   `json:"timed_out"`
	DurationMs int64  `json:"duration_ms"`
}

// Output returns combined stdout and stderr.
func (r ExecResult) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// DirEntry represents a filesystem directory entry.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// SearchMatch is one matching line found by Search.
type SearchMatch struct {
	File string `json:"file"`
	Line int    `json:"line"` // 1-based
	Text string `json:"text"` // exact original line text
}

// ExecOptions configures a single command execution.
type ExecOptions struct {
	WorkingDir string            `json:"working_dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	TimeoutMs  int               `json:"timeout_ms,omitempty"`
}

// ExecutionEnvironment abstracts where tool operations run. Implementations
// report failures as *ToolError so the dispatcher can render them for the
// model without inspecting platform error types.
type ExecutionEnvironment interface {
	// File operations.
	ReadFile(path string) (string, error)
	WriteFile(path string, content string) error
	ListDirectory(path string) ([]DirEntry, error)

	// Search applies pattern to every physical line of every readable file
	// under root. Unreadable files are skipped silently.
	Search(pattern string, root string) ([]SearchMatch, error)

	// Command execution. The returned ExecResult is populated even on
	// non-zero exit or timeout.
	ExecCommand(ctx context.Context, command string, opts ExecOptions) (*ExecResult, error)

	// Metadata.
	WorkingDirectory() string
	Platform() string
	OSVersion() string
}

// sensitiveEnvPatterns are case-insensitive suffixes for environment variables
// that are excluded from spawned commands by default.
var sensitiveEnvPatterns = []string{
	"_API_KEY",
	"_SECRET",
	"_TOKEN",
	"_PASSWORD",
	"_CREDENTIAL",
}

// safeEnvVars are always included regardless of filtering.
var safeEnvVars = map[string]bool{
	"PATH": true, "HOME": true, "USER": true, "SHELL": true,
	"LANG": true, "TERM": true, "TMPDIR": true,
	"GOPATH": true, "GOROOT": true,
	"XDG_CONFIG_HOME": true, "XDG_DATA_HOME": true, "XDG_CACHE_HOME": true,
}

func isSensitiveEnvVar(name string) bool {
	upper := strings.ToUpper(name)
	for _, pattern := range sensitiveEnvPatterns {
		if strings.HasSuffix(upper, pattern) {
			return true
		}
	}
	return false
}

// filterEnvironment returns the process environment minus sensitive variables.
func filterEnvironment() []string {
	var filtered []string
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := parts[0]
		if safeEnvVars[name] || !isSensitiveEnvVar(name) {
			filtered = append(filtered, env)
		}
	}
	return filtered
}

// LocalExecutionEnvironment runs tools on the local machine.
type LocalExecutionEnvironment struct {
	workingDir string
	platform   string
	osVersion  string
}

// NewLocalExecutionEnvironment creates a local execution environment rooted
// at workingDir (the process working directory if empty).
func NewLocalExecutionEnvironment(workingDir string) *LocalExecutionEnvironment {
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}
	return &LocalExecutionEnvironment{
		workingDir: workingDir,
		platform:   runtime.GOOS,
		osVersion:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (e *LocalExecutionEnvironment) WorkingDirectory() string {
	return e.workingDir
}

func (e *LocalExecutionEnvironment) Platform() string {
	return e.platform
}

func (e *LocalExecutionEnvironment) OSVersion() string {
	return e.osVersion
}

func (e *LocalExecutionEnvironment) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.workingDir, path)
}

// ReadFile returns the full raw content of a file.
func (e *LocalExecutionEnvironment) ReadFile(path string) (string, error) {
	resolved := e.resolvePath(path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", IOErrorf(err, "cannot read %s", path)
	}
	return string(data), nil
}

// WriteFile creates or overwrites a file, creating parent directories as
// needed.
func (e *LocalExecutionEnvironment) WriteFile(path string, content string) error {
	resolved := e.resolvePath(path)
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return IOErrorf(err, "cannot create directory %s", dir)
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return IOErrorf(err, "cannot write %s", path)
	}
	return nil
}

// ListDirectory returns the entries of a directory in name order.
func (e *LocalExecutionEnvironment) ListDirectory(path string) ([]DirEntry, error) {
	resolved := e.resolvePath(path)
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, IOErrorf(err, "cannot list %s", path)
	}

	// os.ReadDir already sorts by name.
	result := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, DirEntry{
			Name:  entry.Name(),
			IsDir: entry.IsDir(),
		})
	}
	return result, nil
}

// Search compiles pattern and applies it to each physical line of each
// readable regular file under root. The regexp is matched per line, never
// across line boundaries, and MatchString carries no position state between
// calls, so matches are never skipped between lines or files.
func (e *LocalExecutionEnvironment) Search(pattern string, root string) ([]SearchMatch, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, Validationf("malformed pattern %q: %v", pattern, err)
	}

	if root == "" {
		root = "."
	}
	resolved := e.resolvePath(root)

	var matches []SearchMatch
	walkErr := filepath.WalkDir(resolved, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Unreadable directory entry: skip, not fatal.
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			// Unreadable file: skip silently.
			return nil
		}

		rel, err := filepath.Rel(e.workingDir, path)
		if err != nil {
			rel = path
		}

		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			if re.MatchString(line) {
				matches = append(matches, SearchMatch{
					File: rel,
					Line: i + 1,
					Text: line,
				})
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, IOErrorf(walkErr, "cannot walk %s", root)
	}
	return matches, nil
}

// ExecCommand runs command through the platform shell. The ExecResult is
// returned for non-zero exits and timeouts; only failures to spawn the
// process at all produce an error.
func (e *LocalExecutionEnvironment) ExecCommand(ctx context.Context, command string, opts ExecOptions) (*ExecResult, error) {
	workingDir := opts.WorkingDir
	if workingDir == "" {
		workingDir = e.workingDir
	} else {
		workingDir = e.resolvePath(workingDir)
	}

	if opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	shell := "/bin/bash"
	shellArg := "-c"
	if runtime.GOOS == "windows" {
		shell = "cmd.exe"
		shellArg = "/c"
	}

	cmd := exec.CommandContext(ctx, shell, shellArg, command)
	cmd.Dir = workingDir

	// Process group so a timed-out command is killed with its children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	env := filterEnvironment()
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &ExecResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: duration.Milliseconds(),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
			result.ExitCode = -1
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
		} else if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return nil, IOErrorf(err, "cannot execute command")
		}
	}

	return result, nil
}
