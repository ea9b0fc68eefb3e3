package agentloop

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const baseInstructions = `You are a coding agent working in the user's project directory.
You accomplish tasks by calling the available tools: read, write, and edit
files, list directories, search file contents, and run shell commands.

Call tools whenever you need information or want to change something; do not
guess at file contents. When the task is complete, reply with a plain text
answer and no further tool calls.`

// BuildSystemPrompt assembles the fixed system instruction for a session. It
// is identical on every round of a prompt.
func BuildSystemPrompt(env ExecutionEnvironment) string {
	var sb strings.Builder
	sb.WriteString(baseInstructions)
	sb.WriteString("\n\n")
	sb.WriteString(buildEnvironmentContext(env))
	return sb.String()
}

// buildEnvironmentContext generates the structured environment context block.
func buildEnvironmentContext(env ExecutionEnvironment) string {
	workingDir := env.WorkingDirectory()

	var sb strings.Builder
	sb.WriteString("<environment>\n")
	fmt.Fprintf(&sb, "Working directory: %s\n", workingDir)
	if branch := gitBranch(workingDir); branch != "" {
		fmt.Fprintf(&sb, "Git branch: %s\n", branch)
	}
	fmt.Fprintf(&sb, "Platform: %s\n", env.Platform())
	fmt.Fprintf(&sb, "OS version: %s\n", env.OSVersion())
	fmt.Fprintf(&sb, "Today's date: %s\n", time.Now().Format("2006-01-02"))
	sb.WriteString("</environment>")
	return sb.String()
}

func gitBranch(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
