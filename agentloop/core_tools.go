package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RegisterCoreTools registers the six core tools on a ToolRegistry. The
// tools delegate to the provided ExecutionEnvironment.
func RegisterCoreTools(reg *ToolRegistry, defaultTimeoutMs int, maxTimeoutMs int) {
	registerReadFile(reg)
	registerWriteFile(reg)
	registerEditFile(reg)
	registerListDir(reg)
	registerSearchInFiles(reg)
	registerRunCommand(reg, defaultTimeoutMs, maxTimeoutMs)
}

type readFileArgs struct {
	FilePath string `json:"filePath"`
}

func registerReadFile(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "readFile",
			Description: "Read a file from the filesystem and return its full text content.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"filePath": map[string]interface{}{
						"type":        "string",
						"description": "Path of the file to read.",
					},
				},
				"required": []string{"filePath"},
			},
		},
		Executor: func(arguments json.RawMessage, env ExecutionEnvironment) (string, error) {
			var args readFileArgs
			if err := decodeArgs(arguments, &args); err != nil {
				return "", err
			}
			if args.FilePath == "" {
				return "", Validationf("filePath is required")
			}
			return env.ReadFile(args.FilePath)
		},
	})
}

type writeFileArgs struct {
	FilePath string  `json:"filePath"`
	Content  *string `json:"content"`
}

func registerWriteFile(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "writeFile",
			Description: "Write content to a file, creating it and any missing parent directories. An existing file is overwritten.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"filePath": map[string]interface{}{
						"type":        "string",
						"description": "Path of the file to write.",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "The full file content to write.",
					},
				},
				"required": []string{"filePath", "content"},
			},
		},
		Executor: func(arguments json.RawMessage, env ExecutionEnvironment) (string, error) {
			var args writeFileArgs
			if err := decodeArgs(arguments, &args); err != nil {
				return "", err
			}
			if args.FilePath == "" {
				return "", Validationf("filePath is required")
			}
			if args.Content == nil {
				return "", Validationf("content is required")
			}
			if err := env.WriteFile(args.FilePath, *args.Content); err != nil {
				return "", err
			}
			return fmt.Sprintf("Wrote %d bytes to %s", len(*args.Content), args.FilePath), nil
		},
	})
}

type editFileArgs struct {
	FilePath string  `json:"filePath"`
	OldText  *string `json:"oldText"`
	NewText  *string `json:"newText"`
}

func registerEditFile(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			// Exact substring match, first occurrence only. Not a pattern
			// language.
			Name:        "editFile",
			Description: "Replace the first exact occurrence of oldText in a file with newText.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"filePath": map[string]interface{}{
						"type":        "string",
						"description": "Path of the file to edit.",
					},
					"oldText": map[string]interface{}{
						"type":        "string",
						"description": "Exact text to find in the file.",
					},
					"newText": map[string]interface{}{
						"type":        "string",
						"description": "Replacement text.",
					},
				},
				"required": []string{"filePath", "oldText", "newText"},
			},
		},
		Executor: func(arguments json.RawMessage, env ExecutionEnvironment) (string, error) {
			var args editFileArgs
			if err := decodeArgs(arguments, &args); err != nil {
				return "", err
			}
			if args.FilePath == "" {
				return "", Validationf("filePath is required")
			}
			if args.OldText == nil {
				return "", Validationf("oldText is required")
			}
			if args.NewText == nil {
				return "", Validationf("newText is required")
			}

			content, err := env.ReadFile(args.FilePath)
			if err != nil {
				return "", err
			}
			if !strings.Contains(content, *args.OldText) {
				return "", NotFoundf("oldText not found in %s", args.FilePath)
			}

			updated := strings.Replace(content, *args.OldText, *args.NewText, 1)
			if err := env.WriteFile(args.FilePath, updated); err != nil {
				return "", err
			}
			return fmt.Sprintf("Replaced first occurrence in %s", args.FilePath), nil
		},
	})
}

type listDirArgs struct {
	Path string `json:"path"`
}

func registerListDir(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "listDir",
			Description: "List the entries of a directory in name order. Directory entries carry a trailing / marker.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Directory to list. Default: current directory.",
					},
				},
				"required": []string{},
			},
		},
		Executor: func(arguments json.RawMessage, env ExecutionEnvironment) (string, error) {
			var args listDirArgs
			if err := decodeArgs(arguments, &args); err != nil {
				return "", err
			}
			path := args.Path
			if path == "" {
				path = "."
			}

			entries, err := env.ListDirectory(path)
			if err != nil {
				return "", err
			}
			if len(entries) == 0 {
				return "(empty directory)", nil
			}

			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				name := entry.Name
				if entry.IsDir {
					name += "/"
				}
				names = append(names, name)
			}
			return strings.Join(names, "\n"), nil
		},
	})
}

type searchInFilesArgs struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

func registerSearchInFiles(reg *ToolRegistry) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "searchInFiles",
			Description: "Search every file under a root for lines matching a regular expression. Returns file, 1-based line number, and the matching line.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pattern": map[string]interface{}{
						"type":        "string",
						"description": "Regular expression applied per line.",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Root directory to search. Default: current directory.",
					},
				},
				"required": []string{"pattern"},
			},
		},
		Executor: func(arguments json.RawMessage, env ExecutionEnvironment) (string, error) {
			var args searchInFilesArgs
			if err := decodeArgs(arguments, &args); err != nil {
				return "", err
			}
			if args.Pattern == "" {
				return "", Validationf("pattern is required")
			}

			matches, err := env.Search(args.Pattern, args.Path)
			if err != nil {
				return "", err
			}
			if len(matches) == 0 {
				return "No matches found.", nil
			}

			var sb strings.Builder
			for _, m := range matches {
				fmt.Fprintf(&sb, "%s:%d: %s\n", m.File, m.Line, m.Text)
			}
			return strings.TrimSuffix(sb.String(), "\n"), nil
		},
	})
}

type runCommandArgs struct {
	Command    string            `json:"command"`
	WorkingDir string            `json:"workingDir"`
	Env        map[string]string `json:"env"`
	TimeoutMs  int               `json:"timeoutMs"`
}

func registerRunCommand(reg *ToolRegistry, defaultTimeoutMs int, maxTimeoutMs int) {
	reg.Register(RegisteredTool{
		Definition: ToolDefinition{
			Name:        "runCommand",
			Description: "Execute a shell command and return its captured stdout and stderr.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"command": map[string]interface{}{
						"type":        "string",
						"description": "The command to run.",
					},
					"workingDir": map[string]interface{}{
						"type":        "string",
						"description": "Working directory for the command. Default: the session working directory.",
					},
					"env": map[string]interface{}{
						"type":        "object",
						"description": "Environment variable overrides.",
					},
					"timeoutMs": map[string]interface{}{
						"type":        "integer",
						"description": "Timeout in milliseconds. Default and cap are configured at startup.",
					},
				},
				"required": []string{"command"},
			},
		},
		Executor: func(arguments json.RawMessage, env ExecutionEnvironment) (string, error) {
			var args runCommandArgs
			if err := decodeArgs(arguments, &args); err != nil {
				return "", err
			}
			if args.Command == "" {
				return "", Validationf("command is required")
			}

			timeoutMs := args.TimeoutMs
			if timeoutMs <= 0 {
				timeoutMs = defaultTimeoutMs
			}
			if timeoutMs > maxTimeoutMs {
				timeoutMs = maxTimeoutMs
			}

			result, err := env.ExecCommand(context.Background(), args.Command, ExecOptions{
				WorkingDir: args.WorkingDir,
				Env:        args.Env,
				TimeoutMs:  timeoutMs,
			})
			if err != nil {
				return "", err
			}

			if result.TimedOut {
				return "", Executionf(result.Stdout, result.Stderr,
					"command timed out after %dms", timeoutMs)
			}
			if result.ExitCode != 0 {
				return "", Executionf(result.Stdout, result.Stderr,
					"command exited with code %d", result.ExitCode)
			}
			return result.Output(), nil
		},
	})
}
