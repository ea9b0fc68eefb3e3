// Command loom is an interactive coding agent. It reads prompts from stdin,
// runs each through a bounded tool-calling loop against a configured model
// provider, and prints tool activity and the final answer to the console.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/teilomillet/gollm"

	"github.com/loomworks/loom/agentloop"
	"github.com/loomworks/loom/config"
	"github.com/loomworks/loom/unifiedllm"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cliFlags struct {
	configPath string
	provider   string
	model      string
	endpoint   string
	workingDir string
	maxRounds  int
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "loom",
		Short: "Interactive coding agent with a bounded tool-calling loop",
		Long: `loom runs an interactive session against an LLM provider. Each prompt
is answered through a tool-calling loop: the model may read, write, and
edit files, list directories, search, and run shell commands in the
working directory before producing its final answer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(flags)
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML configuration file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().StringVar(&flags.provider, "provider", "", "model provider (anthropic, openai, ollama, ...)")
	root.Flags().StringVarP(&flags.model, "model", "m", "", "model identifier")
	root.Flags().StringVar(&flags.endpoint, "endpoint", "", "alternate service endpoint (ollama only)")
	root.Flags().StringVarP(&flags.workingDir, "dir", "d", "", "working directory for tools (default: current directory)")
	root.Flags().IntVar(&flags.maxRounds, "max-rounds", 0, "maximum tool-calling rounds per prompt")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newModelsCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("loom %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func newModelsCmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known models",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range unifiedllm.ListModels(provider) {
				line := fmt.Sprintf("%-24s %-10s %s", m.ID, m.Provider, m.DisplayName)
				if len(m.Aliases) > 0 {
					line += fmt.Sprintf(" (aliases: %s)", strings.Join(m.Aliases, ", "))
				}
				fmt.Println(line)
			}
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "filter by provider")
	return cmd
}

// loadConfig merges the defaults, the optional config file, and CLI flags.
func loadConfig(flags *cliFlags) (*config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	} else if loaded, err := config.Load("loom.yaml"); err == nil {
		cfg = *loaded
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if flags.provider != "" {
		cfg.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.Model = flags.model
	}
	if flags.endpoint != "" {
		cfg.Endpoint = flags.endpoint
	}
	if flags.workingDir != "" {
		cfg.WorkingDir = flags.workingDir
	}
	if flags.maxRounds > 0 {
		cfg.MaxRounds = flags.maxRounds
	}
	if cfg.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining working directory: %w", err)
		}
		cfg.WorkingDir = wd
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildClient constructs the provider adapter and middleware chain.
func buildClient(cfg *config.Config, logger *slog.Logger) (*unifiedllm.Client, error) {
	apiKey, err := config.ResolveCredential(cfg.Provider)
	if err != nil {
		return nil, err
	}

	adapterOpts := []unifiedllm.GollmAdapterOption{
		unifiedllm.WithModel(cfg.Model),
	}
	if cfg.MaxTokens > 0 {
		adapterOpts = append(adapterOpts, unifiedllm.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Endpoint != "" {
		if cfg.Provider != "ollama" {
			logger.Warn("endpoint is only supported for the ollama provider; ignoring",
				"provider", cfg.Provider, "endpoint", cfg.Endpoint)
		} else {
			adapterOpts = append(adapterOpts,
				unifiedllm.WithGollmOptions(gollm.SetOllamaEndpoint(cfg.Endpoint)))
		}
	}

	adapter, err := unifiedllm.NewGollmAdapter(cfg.Provider, apiKey, adapterOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing %s adapter: %w", cfg.Provider, err)
	}

	return unifiedllm.NewClient(
		unifiedllm.WithProvider(cfg.Provider, adapter),
		unifiedllm.WithDefaultProvider(cfg.Provider),
		unifiedllm.WithMiddleware(
			unifiedllm.LoggingMiddleware(logger),
			unifiedllm.RetryMiddleware(unifiedllm.DefaultRetryPolicy()),
		),
	), nil
}

const consoleRule = "────────────────────────────────────────────────────────────"

// consoleSink prints tool activity as it happens.
func consoleSink(out *os.File) agentloop.EventSink {
	return func(ev agentloop.Event) {
		switch ev.Kind {
		case agentloop.EventToolCall:
			fmt.Fprintf(out, "tool %s\n", ev.Tool.Name)
			fmt.Fprintf(out, "  args: %s\n", string(ev.Tool.Arguments))
			if ev.Tool.IsError {
				fmt.Fprintf(out, "  error: %s\n", firstLine(ev.Tool.Output))
			} else {
				fmt.Fprintf(out, "  => %s\n", firstLine(ev.Tool.Output))
			}
		case agentloop.EventRoundLimit:
			fmt.Fprintf(out, "round limit reached after %d rounds\n", ev.Round)
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func runREPL(flags *cliFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := newLogger(flags.verbose)

	client, err := buildClient(cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	registry := agentloop.NewToolRegistry()
	agentloop.RegisterCoreTools(registry, cfg.CommandTimeoutMs, cfg.MaxTimeoutMs)
	env := agentloop.NewLocalExecutionEnvironment(cfg.WorkingDir)

	loopCfg := agentloop.DefaultLoopConfig()
	loopCfg.Model = cfg.Model
	loopCfg.Provider = cfg.Provider
	loopCfg.MaxRounds = cfg.MaxRounds
	loopCfg.MaxTokens = cfg.MaxTokens

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("loom %s — %s/%s in %s (ctrl-d or ctrl-c to exit)\n",
		version, cfg.Provider, cfg.Model, cfg.WorkingDir)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Println(consoleRule)
		fmt.Print("> ")
		if !scanner.Scan() {
			if ctx.Err() != nil {
				fmt.Println()
				return nil
			}
			// EOF on stdin.
			fmt.Println()
			return scanner.Err()
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "exit" || prompt == "quit" {
			return nil
		}

		loop := agentloop.NewLoop(client, registry, env, &loopCfg, consoleSink(os.Stdout))
		result, err := loop.Run(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println()
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(result.Text)
		logger.Debug("prompt complete",
			"rounds", result.Rounds,
			"tool_calls", result.ToolCalls,
			"state", string(result.State),
			"input_tokens", result.Usage.InputTokens,
			"output_tokens", result.Usage.OutputTokens)
	}
}
