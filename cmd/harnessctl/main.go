package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"toolweave/internal/config"
	"toolweave/internal/harness"
	"toolweave/internal/harness/handlers"
	"toolweave/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	overrides  []string
	workdir    string
	logPath    string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "harnessctl",
		Short: "Parse and execute tool blocks embedded in model output",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "config override key=value (repeatable)")

	runCmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Execute every tool block in the input and print the rewritten text",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBatch,
	}
	runCmd.Flags().StringVar(&workdir, "workdir", ".", "working directory for tool execution")
	runCmd.Flags().StringVar(&logPath, "log", "", "tool call log file (default "+harness.DefaultToolsLogPath+")")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "announce each tool call on stderr")

	stripCmd := &cobra.Command{
		Use:   "strip [file|-]",
		Short: "Print the input with every tool block removed",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStrip,
	}

	guideCmd := &cobra.Command{
		Use:   "guide",
		Short: "Print the capability guide for the configured tool set",
		Args:  cobra.NoArgs,
		RunE:  runGuide,
	}

	rootCmd.AddCommand(runCmd, stripCmd, guideCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.HarnessConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	kv := make(map[string]string, len(overrides))
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok {
			return cfg, fmt.Errorf("bad --set %q, want key=value", o)
		}
		kv[key] = value
	}
	if err := cfg.ApplyOverrides(kv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func buildHarness(cfg config.HarnessConfig) *harness.Harness {
	runner := harness.NewRunner(nil)
	hs := handlers.Default(cfg, runner, harness.LookPathProbe)
	return harness.NewHarness(cfg, hs)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	text, err := readInput(args)
	if err != nil {
		return err
	}

	logger.Configure()
	closer, resolved, err := harness.SetupToolsLog(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: tool log unavailable at %s: %v\n", resolved, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	hooks := harness.Hooks{}
	if verbose {
		hooks.OnInvoke = func(callID string, inv harness.Invocation) {
			fmt.Fprintf(os.Stderr, "→ %s %s\n", inv.Name, callID)
		}
		hooks.OnResult = func(s harness.ToolCallSummary) {
			status := "ok"
			if !s.OK {
				status = "failed"
			}
			fmt.Fprintf(os.Stderr, "← %s %s %s\n", s.Tool, s.CallID, status)
		}
	}

	h := buildHarness(cfg)
	res, err := h.ExecuteBatch(cmd.Context(), text, harness.ExecutionContext{
		WorkingDirectory: workdir,
	}, hooks)
	if err != nil {
		return err
	}
	fmt.Println(res.RewrittenText)
	return nil
}

func runStrip(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}
	fmt.Println(harness.StripToolBlocks(text))
	return nil
}

func runGuide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	h := buildHarness(cfg)
	fmt.Println(harness.BuildGuide(h.Registry(), harness.LookPathProbe))
	return nil
}
