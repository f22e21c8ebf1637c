package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Default limits. These mirror what the harness enforces when a field is left
// at its zero value.
const (
	DefaultReadMaxBytes    = 200 * 1024
	DefaultWriteMaxBytes   = 1 << 20
	DefaultPatchMaxBytes   = 512 * 1024
	DefaultTimeoutMs       = 120_000
	DefaultMaxParallel     = 6
	DefaultGrepMaxResults  = 50
	DefaultExecOutputBytes = 64 * 1024
)

// HarnessConfig is the explicit configuration for the tool harness. The
// harness never reads ambient state; a caller resolves this struct once at
// startup and passes it in.
type HarnessConfig struct {
	EnableExec      bool   `toml:"enable_exec"`
	EnableFileTools bool   `toml:"enable_file_tools"`
	EnablePatch     bool   `toml:"enable_patch"`

	ReadMaxBytes    int `toml:"read_max_bytes"`
	WriteMaxBytes   int `toml:"write_max_bytes"`
	PatchMaxBytes   int `toml:"patch_max_bytes"`
	ExecOutputBytes int `toml:"exec_output_bytes"`

	// ExecAllowlist restricts which executable basenames may be spawned.
	// Empty means allow all; a single "*" entry also disables the check.
	ExecAllowlist []string `toml:"exec_allowlist"`

	DefaultTimeoutMs int `toml:"default_timeout_ms"`
	MaxParallel      int `toml:"max_parallel"`
	GrepMaxResults   int `toml:"grep_max_results"`

	Language string `toml:"language"`

	Source string `toml:"-"`
}

// Default returns a config with every tool enabled and zero (i.e. default)
// limits.
func Default() HarnessConfig {
	return HarnessConfig{
		EnableExec:      true,
		EnableFileTools: true,
		EnablePatch:     true,
	}
}

// Load reads a TOML config file. A missing file is not an error; the defaults
// are returned unchanged.
func Load(path string) (HarnessConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Override keys accepted by ApplyOverrides.
const (
	KeyEnableExec      = "enable_exec"
	KeyEnableFileTools = "enable_file_tools"
	KeyEnablePatch     = "enable_patch"
	KeyReadMaxBytes    = "read_max_bytes"
	KeyWriteMaxBytes   = "write_max_bytes"
	KeyPatchMaxBytes   = "patch_max_bytes"
	KeyExecAllowlist   = "exec_allowlist"
	KeyTimeoutMs       = "default_timeout_ms"
	KeyMaxParallel     = "max_parallel"
	KeyGrepMaxResults  = "grep_max_results"
	KeyLanguage        = "language"
)

// ApplyOverrides folds environment-style string settings into the config.
// Booleans are parsed permissively (1/true/yes/on vs 0/false/no/off), the
// allowlist is a comma list or "*". Unknown keys and malformed values are
// reported as errors so a typo never silently loosens a limit.
func (c *HarnessConfig) ApplyOverrides(overrides map[string]string) error {
	for key, raw := range overrides {
		value := strings.TrimSpace(raw)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case KeyEnableExec:
			b, err := ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.EnableExec = b
		case KeyEnableFileTools:
			b, err := ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.EnableFileTools = b
		case KeyEnablePatch:
			b, err := ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.EnablePatch = b
		case KeyReadMaxBytes:
			n, err := parsePositiveInt(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.ReadMaxBytes = n
		case KeyWriteMaxBytes:
			n, err := parsePositiveInt(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.WriteMaxBytes = n
		case KeyPatchMaxBytes:
			n, err := parsePositiveInt(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.PatchMaxBytes = n
		case KeyExecAllowlist:
			c.ExecAllowlist = ParseAllowlist(value)
		case KeyTimeoutMs:
			n, err := parsePositiveInt(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.DefaultTimeoutMs = n
		case KeyMaxParallel:
			n, err := parsePositiveInt(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.MaxParallel = n
		case KeyGrepMaxResults:
			n, err := parsePositiveInt(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.GrepMaxResults = n
		case KeyLanguage:
			c.Language = value
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
	}
	return nil
}

// ParseBool accepts the permissive toggle spellings used by environment-style
// switches.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", value)
	}
}

// ParseAllowlist splits a comma list of executable names, trimming blanks.
// "*" collapses to a single wildcard entry.
func ParseAllowlist(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if value == "*" {
		return []string{"*"}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parsePositiveInt(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", value)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive: %d", n)
	}
	return n, nil
}

// ReadLimit returns the effective read cap.
func (c HarnessConfig) ReadLimit() int {
	if c.ReadMaxBytes > 0 {
		return c.ReadMaxBytes
	}
	return DefaultReadMaxBytes
}

// WriteLimit returns the effective write cap.
func (c HarnessConfig) WriteLimit() int {
	if c.WriteMaxBytes > 0 {
		return c.WriteMaxBytes
	}
	return DefaultWriteMaxBytes
}

// PatchLimit returns the effective patch size cap.
func (c HarnessConfig) PatchLimit() int {
	if c.PatchMaxBytes > 0 {
		return c.PatchMaxBytes
	}
	return DefaultPatchMaxBytes
}

// Timeout returns the effective default command timeout in milliseconds.
func (c HarnessConfig) Timeout() int {
	if c.DefaultTimeoutMs > 0 {
		return c.DefaultTimeoutMs
	}
	return DefaultTimeoutMs
}

// Parallelism returns the effective worker pool width.
func (c HarnessConfig) Parallelism() int {
	if c.MaxParallel > 0 {
		return c.MaxParallel
	}
	return DefaultMaxParallel
}

// SearchCap returns the effective grep/find result cap.
func (c HarnessConfig) SearchCap() int {
	if c.GrepMaxResults > 0 {
		return c.GrepMaxResults
	}
	return DefaultGrepMaxResults
}

// ExecOutputLimit returns the effective per-stream exec output cap.
func (c HarnessConfig) ExecOutputLimit() int {
	if c.ExecOutputBytes > 0 {
		return c.ExecOutputBytes
	}
	return DefaultExecOutputBytes
}
