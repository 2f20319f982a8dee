package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/c3crawl/internal/bundle"
	"github.com/danieljhkim/c3crawl/internal/clock"
	"github.com/danieljhkim/c3crawl/internal/config"
	"github.com/danieljhkim/c3crawl/internal/engine"
	"github.com/danieljhkim/c3crawl/internal/fsops"
	"github.com/danieljhkim/c3crawl/internal/layout"
	"github.com/danieljhkim/c3crawl/internal/logging"
)

// commandContext carries the global flag values shared by all commands.
type commandContext struct {
	projectFlag   string
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
	jsonOutput    bool
}

// loadConfig reads the configuration file and applies flag overrides.
func (c *commandContext) loadConfig() (*config.Config, error) {
	cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
	if err != nil {
		return nil, err
	}
	if c.logLevelFlag != "" {
		cfg.Logging.Level = strings.ToLower(c.logLevelFlag)
	}
	if c.logFormatFlag != "" {
		cfg.Logging.Format = strings.ToLower(c.logFormatFlag)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// projectRoot returns the absolute project root from --project or the
// current directory.
func (c *commandContext) projectRoot() (string, error) {
	root := strings.TrimSpace(c.projectFlag)
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return cwd, nil
	}
	return absPath(root)
}

// newEngine creates a new engine with real implementations of all
// dependencies. Logs go to the command's stderr.
func (c *commandContext) newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	resolved := paths.WithBundleDir(cfg.Bundle.CacheDir)
	if err := resolved.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS(resolved.Locks)
	return engine.New(
		fs,
		layout.NewStore(fs),
		bundle.NewZipService(),
		logger,
		&clock.RealClock{},
		*cfg,
		resolved,
	), nil
}

// FormatError formats an error for display.
func FormatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printWarnings lists non-fatal problems after a command's main output.
func printWarnings(w io.Writer, warnings []engine.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, warning := range warnings {
		PrintWarning(w, warning.String())
	}
}
