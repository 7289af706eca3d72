package commands

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/spf13/cobra"
	"go.starlark.net/starlark"

	"github.com/leapstack-labs/pgdef/internal/cli/config"
	"github.com/leapstack-labs/pgdef/internal/cli/output"
	"github.com/leapstack-labs/pgdef/internal/macro"
	starctx "github.com/leapstack-labs/pgdef/internal/starlark"
	"github.com/leapstack-labs/pgdef/internal/template"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext reads the config and logger stored on the command
// context by the root command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// NewEngine creates a template engine from the configuration. Macro
// modules and configured globals are visible to every template.
func (c *CommandContext) NewEngine() (*template.Engine, error) {
	globals, err := c.Globals()
	if err != nil {
		return nil, err
	}
	eng, err := template.NewEngine(template.EngineConfig{
		Dir:       c.Cfg.TemplatesDir,
		CacheSize: c.Cfg.CacheSize,
		Globals:   globals,
		Logger:    c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}
	return eng, nil
}

// Globals merges configured globals with the macro modules. A macro
// namespace shadows a configured global of the same name.
func (c *CommandContext) Globals() (starlark.StringDict, error) {
	globals, err := starctx.GlobalsFromMap(c.Cfg.Globals)
	if err != nil {
		return nil, fmt.Errorf("invalid globals: %w", err)
	}
	registry, err := macro.LoadAndRegister(c.Cfg.MacrosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load macros: %w", err)
	}
	if registry.Len() > 0 {
		c.Logger.Debug("macros loaded", "dir", c.Cfg.MacrosDir, "namespaces", registry.Namespaces())
	}
	maps.Copy(globals, registry.ToStarlarkDict())
	return globals, nil
}
