package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/pgdef/internal/cli/config"
	"github.com/leapstack-labs/pgdef/internal/cli/output"
)

const exampleMacro = `def qualify(schema, name):
    """Joins a schema and an object name."""
    if schema:
        return schema + "." + name
    return name
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var (
		force     bool
		templates bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a pgdef project",
		Long: `Initialize a pgdef project.

This creates:
  - pgdef.yaml configuration file
  - macros/ directory with an example Starlark helper module

Use --templates to also copy the builtin templates into templates/ so they
can be edited. Files in templates/ override the builtin set.`,
		Example: `  # Initialize in current directory
  pgdef init

  # Initialize with editable templates
  pgdef init ddl --templates`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := NewCommandContext(cmd).Renderer
			return runInit(r, dir, templates, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&templates, "templates", false, "Copy the builtin templates into templates/")

	return cmd
}

func runInit(r *output.Renderer, dir string, templates, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	def := config.Default()
	settings := map[string]any{
		"mode":       def.Mode.String(),
		"macros_dir": config.DefaultMacrosDir,
		"max_depth":  def.MaxDepth,
		"log_level":  def.LogLevel,
	}
	if templates {
		settings["templates_dir"] = "templates"
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	r.Success("Created " + configPath)

	macrosDir := filepath.Join(dir, config.DefaultMacrosDir)
	if err := os.MkdirAll(macrosDir, 0750); err != nil {
		return fmt.Errorf("failed to create macros directory: %w", err)
	}
	macroPath := filepath.Join(macrosDir, "names.star")
	if _, err := os.Stat(macroPath); err != nil || force {
		if err := os.WriteFile(macroPath, []byte(exampleMacro), 0600); err != nil {
			return fmt.Errorf("failed to write example macro: %w", err)
		}
		r.Success("Created " + macroPath)
	}

	if templates {
		written, err := exportTemplates(filepath.Join(dir, "templates"), force)
		if err != nil {
			return fmt.Errorf("failed to copy templates: %w", err)
		}
		r.Success(fmt.Sprintf("Copied %d templates into %s", len(written), filepath.Join(dir, "templates")))
	}
	return nil
}

// copyFS copies every file of src into targetDir. Existing files are kept
// unless force is set.
func copyFS(src fs.FS, targetDir string, force bool) ([]string, error) {
	var written []string
	err := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		targetPath := filepath.Join(targetDir, filepath.FromSlash(path))

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0750)
		}

		if !force {
			if _, err := os.Stat(targetPath); err == nil {
				return nil // Skip existing files
			}
		}

		content, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(targetPath, content, 0600); err != nil {
			return err
		}
		written = append(written, targetPath)
		return nil
	})
	return written, err
}
