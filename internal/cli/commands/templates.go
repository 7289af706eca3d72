package commands

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgdef/internal/cli/output"
	"github.com/leapstack-labs/pgdef/internal/template"
	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// TemplateList is the structured form of the templates listing.
type TemplateList struct {
	Mode string   `json:"mode" yaml:"mode"`
	Keys []string `json:"keys" yaml:"keys"`
}

// TemplateCheck is the structured form of one check result.
type TemplateCheck struct {
	Mode  string `json:"mode" yaml:"mode"`
	Key   string `json:"key" yaml:"key"`
	File  string `json:"file" yaml:"file"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrTemplateCheckFailed is returned when at least one template does not parse.
var ErrTemplateCheckFailed = errors.New("template check failed")

// NewTemplatesCommand creates the templates command.
func NewTemplatesCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List, show and check object templates",
		Long: `List the template keys available in the current mode, merging
--templates-dir overrides with the builtin set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			eng, err := cc.NewEngine()
			if err != nil {
				return err
			}

			modes := []spi.Mode{cc.Cfg.Mode}
			if all {
				modes = []spi.Mode{spi.ModeSQL, spi.ModeXML}
			}
			lists := make([]TemplateList, 0, len(modes))
			for _, mode := range modes {
				keys, err := eng.Templates(mode)
				if err != nil {
					return err
				}
				lists = append(lists, TemplateList{Mode: mode.String(), Keys: keys})
			}

			r := cc.Renderer
			if ok, err := r.Structured(lists); ok || err != nil {
				return err
			}
			for _, l := range lists {
				r.Header(2, fmt.Sprintf("%s templates", l.Mode))
				for _, key := range l.Keys {
					if r.EffectiveMode() == output.ModeMarkdown {
						r.Println("- " + key)
					} else {
						r.Println("  " + key)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "List templates of every mode")
	cmd.AddCommand(newTemplatesShowCommand(), newTemplatesCheckCommand())
	return cmd
}

func newTemplatesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Print the template used for a key",
		Long: `Print the source of the template rendering <key> in the current mode.
Keys without a template of their own show the fallback template.`,
		Example: `  pgdef templates show schema
  pgdef templates show table --mode xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			eng, err := cc.NewEngine()
			if err != nil {
				return err
			}
			name, src, err := eng.Source(args[0], cc.Cfg.Mode)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println(output.FormatHeader(1, name))
				r.Println("")
				r.Println(output.FormatCodeBlock(cc.Cfg.Mode.String(), src))
				return nil
			}
			r.Printf("%s", src)
			return nil
		},
	}
}

func newTemplatesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Parse every template and report syntax errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			eng, err := cc.NewEngine()
			if err != nil {
				return err
			}
			results, err := eng.Check(cmd.Context())
			if err != nil {
				return err
			}

			checks := make([]TemplateCheck, 0, len(results))
			var failed int
			for _, res := range results {
				c := TemplateCheck{Mode: res.Mode.String(), Key: res.Key, File: res.File}
				if !res.OK() {
					c.Error = res.Err.Error()
					failed++
				}
				checks = append(checks, c)
			}

			r := cc.Renderer
			if ok, err := r.Structured(checks); ok || err != nil {
				if err != nil {
					return err
				}
				return checkError(failed)
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"", "Template", "Error"})
			styles := r.Styles()
			for _, c := range checks {
				mark := styles.StatusSuccess.String()
				if c.Error != "" {
					mark = styles.StatusFailed.String()
				}
				t.AppendRow(table.Row{mark, c.File, c.Error})
			}
			if r.EffectiveMode() == output.ModeMarkdown {
				t.RenderMarkdown()
			} else {
				t.Render()
			}
			if failed == 0 {
				r.Success(fmt.Sprintf("%d templates parsed", len(checks)))
			}
			return checkError(failed)
		},
	}
}

func checkError(failed int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d templates have errors", ErrTemplateCheckFailed, failed)
}

// exportTemplates copies the builtin templates into dir, skipping files
// that exist unless force is set. It returns the files written.
func exportTemplates(dir string, force bool) ([]string, error) {
	builtin, err := template.Builtin()
	if err != nil {
		return nil, err
	}
	return copyFS(builtin, dir, force)
}
