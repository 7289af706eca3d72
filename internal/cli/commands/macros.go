package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgdef/internal/cli/output"
	"github.com/leapstack-labs/pgdef/internal/macro"
)

// NewMacrosCommand creates the macros command.
func NewMacrosCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "macros",
		Short: "List the Starlark helper modules visible to templates",
		Long: `List the modules in the macros directory and the functions they export.

Each file <name>.star becomes a global <name> in every template, so
{{ names.qualify(schema, name) }} calls qualify from names.star. Modules
are loaded to make sure they execute and do not shadow template names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			namespaces, err := macro.ParseDir(cc.Cfg.MacrosDir)
			if err != nil {
				return err
			}
			if _, err := macro.LoadAndRegister(cc.Cfg.MacrosDir); err != nil {
				return err
			}

			r := cc.Renderer
			if ok, err := r.Structured(namespaces); ok || err != nil {
				return err
			}
			if len(namespaces) == 0 {
				r.Println(r.Styles().Muted.Render(fmt.Sprintf("No macros in %s", cc.Cfg.MacrosDir)))
				return nil
			}

			md := r.EffectiveMode() == output.ModeMarkdown
			for _, ns := range namespaces {
				r.Header(2, ns.Name)
				for _, fn := range ns.Functions {
					sig := ns.Name + "." + fn.Signature()
					if md {
						r.Printf("- `%s`\n", sig)
					} else {
						r.Println("  " + r.Styles().Code.Render(sig))
					}
					if verbose && fn.HasDocstring() {
						r.Println("      " + fn.Docstring)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show docstrings")
	return cmd
}
