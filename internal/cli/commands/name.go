package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgdef/internal/cli/output"
	"github.com/leapstack-labs/pgdef/pkg/ident"
)

// NameResult describes one checked identifier.
type NameResult struct {
	Name      string `json:"name" yaml:"name"`
	Valid     bool   `json:"valid" yaml:"valid"`
	Formatted string `json:"formatted,omitempty" yaml:"formatted,omitempty"`
	Quoted    bool   `json:"quoted" yaml:"quoted"`
}

// NewNameCommand creates the name command and its subcommands.
func NewNameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Validate and format PostgreSQL identifiers",
	}
	cmd.AddCommand(newNameCheckCommand(), newNameFormatCommand())
	return cmd
}

func newNameCheckCommand() *cobra.Command {
	var operator bool

	cmd := &cobra.Command{
		Use:   "check <name>...",
		Short: "Report whether names are valid identifiers",
		Long: `Check each name against PostgreSQL identifier rules.

A name is valid when it has at most 63 bytes and contains only ASCII
letters, digits, underscores and two or three byte UTF-8 characters.
Names that are already quoted or schema qualified are accepted as they are.
The command fails when any name is invalid.`,
		Example: `  pgdef name check orders "Order Items"
  pgdef name check --output json $(cat names.txt)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := NewCommandContext(cmd).Renderer
			results := checkNames(args, operator)

			if ok, err := r.Structured(results); ok || err != nil {
				if err != nil {
					return err
				}
				return invalidNames(results)
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Writer())
			if r.EffectiveMode() == output.ModeMarkdown {
				t.SetStyle(table.StyleDefault)
			} else {
				t.SetStyle(table.StyleLight)
			}
			t.AppendHeader(table.Row{"", "Name", "Formatted"})
			styles := r.Styles()
			for _, res := range results {
				mark := styles.StatusSuccess.String()
				if !res.Valid {
					mark = styles.StatusFailed.String()
				}
				t.AppendRow(table.Row{mark, res.Name, res.Formatted})
			}
			if r.EffectiveMode() == output.ModeMarkdown {
				t.RenderMarkdown()
			} else {
				t.Render()
			}
			return invalidNames(results)
		},
	}

	cmd.Flags().BoolVar(&operator, "operator", false, "Treat names as operator symbols")
	return cmd
}

func newNameFormatCommand() *cobra.Command {
	var operator bool

	cmd := &cobra.Command{
		Use:   "format <name>...",
		Short: "Print names as SQL identifiers, quoted where needed",
		Example: `  pgdef name format public.orders
  pgdef name format --operator "+"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := NewCommandContext(cmd).Renderer
			results := checkNames(args, operator)
			if err := invalidNames(results); err != nil {
				return err
			}
			if ok, err := r.Structured(results); ok || err != nil {
				return err
			}
			for _, res := range results {
				r.Println(res.Formatted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&operator, "operator", false, "Treat names as operator symbols")
	return cmd
}

func checkNames(names []string, operator bool) []NameResult {
	results := make([]NameResult, 0, len(names))
	for _, name := range names {
		res := NameResult{Name: name}
		if formatted := ident.FormatName(name, operator); formatted != "" {
			res.Valid = true
			res.Formatted = formatted
			res.Quoted = formatted != name
		}
		results = append(results, res)
	}
	return results
}

func invalidNames(results []NameResult) error {
	var invalid int
	for _, res := range results {
		if !res.Valid {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d names are invalid", invalid, len(results))
	}
	return nil
}
