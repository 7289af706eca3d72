package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgdef/internal/cli/output"
	"github.com/leapstack-labs/pgdef/pkg/codedef"
	"github.com/leapstack-labs/pgdef/pkg/object"
	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// TypeInfo describes an object type for listing.
type TypeInfo struct {
	Key          string   `json:"key" yaml:"key"`
	Name         string   `json:"name" yaml:"name"`
	Keyword      string   `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Associations []string `json:"associations" yaml:"associations"`
	SQL          bool     `json:"sql" yaml:"sql"`
	XML          bool     `json:"xml" yaml:"xml"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List object types and the associations they accept",
		Long: `List every schema object type with its template key, DDL keyword, the
associations it accepts and whether it has a SQL or XML definition.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			infos := typeInfos()

			if ok, err := r.Structured(infos); ok || err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Key", "Name", "Keyword", "Associations", "SQL", "XML"})
			for _, info := range infos {
				t.AppendRow(table.Row{
					info.Key, info.Name, info.Keyword,
					strings.Join(info.Associations, ", "),
					yesNo(info.SQL), yesNo(info.XML),
				})
			}
			if r.EffectiveMode() == output.ModeMarkdown {
				t.RenderMarkdown()
			} else {
				t.Render()
			}
			return nil
		},
	}
}

func typeInfos() []TypeInfo {
	types := object.ObjectTypes()
	infos := make([]TypeInfo, 0, len(types))
	for _, t := range types {
		info := TypeInfo{
			Key:          t.String(),
			Name:         t.DisplayName(),
			Associations: []string{},
			SQL:          codedef.Applicable(t, spi.ModeSQL),
			XML:          codedef.Applicable(t, spi.ModeXML),
		}
		if kw, err := t.Keyword(); err == nil {
			info.Keyword = kw
		}
		if caps := object.Capabilities(t); caps != 0 {
			info.Associations = strings.Split(caps.String(), "|")
		}
		infos = append(infos, info)
	}
	return infos
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
