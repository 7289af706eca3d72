package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pgdef/pkg/adapters/postgres"
)

// ApplyOutput is the structured form of an apply run.
type ApplyOutput struct {
	RunID      string `json:"run_id" yaml:"run_id"`
	Statements int    `json:"statements" yaml:"statements"`
	Executed   int    `json:"executed" yaml:"executed"`
	Skipped    int    `json:"skipped" yaml:"skipped"`
	DryRun     bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Server     string `json:"server,omitempty" yaml:"server,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply [file|-]",
		Short: "Execute a generated SQL script against PostgreSQL",
		Long: `Execute a script made of rendered SQL definitions.

The script is split at '-- ddl-end --' lines. Commented out statements are
skipped. Statements run in order inside transactions; database and
tablespace DDL runs outside of them. Reads standard input when the file is
'-' or omitted.`,
		Example: `  # Render and apply in one go
  pgdef render schema sales --owner admin | pgdef apply --database-url postgres://localhost/app

  # Show what would run
  pgdef apply schema.sql --dry-run --log-level info`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) > 0 {
				path = args[0]
			}
			return runApply(cmd, path, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the statements without executing them")
	return cmd
}

func runApply(cmd *cobra.Command, path string, dryRun bool) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	script, err := readScript(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	stmts := postgres.SplitScript(script)
	if len(stmts) == 0 {
		r.Warning("no statements to apply")
		return nil
	}

	adapter := postgres.New(cc.Logger)
	out := ApplyOutput{Statements: len(stmts), DryRun: dryRun}

	if !dryRun {
		if cc.Cfg.DatabaseURL == "" {
			return errors.New("no database configured. Use --database-url or PGDEF_DATABASE_URL")
		}
		connectCtx, cancel := context.WithTimeout(cmd.Context(), cc.Cfg.ConnectTimeout)
		defer cancel()
		if err := adapter.Connect(connectCtx, postgres.Config{URL: cc.Cfg.DatabaseURL}); err != nil {
			return err
		}
		defer func() { _ = adapter.Close() }()

		if v, err := adapter.ServerVersion(connectCtx); err == nil {
			out.Server = v
		}
	}

	res, err := adapter.Apply(cmd.Context(), stmts, postgres.ApplyOptions{DryRun: dryRun})
	if res != nil {
		out.RunID = res.RunID
		out.Executed = res.Executed
		out.Skipped = res.Skipped
	}
	if err != nil {
		r.Error(fmt.Sprintf("%d of %d statements applied", out.Executed, out.Statements))
		return err
	}

	if ok, err := r.Structured(out); ok || err != nil {
		return err
	}
	if dryRun {
		for _, stmt := range stmts {
			r.Println(stmt.SQL)
			r.Println(postgres.DelimiterLine)
		}
		r.Success(fmt.Sprintf("dry run: %d statements", out.Statements))
		return nil
	}
	r.Success(fmt.Sprintf("%d statements applied (run %s)", out.Executed, out.RunID))
	return nil
}

func readScript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // G304: the path is a command argument
	}
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}
