// Package postgres applies generated DDL scripts to a PostgreSQL server.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// ErrNotConnected is returned by operations that need a connection.
var ErrNotConnected = errors.New("database connection not established")

// Config holds connection settings. URL, when set, wins over the
// individual fields and may be a postgres:// URL or a key=value DSN.
type Config struct {
	URL      string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
}

// Adapter executes DDL against PostgreSQL through database/sql and the pgx
// driver.
type Adapter struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// New creates an adapter without a connection.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{Logger: logger}
}

// NewWithDB wraps an already open database handle.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Adapter {
	a := New(logger)
	a.DB = db
	return a
}

// Connect opens and pings a connection described by cfg.
func (a *Adapter) Connect(ctx context.Context, cfg Config) error {
	connCfg, err := ParseConfig(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to postgres",
		slog.String("host", connCfg.Host),
		slog.String("database", connCfg.Database))

	db := stdlib.OpenDB(*connCfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	return nil
}

// ParseConfig validates cfg and turns it into a pgx connection config
// without connecting.
func ParseConfig(cfg Config) (*pgx.ConnConfig, error) {
	dsn := cfg.URL
	if dsn == "" {
		dsn = buildPostgresDSN(cfg)
	}
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection settings: %w", err)
	}
	return connCfg, nil
}

// buildPostgresDSN constructs a key=value connection string.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// IsConnected returns true if the database connection is established.
func (a *Adapter) IsConnected() bool {
	return a.DB != nil
}

// Close closes the database connection.
func (a *Adapter) Close() error {
	if a.DB == nil {
		return nil
	}
	a.Logger.Debug("closing database connection")
	return a.DB.Close()
}

// ServerVersion returns the server_version setting.
func (a *Adapter) ServerVersion(ctx context.Context) (string, error) {
	if a.DB == nil {
		return "", ErrNotConnected
	}
	var version string
	if err := a.DB.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}

// ApplyOptions controls Apply.
type ApplyOptions struct {
	// DryRun logs the statements without executing them
	DryRun bool
}

// Result summarizes an Apply call.
type Result struct {
	RunID    string
	Executed int // committed statements; rolled back ones are not counted
	Skipped  int
}

// StatementError reports the statement that failed.
type StatementError struct {
	Statement Statement
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement at line %d failed: %v", e.Statement.Line, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

// Apply executes statements in order. Consecutive transactional statements
// share one transaction; standalone statements (database and tablespace
// DDL) commit the open transaction and run on their own. On failure the
// open transaction is rolled back; statements already committed stay.
func (a *Adapter) Apply(ctx context.Context, statements []Statement, opts ApplyOptions) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	logger := a.Logger.With(slog.String("run_id", res.RunID))

	if opts.DryRun {
		for _, stmt := range statements {
			logger.Info("dry run", slog.Int("line", stmt.Line), slog.Bool("standalone", stmt.Standalone), slog.String("sql", stmt.SQL))
		}
		res.Skipped = len(statements)
		return res, nil
	}
	if a.DB == nil {
		return nil, ErrNotConnected
	}

	var (
		tx      *sql.Tx
		pending int // statements run in tx, not yet committed
	)
	commit := func() error {
		err := tx.Commit()
		tx = nil
		if err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		res.Executed += pending
		pending = 0
		return nil
	}

	for _, stmt := range statements {
		var err error
		if stmt.Standalone {
			if tx != nil {
				if err := commit(); err != nil {
					return res, err
				}
			}
			if _, err = a.DB.ExecContext(ctx, stmt.SQL); err == nil {
				res.Executed++
			}
		} else {
			if tx == nil {
				if tx, err = a.DB.BeginTx(ctx, nil); err != nil {
					return res, fmt.Errorf("failed to begin transaction: %w", err)
				}
			}
			if _, err = tx.ExecContext(ctx, stmt.SQL); err == nil {
				pending++
			}
		}
		if err != nil {
			if tx != nil {
				_ = tx.Rollback()
			}
			return res, &StatementError{Statement: stmt, Err: err}
		}
		logger.Debug("statement applied", slog.Int("line", stmt.Line))
	}

	if tx != nil {
		if err := commit(); err != nil {
			return res, err
		}
	}

	logger.Info("script applied", slog.Int("statements", res.Executed))
	return res, nil
}
