package template

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// checkConcurrency bounds the number of templates parsed at once.
const checkConcurrency = 4

// CheckResult is the outcome of parsing one template.
type CheckResult struct {
	Mode spi.Mode
	Key  string
	File string
	Err  error
}

// OK reports whether the template parsed.
func (r CheckResult) OK() bool { return r.Err == nil }

// Check parses every template available in the given modes, bypassing the
// cache. Parse failures are reported per template; the returned error is
// only set when templates cannot be listed or read.
func (e *Engine) Check(ctx context.Context, modes ...spi.Mode) ([]CheckResult, error) {
	if len(modes) == 0 {
		modes = []spi.Mode{spi.ModeSQL, spi.ModeXML}
	}

	var results []CheckResult
	for _, mode := range modes {
		keys, err := e.Templates(mode)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			results = append(results, CheckResult{Mode: mode, Key: key})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)

	for i := range results {
		res := &results[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name, src, err := e.Source(res.Key, res.Mode)
			if err != nil {
				return fmt.Errorf("checking %s/%s: %w", res.Mode, res.Key, err)
			}
			res.File = name
			_, res.Err = ParseString(src, name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("templates checked", "count", len(results))
	return results, nil
}
