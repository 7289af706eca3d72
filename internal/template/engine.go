package template

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.starlark.net/starlark"

	starctx "github.com/leapstack-labs/pgdef/internal/starlark"
	"github.com/leapstack-labs/pgdef/pkg/spi"
)

//go:embed schemas
var builtinSchemas embed.FS

// Builtin returns the templates shipped with the engine, laid out as
// <mode>/<key>.<ext>.
func Builtin() (fs.FS, error) {
	sub, err := fs.Sub(builtinSchemas, "schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to open builtin templates: %w", err)
	}
	return sub, nil
}

// DefaultCacheSize is the number of parsed templates kept in memory.
const DefaultCacheSize = 128

// FallbackTemplate is rendered for keys without a template of their own.
const FallbackTemplate = "object"

// GlobalTemplateName is the global holding the key being rendered, unless
// the attributes define it.
const GlobalTemplateName = "template_name"

// ErrTemplateNotFound is returned when neither the requested template nor
// the fallback exists for a mode.
var ErrTemplateNotFound = errors.New("template not found")

// EngineConfig holds engine configuration.
type EngineConfig struct {
	// Dir is a directory whose <mode>/<key>.<ext> files override the
	// builtin templates (optional)
	Dir string
	// FS is an additional template source consulted before Dir (optional)
	FS fs.FS
	// CacheSize bounds the parsed template cache (DefaultCacheSize if zero)
	CacheSize int
	// Globals are extra values visible to every template
	Globals starlark.StringDict
	// MaxSteps caps Starlark execution steps per expression (0 = unlimited)
	MaxSteps uint64
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine renders schema object templates. It implements spi.TemplateEngine.
//
// Templates are looked up as <mode>/<key>.<ext> in each source in turn:
// EngineConfig.FS, EngineConfig.Dir, then the builtin set. A key without a
// template falls back to <mode>/object.<ext>.
type Engine struct {
	dir      string
	sources  []fs.FS
	cache    *lru.Cache[string, *Template]
	globals  starlark.StringDict
	maxSteps uint64
	logger   *slog.Logger

	// mu guards ignoreUnknown, which applies to the next Render only
	mu            sync.Mutex
	ignoreUnknown bool
}

var _ spi.TemplateEngine = (*Engine)(nil)

// NewEngine creates an engine from cfg.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Template](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create template cache: %w", err)
	}

	builtin, err := Builtin()
	if err != nil {
		return nil, err
	}

	var sources []fs.FS
	if cfg.FS != nil {
		sources = append(sources, cfg.FS)
	}
	if cfg.Dir != "" {
		info, err := os.Stat(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to access templates directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("templates path is not a directory: %s", cfg.Dir)
		}
		sources = append(sources, os.DirFS(cfg.Dir))
	}
	sources = append(sources, builtin)

	logger.Debug("template engine ready", "dir", cfg.Dir, "sources", len(sources), "cache_size", size)

	return &Engine{
		dir:      cfg.Dir,
		sources:  sources,
		cache:    cache,
		globals:  cfg.Globals,
		maxSteps: cfg.MaxSteps,
		logger:   logger,
	}, nil
}

// SetIgnoreUnknownAttributes makes undefined names render as empty strings
// during the next Render call.
func (e *Engine) SetIgnoreUnknownAttributes(ignore bool) {
	e.mu.Lock()
	e.ignoreUnknown = ignore
	e.mu.Unlock()
}

// ResetParserState clears the pending ignore-unknown request.
func (e *Engine) ResetParserState() {
	e.SetIgnoreUnknownAttributes(false)
}

// Render expands the template for key in mode against attrs.
func (e *Engine) Render(key string, attrs map[string]string, mode spi.Mode) (string, error) {
	e.mu.Lock()
	ignore := e.ignoreUnknown
	e.ignoreUnknown = false
	e.mu.Unlock()

	tmpl, err := e.load(key, mode)
	if err != nil {
		return "", err
	}

	globals := make(starlark.StringDict, len(e.globals)+1)
	for k, v := range e.globals {
		globals[k] = v
	}
	globals[GlobalTemplateName] = starlark.String(key)

	ctx := starctx.NewExecutionContext(attrs,
		starctx.WithGlobals(globals),
		starctx.WithIgnoreUnknown(ignore),
		starctx.WithMaxSteps(e.maxSteps),
	)

	out, err := Render(tmpl, ctx)
	if err != nil {
		var undef *starctx.UndefinedError
		if errors.As(err, &undef) {
			return "", &spi.MissingAttributeError{
				Attribute: undef.Name,
				Template:  tmpl.File,
				Line:      undef.Line,
			}
		}
		var renderErr *RenderError
		if errors.As(err, &renderErr) {
			renderErr.Key = key
			renderErr.Mode = mode.String()
		}
		return "", err
	}

	e.logger.Debug("template rendered", "template", tmpl.File, "key", key, "ignore_unknown", ignore)
	return out, nil
}

// Templates lists the template keys available for mode across all sources.
func (e *Engine) Templates(mode spi.Mode) ([]string, error) {
	ext := "." + mode.Extension()
	seen := make(map[string]bool)

	for _, src := range e.sources {
		entries, err := fs.ReadDir(src, mode.String())
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s templates: %w", mode, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
				continue
			}
			seen[strings.TrimSuffix(entry.Name(), ext)] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// Source returns the raw text of the template rendered for key in mode.
func (e *Engine) Source(key string, mode spi.Mode) (string, string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || !fs.ValidPath(key) {
		return "", "", fmt.Errorf("%w: invalid key %q", ErrTemplateNotFound, key)
	}
	for _, name := range e.candidates(key, mode) {
		data, found, err := e.read(name)
		if err != nil {
			return "", "", err
		}
		if found {
			return name, string(data), nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path.Join(mode.String(), key+"."+mode.Extension()))
}

// Purge drops every cached template, so edited files are parsed again.
func (e *Engine) Purge() {
	e.cache.Purge()
}

func (e *Engine) load(key string, mode spi.Mode) (*Template, error) {
	cacheKey := mode.String() + "/" + key
	if tmpl, ok := e.cache.Get(cacheKey); ok {
		return tmpl, nil
	}

	name, src, err := e.Source(key, mode)
	if err != nil {
		return nil, err
	}

	tmpl, err := ParseString(src, name)
	if err != nil {
		return nil, err
	}

	e.cache.Add(cacheKey, tmpl)
	e.logger.Debug("template loaded", "key", key, "path", name)
	return tmpl, nil
}

// candidates lists the paths tried for key, most specific first.
func (e *Engine) candidates(key string, mode spi.Mode) []string {
	ext := "." + mode.Extension()
	names := []string{path.Join(mode.String(), key+ext)}
	if key != FallbackTemplate {
		names = append(names, path.Join(mode.String(), FallbackTemplate+ext))
	}
	return names
}

// read returns the content of name from the first source holding it.
func (e *Engine) read(name string) ([]byte, bool, error) {
	for _, src := range e.sources {
		data, err := fs.ReadFile(src, name)
		if err == nil {
			return data, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("failed to read template %s: %w", name, err)
		}
	}
	return nil, false, nil
}
