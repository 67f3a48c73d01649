package rewrite

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/phpast"
)

// Options configures a file generation.
type Options struct {
	// Strategy names a strategy of Registry.
	Strategy string
	Registry *StrategyRegistry
	// PromoteCommentTypes writes @var types into untyped property slots.
	PromoteCommentTypes bool
	// AnnotationBase is the parent class of annotation definitions whose
	// constructors are promoted.
	AnnotationBase string
	// DataParam is the legacy raw-data constructor parameter.
	DataParam string
	Logger    *zap.SugaredLogger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Strategy:       StrategyPatch,
		AnnotationBase: `Imi\Bean\Annotation\Base`,
		DataParam:      "__data",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Strategy == "" {
		o.Strategy = def.Strategy
	}
	if o.Registry == nil {
		o.Registry = DefaultStrategyRegistry()
	}
	if o.AnnotationBase == "" {
		o.AnnotationBase = def.AnnotationBase
	}
	if o.DataParam == "" {
		o.DataParam = def.DataParam
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

// Result is the outcome of one file generation.
type Result struct {
	Path     string
	Modified bool
	// Source is the final text; it equals the input when Modified is false.
	Source      []byte
	Aborted     bool
	AbortReason string
	Warnings    []string
}

// Generator rewrites one file. The result is computed once and cached.
type Generator struct {
	path     string
	src      []byte
	provider metadata.Provider
	opts     Options

	once   sync.Once
	result *Result
	err    error
}

// NewGenerator creates a generator reading path on first use.
func NewGenerator(path string, provider metadata.Provider, opts Options) *Generator {
	return &Generator{path: path, provider: provider, opts: opts.withDefaults()}
}

// NewSourceGenerator creates a generator over in-memory source.
func NewSourceGenerator(name string, src []byte, provider metadata.Provider, opts Options) *Generator {
	return &Generator{path: name, src: src, provider: provider, opts: opts.withDefaults()}
}

// Generate runs the rewrite and returns its cached result. A hard abort
// caused by unmappable annotation data returns the policy-filtered result
// together with an error marked ErrAbort.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	g.once.Do(func() {
		g.result, g.err = g.generate(ctx)
	})
	return g.result, g.err
}

func (g *Generator) generate(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := g.src
	if src == nil {
		data, err := os.ReadFile(g.path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", g.path)
		}
		src = data
	}

	strategy, ok := g.opts.Registry.StrategyFor(g.opts.Strategy)
	if !ok {
		return nil, errors.Newf("unknown strategy %q (known: %s)", g.opts.Strategy, strings.Join(g.opts.Registry.Names(), ", "))
	}

	f, err := phpast.Parse(g.path, src)
	if err != nil {
		return nil, err
	}

	report := newReporter(g.path, g.opts.Logger)
	sink := strategy.NewSink(f, g.opts.Logger)
	v := newVisitor(ctx, f, g.provider, g.opts, sink, report)

	var abortErr error
	if err := phpast.Walk(v, f); err != nil {
		var extra *ExtraArgumentError
		if !errors.As(err, &extra) {
			return nil, errors.Wrapf(err, "rewrite %s", g.path)
		}
		abortErr = newAbortError(g.path, err)
	}

	out, err := sink.Finish()
	if err != nil {
		return nil, errors.Wrapf(err, "finish %s", g.path)
	}
	result := &Result{
		Path:        g.path,
		Modified:    out.Modified,
		Source:      out.Source,
		Aborted:     v.state.Aborted(),
		AbortReason: v.abortReason,
		Warnings:    append(report.warnings, out.Warnings...),
	}
	if !result.Modified {
		result.Source = src
	}
	return result, abortErr
}
