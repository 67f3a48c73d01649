package rewrite

import (
	"bytes"
	"sort"

	"go.uber.org/zap"

	"github.com/Someblueman/phpattr/internal/docblock"
	"github.com/Someblueman/phpattr/internal/phpast"
	"github.com/Someblueman/phpattr/internal/printer"
)

const (
	StrategyPatch   = "patch"
	StrategyReprint = "reprint"
)

// Strategy turns the visitor's changes into the final text of a file.
type Strategy interface {
	Name() string
	NewSink(f *phpast.File, log *zap.SugaredLogger) Sink
}

// Sink collects the changes of one file generation.
type Sink interface {
	Record(c Change) error
	// Abort applies the strategy's abort policy to the changes recorded so
	// far.
	Abort()
	Finish() (Output, error)
}

// Output is the text produced by a sink.
type Output struct {
	Source   []byte
	Modified bool
	Warnings []string
}

// StrategyRegistry stores strategies by name.
type StrategyRegistry struct {
	strategies map[string]Strategy
}

// NewStrategyRegistry constructs an empty registry.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]Strategy)}
}

// Register adds or replaces a strategy.
func (r *StrategyRegistry) Register(s Strategy) {
	if r == nil || s == nil {
		return
	}
	r.strategies[s.Name()] = s
}

// StrategyFor returns the strategy registered under name.
func (r *StrategyRegistry) StrategyFor(name string) (Strategy, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns registered strategy names sorted lexicographically.
func (r *StrategyRegistry) Names() []string {
	if r == nil || len(r.strategies) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultStrategyRegistry returns the built-in strategies.
func DefaultStrategyRegistry() *StrategyRegistry {
	registry := NewStrategyRegistry()
	registry.Register(PatchStrategy{})
	registry.Register(ReprintStrategy{})
	return registry
}

// PatchStrategy edits the original text through an edit queue. Changes
// recorded before an abort are kept.
type PatchStrategy struct{}

func (PatchStrategy) Name() string { return StrategyPatch }

func (PatchStrategy) NewSink(f *phpast.File, log *zap.SugaredLogger) Sink {
	return &patchSink{file: f, queue: &Queue{}, patcher: NewPatcher(f.Name, log)}
}

type patchSink struct {
	file    *phpast.File
	queue   *Queue
	patcher *Patcher
}

func (s *patchSink) Record(c Change) error {
	src := s.file.Source
	rec := EditRecord{
		Kind:       c.Kind,
		File:       s.file,
		Anchor:     c.Anchor,
		Comment:    c.Comment,
		HasComment: c.CommentSet,
		Prepend:    c.Prepend,
	}
	if doc := c.Decl.DocComment(); doc != nil {
		rec.Doc = doc.Span
	}
	if len(c.Attrs) > 0 {
		rec.Attributes = printer.Attributes(c.Attrs)
	}
	if p := c.Promotion; p != nil {
		m := p.Method
		indent := printer.LineIndent(src, m.Body.Start)
		rec.Replacements = append(rec.Replacements, Replacement{
			Start: m.ParamsSpan.Start,
			End:   m.ParamsSpan.End,
			Text:  printer.Params(src, p.Params, indent),
		})
		if p.EraseBody && m.BodySpan.Valid() {
			rec.Replacements = append(rec.Replacements, Replacement{
				Start: m.BodySpan.Start,
				End:   m.BodySpan.End,
				Text:  "{\n" + indent + "}",
			})
		}
	}
	if prop, ok := c.Decl.(*phpast.Property); ok && c.PropertyType != "" && len(prop.NameSpans) > 0 {
		if prop.TypeSpan.Valid() {
			rec.Replacements = append(rec.Replacements, Replacement{Start: prop.TypeSpan.Start, End: prop.TypeSpan.End, Text: c.PropertyType})
		} else {
			at := prop.NameSpans[0].Start
			rec.Replacements = append(rec.Replacements, Replacement{Start: at, End: at, Text: c.PropertyType + " "})
		}
	}
	return s.queue.Push(rec)
}

func (s *patchSink) Abort() {}

func (s *patchSink) Finish() (Output, error) {
	pending := s.queue.Len()
	text, err := s.patcher.Apply(s.file, s.queue)
	if err != nil {
		return Output{}, err
	}
	return Output{
		Source:   text,
		Modified: pending > 0 && !bytes.Equal(text, s.file.Source),
		Warnings: s.patcher.Warnings(),
	}, nil
}

// ReprintStrategy mutates the syntax model and prints the whole file.
// An abort discards every recorded change.
type ReprintStrategy struct{}

func (ReprintStrategy) Name() string { return StrategyReprint }

func (ReprintStrategy) NewSink(f *phpast.File, _ *zap.SugaredLogger) Sink {
	return &reprintSink{file: f}
}

type reprintSink struct {
	file    *phpast.File
	changes []Change
	aborted bool
}

func (s *reprintSink) Record(c Change) error {
	if s.aborted {
		return nil
	}
	s.changes = append(s.changes, c)
	return nil
}

func (s *reprintSink) Abort() {
	s.aborted = true
	s.changes = nil
}

func (s *reprintSink) Finish() (Output, error) {
	if len(s.changes) == 0 {
		return Output{Source: s.file.Source}, nil
	}
	for _, c := range s.changes {
		s.mutate(c)
	}
	text := []byte(docblock.WithLineEnding(string(printer.File(s.file)), docblock.LineEnding(s.file.Source)))
	return Output{Source: text, Modified: !bytes.Equal(text, s.file.Source)}, nil
}

func (s *reprintSink) mutate(c Change) {
	c.Decl.AddAttributes(c.Attrs...)
	if doc := c.Decl.DocComment(); c.CommentSet && doc != nil {
		indent := printer.LineIndent(s.file.Source, doc.Span.Start)
		text := docblock.CleanCommentsIndent(c.Comment, indent, false)
		if text == "" {
			c.Decl.SetDocComment(nil)
		} else {
			c.Decl.SetDocComment(&phpast.Comment{Span: doc.Span, Text: text})
		}
	}
	if p := c.Promotion; p != nil {
		p.Method.Params = p.Params
		p.Method.ParamsChanged = true
		p.Method.EraseBody = p.EraseBody
	}
	if prop, ok := c.Decl.(*phpast.Property); ok && c.PropertyType != "" {
		prop.NewType = c.PropertyType
	}
}
