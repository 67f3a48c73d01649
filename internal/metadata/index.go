package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Document is the serialized form of a metadata index.
type Document struct {
	Definitions  []Definition  `yaml:"definitions" msgpack:"definitions"`
	Declarations []Declaration `yaml:"declarations" msgpack:"declarations"`
	Types        []string      `yaml:"types" msgpack:"types"`
}

// ParseDocument validates and decodes a YAML index document.
func ParseDocument(data []byte) (*Document, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode metadata index")
	}
	return &doc, nil
}

// Index is an in-memory Provider built from a Document. It is immutable
// after construction.
type Index struct {
	decls   map[string]*Declaration
	defs    map[string]*Definition
	types   map[string]struct{}
	imports map[string]string
}

var _ Provider = (*Index)(nil)

// NewIndex builds an Index, dropping annotations excluded by opts.
func NewIndex(doc *Document, opts Options) *Index {
	ix := &Index{
		decls:   make(map[string]*Declaration),
		defs:    make(map[string]*Definition),
		types:   make(map[string]struct{}),
		imports: make(map[string]string, len(opts.GlobalImports)),
	}
	for alias, name := range opts.GlobalImports {
		ix.imports[strings.TrimSpace(alias)] = NormalizeName(name)
	}
	if doc == nil {
		return ix
	}

	ignore := newIgnoreFilter(opts)
	for i := range doc.Definitions {
		def := doc.Definitions[i]
		def.Name = NormalizeName(def.Name)
		ix.defs[nameKey(def.Name)] = &def
		ix.types[nameKey(def.Name)] = struct{}{}
	}
	for i := range doc.Declarations {
		decl := filterDeclaration(doc.Declarations[i], ignore)
		ix.decls[nameKey(decl.Name)] = decl
		ix.types[nameKey(decl.Name)] = struct{}{}
	}
	for _, name := range doc.Types {
		ix.types[nameKey(name)] = struct{}{}
	}
	return ix
}

// Load reads an index from a YAML or msgpack file.
func Load(path string, opts Options) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read metadata index %s", path)
	}
	var doc *Document
	if isCompiledPath(path) {
		doc, err = decodeCompiled(data)
	} else {
		doc, err = ParseDocument(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load metadata index %s", path)
	}
	return NewIndex(doc, opts), nil
}

// Lookup implements Provider.
func (ix *Index) Lookup(fqcn string) (*Declaration, bool) {
	decl, ok := ix.decls[nameKey(fqcn)]
	return decl, ok
}

// Definition implements Provider.
func (ix *Index) Definition(typeName string) (*Definition, bool) {
	def, ok := ix.defs[nameKey(typeName)]
	return def, ok
}

// TypeExists implements Provider.
func (ix *Index) TypeExists(name string) bool {
	_, ok := ix.types[nameKey(name)]
	return ok
}

// Imports implements Provider.
func (ix *Index) Imports() map[string]string {
	return ix.imports
}

// Declarations returns the number of indexed declarations.
func (ix *Index) Declarations() int {
	return len(ix.decls)
}

func filterDeclaration(decl Declaration, ignore ignoreFilter) *Declaration {
	out := &Declaration{
		Name:   NormalizeName(decl.Name),
		Parent: NormalizeName(decl.Parent),
		Class:  ignore.apply(decl.Class),
	}
	out.Methods = filterMembers(decl.Methods, ignore)
	out.Properties = filterMembers(decl.Properties, ignore)
	out.Constants = filterMembers(decl.Constants, ignore)
	return out
}

func filterMembers(in map[string][]Annotation, ignore ignoreFilter) map[string][]Annotation {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]Annotation, len(in))
	for name, anns := range in {
		out[strings.TrimPrefix(name, "$")] = ignore.apply(anns)
	}
	return out
}

type ignoreFilter struct {
	names      map[string]struct{}
	namespaces []string
}

func newIgnoreFilter(opts Options) ignoreFilter {
	f := ignoreFilter{names: make(map[string]struct{}, len(opts.IgnoredNames))}
	for _, name := range opts.IgnoredNames {
		f.names[nameKey(name)] = struct{}{}
	}
	for _, ns := range opts.IgnoredNamespaces {
		ns = strings.TrimSuffix(nameKey(ns), `\`)
		if ns != "" {
			f.namespaces = append(f.namespaces, ns+`\`)
		}
	}
	return f
}

func (f ignoreFilter) ignored(typeName string) bool {
	key := nameKey(typeName)
	if _, ok := f.names[key]; ok {
		return true
	}
	if _, ok := f.names[strings.ToLower(ShortName(typeName))]; ok {
		return true
	}
	for _, ns := range f.namespaces {
		if strings.HasPrefix(key, ns) {
			return true
		}
	}
	return false
}

func (f ignoreFilter) apply(anns []Annotation) []Annotation {
	if len(anns) == 0 {
		return nil
	}
	out := make([]Annotation, 0, len(anns))
	for _, ann := range anns {
		if f.ignored(ann.Type) {
			continue
		}
		out = append(out, ann)
	}
	return out
}

func isCompiledPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mp":
		return true
	}
	return false
}

func decodeCompiled(data []byte) (*Document, error) {
	var compiled compiledIndex
	if err := msgpack.Unmarshal(data, &compiled); err != nil {
		return nil, errors.Wrap(err, "decode compiled index")
	}
	if compiled.Version != compiledIndexVersion {
		return nil, errors.Newf("compiled index version %d, want %d", compiled.Version, compiledIndexVersion)
	}
	return &compiled.Document, nil
}
