package rewrite

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/phpast"
)

var singleTokenPattern = regexp.MustCompile(`^\S+$`)

// Mapper converts annotation instances into attribute syntax.
type Mapper struct {
	provider  metadata.Provider
	imports   *Imports
	dataParam string
	report    *reporter
}

// NewMapper creates a mapper resolving names through imports. dataParam is
// the constructor parameter that carries raw annotation data and is never
// emitted.
func NewMapper(provider metadata.Provider, imports *Imports, dataParam string) *Mapper {
	if imports == nil {
		imports = &Imports{}
	}
	return &Mapper{
		provider:  provider,
		imports:   imports,
		dataParam: dataParam,
		report:    newReporter("", nil),
	}
}

// Attribute builds the attribute for one annotation instance.
func (m *Mapper) Attribute(a metadata.Annotation) (phpast.Attribute, error) {
	args, err := m.BuildArgs(a)
	if err != nil {
		return phpast.Attribute{}, err
	}
	return phpast.Attribute{Name: m.ClassName(a.Type), Args: args}, nil
}

// BuildArgs returns the named arguments of a, dropping values equal to the
// declared parameter defaults. Keys unknown to the type's constructor fail
// with an ExtraArgumentError.
func (m *Mapper) BuildArgs(a metadata.Annotation) ([]phpast.Arg, error) {
	def, ok := m.provider.Definition(a.Type)
	if !ok {
		def = &metadata.Definition{Name: a.Type}
	}

	var extra []string
	for _, arg := range a.Args {
		if arg.Name == m.dataParam {
			continue
		}
		if _, ok := def.Param(arg.Name); !ok {
			extra = append(extra, arg.Name)
		}
	}
	if len(extra) > 0 {
		return nil, errors.WithStack(&ExtraArgumentError{Type: metadata.NormalizeName(a.Type), Keys: extra})
	}

	var out []phpast.Arg
	for _, arg := range a.Args {
		if arg.Name == m.dataParam {
			continue
		}
		param, _ := def.Param(arg.Name)
		if param.HasDefault && param.Default.Equal(arg.Value) {
			continue
		}
		value, err := m.expr(arg.Name, arg.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, phpast.Arg{Name: arg.Name, Value: value})
	}
	return out, nil
}

func (m *Mapper) expr(key string, v metadata.Value) (phpast.Expr, error) {
	switch v.Kind {
	case metadata.Null:
		return phpast.NullLit{}, nil
	case metadata.Bool:
		return phpast.BoolLit{Value: v.Bool}, nil
	case metadata.Int:
		return phpast.IntLit{Value: v.Int}, nil
	case metadata.Float:
		return phpast.FloatLit{Value: v.Float}, nil
	case metadata.String:
		if m.isClassReference(key, v.Str) {
			return phpast.ClassConst{Class: guessName(v.Str)}, nil
		}
		return phpast.StringLit{Value: v.Str}, nil
	case metadata.List, metadata.Map:
		arr := phpast.ArrayLit{}
		for _, entry := range v.Entries {
			item := phpast.ArrayItem{}
			if entry.Key != nil {
				keyExpr, err := m.expr("", *entry.Key)
				if err != nil {
					return nil, err
				}
				item.Key = keyExpr
			}
			value, err := m.expr("", entry.Value)
			if err != nil {
				return nil, err
			}
			item.Value = value
			arr.Items = append(arr.Items, item)
		}
		return arr, nil
	case metadata.Instance:
		if v.Annotation == nil {
			return phpast.NullLit{}, nil
		}
		args, err := m.BuildArgs(*v.Annotation)
		if err != nil {
			return nil, err
		}
		return phpast.New{Class: m.ClassName(v.Annotation.Type), Args: args}, nil
	case metadata.Config:
		m.report.warn(key, "configuration value "+v.Str+" is not supported in attributes, using its default")
		if v.Default == nil {
			return phpast.NullLit{}, nil
		}
		return m.expr(key, *v.Default)
	}
	return nil, errors.AssertionFailedf("unknown value kind %s", v.Kind)
}

func (m *Mapper) isClassReference(key, value string) bool {
	return strings.Contains(strings.ToLower(key), "class") &&
		singleTokenPattern.MatchString(value) &&
		m.provider.TypeExists(value)
}

// ClassName returns the name to write for fqcn: its import alias when the
// file imports it, otherwise the fully-qualified name.
func (m *Mapper) ClassName(fqcn string) phpast.Name {
	if local, ok := m.imports.Local(fqcn); ok {
		return guessName(local)
	}
	return guessName(fqcn)
}

// guessName writes names containing a namespace separator fully qualified.
func guessName(name string) phpast.Name {
	if strings.Contains(name, `\`) {
		return phpast.Name{Text: strings.TrimLeft(name, `\`), FullyQualified: true}
	}
	return phpast.Name{Text: name}
}
