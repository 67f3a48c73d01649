package metadata

import "strings"

// Annotation is a decoded annotation instance: a fully-qualified type name
// and its keyed arguments in declaration order.
type Annotation struct {
	Type string `msgpack:"type" yaml:"type"`
	Args []Arg  `msgpack:"args,omitempty" yaml:"args,omitempty"`
}

// Arg is one keyed annotation argument.
type Arg struct {
	Name  string `msgpack:"name" yaml:"name"`
	Value Value  `msgpack:"value" yaml:"value"`
}

// Arg returns the argument named name.
func (a Annotation) Arg(name string) (Value, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return Value{}, false
}

// Equal compares type and arguments in order.
func (a Annotation) Equal(o Annotation) bool {
	if !strings.EqualFold(a.Type, o.Type) || len(a.Args) != len(o.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i].Name != o.Args[i].Name || !a.Args[i].Value.Equal(o.Args[i].Value) {
			return false
		}
	}
	return true
}

// Param is one constructor parameter of an annotation type.
type Param struct {
	Name       string `msgpack:"name" yaml:"name"`
	HasDefault bool   `msgpack:"has_default" yaml:"has_default"`
	Default    Value  `msgpack:"default" yaml:"default"`
}

// Definition describes an annotation type: whether it is a genuine metadata
// type and its canonical constructor parameter list.
type Definition struct {
	Name     string  `msgpack:"name" yaml:"name"`
	Metadata bool    `msgpack:"metadata" yaml:"metadata"`
	Params   []Param `msgpack:"params,omitempty" yaml:"params,omitempty"`
}

// Param returns the constructor parameter named name.
func (d *Definition) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Declaration holds the annotations found on one class-like declaration.
type Declaration struct {
	Name       string                  `msgpack:"name" yaml:"name"`
	Parent     string                  `msgpack:"parent,omitempty" yaml:"parent,omitempty"`
	Class      []Annotation            `msgpack:"class,omitempty" yaml:"class,omitempty"`
	Methods    map[string][]Annotation `msgpack:"methods,omitempty" yaml:"methods,omitempty"`
	Properties map[string][]Annotation `msgpack:"properties,omitempty" yaml:"properties,omitempty"`
	Constants  map[string][]Annotation `msgpack:"constants,omitempty" yaml:"constants,omitempty"`
}

// Method returns the annotations of a method. Method names compare
// case-insensitively.
func (d *Declaration) Method(name string) []Annotation {
	if anns, ok := d.Methods[name]; ok {
		return anns
	}
	for key, anns := range d.Methods {
		if strings.EqualFold(key, name) {
			return anns
		}
	}
	return nil
}

// Property returns the annotations of a property.
func (d *Declaration) Property(name string) []Annotation {
	return d.Properties[name]
}

// Constant returns the annotations of a class constant.
func (d *Declaration) Constant(name string) []Annotation {
	return d.Constants[name]
}

// NormalizeName trims the leading namespace separator from a class name.
func NormalizeName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), `\`)
}

// ShortName returns the last segment of a class name.
func ShortName(name string) string {
	name = NormalizeName(name)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func nameKey(name string) string {
	return strings.ToLower(NormalizeName(name))
}
