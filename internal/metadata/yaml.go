package metadata

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	instanceTypeKey = "@type"
	configNameKey   = "@config"
)

// UnmarshalYAML decodes scalars, sequences and mappings into a Value. A
// mapping with an "@type" key is a nested annotation; one with "@config" is a
// configuration placeholder.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := decodeValue(node)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// UnmarshalYAML keeps the argument order of the "args" mapping.
func (a *Annotation) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := decodeAnnotation(node, "type")
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// UnmarshalYAML records whether a default key was present at all.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Newf("line %d: parameter must be a mapping", node.Line)
	}
	var out Param
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "name":
			out.Name = val.Value
		case "default":
			def, err := decodeValue(val)
			if err != nil {
				return errors.Wrapf(err, "parameter %q default", out.Name)
			}
			out.HasDefault = true
			out.Default = def
		}
	}
	if out.Name == "" {
		return errors.Newf("line %d: parameter without name", node.Line)
	}
	*p = out
	return nil
}

func decodeAnnotation(node *yaml.Node, typeKey string) (Annotation, error) {
	if node.Kind == yaml.AliasNode {
		return decodeAnnotation(node.Alias, typeKey)
	}
	if node.Kind != yaml.MappingNode {
		return Annotation{}, errors.Newf("line %d: annotation must be a mapping", node.Line)
	}
	var out Annotation
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case typeKey:
			out.Type = NormalizeName(val.Value)
		case "args":
			if val.Kind != yaml.MappingNode {
				return Annotation{}, errors.Newf("line %d: annotation args must be a mapping", val.Line)
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				arg, err := decodeValue(val.Content[j+1])
				if err != nil {
					return Annotation{}, errors.Wrapf(err, "argument %q", val.Content[j].Value)
				}
				out.Args = append(out.Args, Arg{Name: val.Content[j].Value, Value: arg})
			}
		}
	}
	if out.Type == "" {
		return Annotation{}, errors.Newf("line %d: annotation without type", node.Line)
	}
	return out, nil
}

func decodeValue(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		out := Value{Kind: List}
		for _, item := range node.Content {
			v, err := decodeValue(item)
			if err != nil {
				return Value{}, err
			}
			out.Entries = append(out.Entries, Entry{Value: v})
		}
		return out, nil
	case yaml.MappingNode:
		return decodeMapping(node)
	}
	return Value{}, errors.Newf("line %d: unsupported yaml node", node.Line)
}

func decodeScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return NullValue(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, errors.Wrapf(err, "line %d", node.Line)
		}
		return BoolValue(b), nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return Value{}, errors.Wrapf(err, "line %d", node.Line)
		}
		return IntValue(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, errors.Wrapf(err, "line %d", node.Line)
		}
		return FloatValue(f), nil
	}
	return StringValue(node.Value), nil
}

func decodeMapping(node *yaml.Node) (Value, error) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case instanceTypeKey:
			ann, err := decodeAnnotation(node, instanceTypeKey)
			if err != nil {
				return Value{}, err
			}
			return InstanceValue(ann), nil
		case configNameKey:
			return decodeConfig(node)
		}
	}

	out := Value{Kind: Map}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, err := decodeScalar(node.Content[i])
		if err != nil {
			return Value{}, err
		}
		val, err := decodeValue(node.Content[i+1])
		if err != nil {
			return Value{}, err
		}
		out.Entries = append(out.Entries, Entry{Key: &key, Value: val})
	}
	return out, nil
}

func decodeConfig(node *yaml.Node) (Value, error) {
	var name string
	fallback := NullValue()
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case configNameKey:
			name = node.Content[i+1].Value
		case "default":
			v, err := decodeValue(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			fallback = v
		}
	}
	return ConfigValue(name, fallback), nil
}
