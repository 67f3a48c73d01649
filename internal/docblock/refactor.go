package docblock

import "strings"

// Field is a constructor parameter that becomes a promoted property.
type Field struct {
	Name       string
	NativeType string
}

// FieldDoc is the doc comment generated for a promoted field. ClearType is
// set when the native type has to be dropped in favor of the comment.
type FieldDoc struct {
	Text      string
	ClearType bool
}

// Refactor drops the @property/@param lines that describe fields from
// comment and derives a field-level doc comment for each of them. Unmatched
// lines keep their order. The returned bool reports whether comment changed.
func Refactor(comment string, fields []Field) (string, map[string]FieldDoc, bool) {
	wanted := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		wanted[f.Name] = struct{}{}
	}

	tags := make(map[string]Line)
	var kept []string
	changed := false
	for _, line := range ParseLines(comment) {
		if line.Kind == Tag {
			if _, ok := wanted[line.Name]; ok {
				if _, seen := tags[line.Name]; !seen {
					tags[line.Name] = line
				}
				changed = true
				continue
			}
		}
		kept = append(kept, line.Text)
	}

	docs := make(map[string]FieldDoc)
	for _, f := range fields {
		tag, ok := tags[f.Name]
		if !ok {
			continue
		}
		if doc, ok := fieldDoc(f, tag); ok {
			docs[f.Name] = doc
		}
	}

	if !changed {
		return comment, docs, false
	}
	return "/**\n" + strings.Join(kept, "\n") + "\n */", docs, true
}

func fieldDoc(f Field, tag Line) (FieldDoc, bool) {
	var body []string
	if tag.Comment != "" {
		body = append(body, " * "+tag.Comment)
	}

	var doc FieldDoc
	switch {
	case f.NativeType == "" && tag.Type != "":
		body = append(body, " * @var "+tag.Type)
	case f.NativeType != "" && (isCallable(f.NativeType) || isCallable(tag.Type)):
		body = append(body, " * @var "+f.NativeType)
		doc.ClearType = true
	}
	if len(body) == 0 {
		return doc, doc.ClearType
	}
	doc.Text = "/**\n" + strings.Join(body, "\n") + "\n */"
	return doc, true
}

func isCallable(typ string) bool {
	return strings.Contains(strings.ToLower(typ), "callable")
}
