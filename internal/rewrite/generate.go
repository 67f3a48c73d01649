package rewrite

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/Someblueman/phpattr/internal/docblock"
	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/phpast"
)

func (v *visitor) generateClass() error {
	cc := v.class
	groups, comment, err := v.attributes(cc.fqcn, cc.decl.Class, cc.comment)
	if err != nil {
		return err
	}
	commentChanged := cc.commentChanged || comment != cc.comment
	if len(groups) == 0 && !commentChanged {
		return nil
	}
	return v.record(Change{
		Kind:       DeclClass,
		Decl:       cc.node,
		Anchor:     anchor(cc.node.NameSpan, cc.node.Body.Start),
		Attrs:      groups,
		Comment:    comment,
		CommentSet: cc.node.Doc != nil && commentChanged,
		Prepend:    true,
	})
}

func (v *visitor) generateMethod(m *phpast.Method) error {
	if m.IsConstructor() && v.class.definition {
		return v.promote(m)
	}
	if m.IsMagic() {
		return nil
	}
	name := v.class.fqcn + "::" + m.Name + "()"
	anns := v.class.decl.Method(m.Name)
	if len(anns) == 0 {
		return nil
	}
	return v.generateMember(DeclMethod, m, name, anns, anchor(m.NameSpan, m.Body.Start), "")
}

func (v *visitor) generateProperty(p *phpast.Property) error {
	if len(p.Names) == 0 {
		return nil
	}
	name := v.class.fqcn + "::$" + p.Names[0]
	propertyType := ""
	if v.opts.PromoteCommentTypes && p.Type == "" && p.Doc != nil {
		if typ, ok := nativeType(docblock.VarType(p.Doc.Text), p.Defaults); ok {
			propertyType = typ
		}
	}
	return v.generateMember(DeclProperty, p, name, v.class.decl.Property(p.Names[0]), p.NameSpans[0].Start, propertyType)
}

func (v *visitor) generateConst(c *phpast.Const) error {
	if len(c.Names) == 0 {
		return nil
	}
	name := v.class.fqcn + "::" + c.Names[0]
	return v.generateMember(DeclConst, c, name, v.class.decl.Constant(c.Names[0]), c.NameSpans[0].Start, "")
}

func (v *visitor) generateMember(kind DeclKind, d phpast.Decl, name string, anns []metadata.Annotation, at int, propertyType string) error {
	original := docText(d)
	groups, comment, err := v.attributes(name, anns, original)
	if err != nil {
		return err
	}
	change := Change{
		Kind:         kind,
		Decl:         d,
		Anchor:       at,
		Attrs:        groups,
		PropertyType: propertyType,
	}
	if len(groups) > 0 && d.DocComment() != nil && comment != original {
		change.Comment, change.CommentSet = comment, true
	}
	if change.Empty() {
		return nil
	}
	return v.record(change)
}

// attributes maps the genuine metadata annotations of a declaration to
// attribute groups and strips their text from comment.
func (v *visitor) attributes(declaration string, anns []metadata.Annotation, comment string) ([]phpast.AttributeGroup, string, error) {
	var groups []phpast.AttributeGroup
	tags := docblock.ScanAnnotations(comment)
	used := make([]bool, len(tags))
	for _, ann := range anns {
		def, ok := v.provider.Definition(ann.Type)
		if !ok || !def.Metadata {
			continue
		}
		attr, err := v.mapper.Attribute(ann)
		if err != nil {
			var extra *ExtraArgumentError
			if errors.As(err, &extra) {
				v.report.log.Errorw("annotation cannot be mapped to its constructor", "file", v.file.Name, "declaration", declaration, "error", err)
				if abortErr := v.abort(extra.Error()); abortErr != nil {
					return nil, "", abortErr
				}
			}
			return nil, "", errors.Wrapf(err, "map annotations of %s", declaration)
		}
		groups = append(groups, phpast.AttributeGroup{Attrs: []phpast.Attribute{attr}})

		i := v.matchTag(tags, used, ann.Type)
		if i < 0 {
			v.report.warn(declaration, "annotation @"+metadata.ShortName(ann.Type)+" not found in doc comment")
			continue
		}
		used[i] = true
		comment = docblock.Strip(comment, tags[i])
	}
	return groups, comment, nil
}

// matchTag returns the first unused comment annotation naming typeName.
func (v *visitor) matchTag(tags []docblock.Annotation, used []bool, typeName string) int {
	for i, tag := range tags {
		if used[i] {
			continue
		}
		if tagMatches(tag.Name, typeName, v.namespace, v.imports, v.provider.Imports()) {
			return i
		}
	}
	return -1
}

func anchor(name phpast.Span, fallback int) int {
	if name.Valid() {
		return name.Start
	}
	return fallback
}

var nonNativeTypes = map[string]bool{
	"resource": true,
	"void":     true,
	"never":    true,
	"$this":    true,
	"callback": true,
	"integer":  true,
	"boolean":  true,
	"double":   true,
}

// nativeType converts a @var type into a property type declaration.
// Types that cannot be written natively are rejected.
func nativeType(typ string, defaults []string) (string, bool) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return "", false
	}
	lower := strings.ToLower(typ)
	if strings.Contains(lower, "callable") || strings.ContainsAny(typ, "<>{}()$ ,&") {
		return "", false
	}

	var parts []string
	for _, part := range strings.Split(typ, "|") {
		nullable := strings.HasPrefix(part, "?")
		part = strings.TrimPrefix(part, "?")
		switch {
		case part == "":
			return "", false
		case strings.HasSuffix(part, "[]"):
			part = "array"
		case nonNativeTypes[strings.ToLower(part)]:
			return "", false
		case strings.Contains(part, `\`):
			part = `\` + strings.TrimLeft(part, `\`)
		}
		if nullable {
			part = "?" + part
		}
		parts = append(parts, part)
	}
	if len(parts) > 1 {
		for _, part := range parts {
			if strings.HasPrefix(part, "?") {
				return "", false
			}
		}
	}

	out := strings.Join(dedupe(parts), "|")
	if needsNull(out, defaults) {
		if strings.Contains(out, "|") {
			out += "|null"
		} else {
			out = "?" + out
		}
	}
	return out, true
}

func needsNull(typ string, defaults []string) bool {
	lower := strings.ToLower(typ)
	if strings.HasPrefix(lower, "?") || lower == "mixed" || lower == "null" {
		return false
	}
	for _, part := range strings.Split(lower, "|") {
		if part == "null" {
			return false
		}
	}
	for _, def := range defaults {
		if strings.EqualFold(strings.TrimSpace(def), "null") {
			return true
		}
	}
	return false
}

func dedupe(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := parts[:0]
	for _, part := range parts {
		key := strings.ToLower(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}
