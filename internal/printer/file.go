package printer

import (
	"strings"

	"github.com/Someblueman/phpattr/internal/docblock"
	"github.com/Someblueman/phpattr/internal/phpast"
)

// File reprints a possibly mutated syntax model. Source between declarations
// is copied verbatim, so an unmodified model prints byte-identical to the
// input.
func File(f *phpast.File) []byte {
	p := &filePrinter{f: f, w: NewWriter(f.Source)}
	pos := p.region(f.Stmts, 0)
	p.w.CopyRange(pos, len(f.Source))
	return p.w.Bytes()
}

type filePrinter struct {
	f *phpast.File
	w *Writer
}

// region prints nodes starting at pos and returns the offset after the last
// printed node. Gaps between nodes are copied from the source.
func (p *filePrinter) region(nodes []phpast.Node, pos int) int {
	for _, n := range nodes {
		if ns, ok := n.(*phpast.Namespace); ok && !ns.Braced {
			p.w.CopyRange(pos, ns.Span.End)
			pos = p.region(ns.Stmts, ns.Span.End)
			continue
		}
		lead := phpast.Lead(n)
		if lead < pos {
			lead = pos
		}
		p.w.CopyRange(pos, lead)
		p.node(n, lead)
		pos = n.Pos().End
	}
	return pos
}

func (p *filePrinter) node(n phpast.Node, lead int) {
	switch t := n.(type) {
	case *phpast.Namespace:
		p.w.CopyRange(lead, t.BodySpan.Start+1)
		pos := p.region(t.Stmts, t.BodySpan.Start+1)
		p.w.CopyRange(pos, t.Span.End)
	case *phpast.ClassLike:
		p.classLike(t)
	case *phpast.Method:
		p.method(t)
	case *phpast.Property:
		p.property(t)
	case *phpast.Const:
		p.prefix(&t.Declared)
		p.w.CopyRange(t.Body.Start, t.Span.End)
	default:
		p.w.CopyRange(lead, n.Pos().End)
	}
}

// prefix prints the doc comment and attribute lists of a declaration, up to
// its first keyword. Unchanged prefixes are copied verbatim.
func (p *filePrinter) prefix(d *phpast.Declared) {
	if !p.prefixChanged(d) {
		p.w.CopyRange(d.Lead, d.Body.Start)
		return
	}
	indent := LineIndent(p.f.Source, d.Lead)
	if d.Doc != nil && d.Doc.Text != "" {
		p.w.WriteString(d.Doc.Text)
		p.w.Newline(indent)
	}
	for _, attr := range d.Attrs {
		p.w.CopyRange(attr.Start, attr.End)
		p.w.Newline(indent)
	}
	for _, g := range d.Added {
		p.w.WriteString(Group(g))
		p.w.Newline(indent)
	}
}

func (p *filePrinter) prefixChanged(d *phpast.Declared) bool {
	if len(d.Added) > 0 {
		return true
	}
	if d.Doc == nil {
		return d.Lead != d.Span.Start
	}
	return d.Doc.Span.Start != d.Lead || p.f.Text(d.Doc.Span) != d.Doc.Text
}

func (p *filePrinter) classLike(c *phpast.ClassLike) {
	p.prefix(&c.Declared)
	if !c.BodySpan.Valid() {
		p.w.CopyRange(c.Body.Start, c.Span.End)
		return
	}
	open := c.BodySpan.Start + 1
	p.w.CopyRange(c.Body.Start, open)
	pos := p.region(c.Members, open)
	p.w.CopyRange(pos, c.Span.End)
}

func (p *filePrinter) method(m *phpast.Method) {
	p.prefix(&m.Declared)
	if !m.ParamsSpan.Valid() {
		p.w.CopyRange(m.Body.Start, m.Span.End)
		return
	}
	indent := LineIndent(p.f.Source, m.Body.Start)
	p.w.CopyRange(m.Body.Start, m.ParamsSpan.Start)
	if m.ParamsChanged {
		p.w.WriteString(Params(p.f.Source, m.Params, indent))
	} else {
		p.w.CopyRange(m.ParamsSpan.Start, m.ParamsSpan.End)
	}
	if !m.BodySpan.Valid() {
		p.w.CopyRange(m.ParamsSpan.End, m.Span.End)
		return
	}
	p.w.CopyRange(m.ParamsSpan.End, m.BodySpan.Start)
	if m.EraseBody {
		p.w.WriteString("{")
		p.w.Newline(indent)
		p.w.WriteString("}")
	} else {
		p.w.CopyRange(m.BodySpan.Start, m.BodySpan.End)
	}
	p.w.CopyRange(m.BodySpan.End, m.Span.End)
}

func (p *filePrinter) property(prop *phpast.Property) {
	p.prefix(&prop.Declared)
	if prop.NewType == "" || len(prop.NameSpans) == 0 {
		p.w.CopyRange(prop.Body.Start, prop.Span.End)
		return
	}
	at := prop.NameSpans[0].Start
	if prop.TypeSpan.Valid() {
		p.w.CopyRange(prop.Body.Start, prop.TypeSpan.Start)
		p.w.WriteString(prop.NewType)
		p.w.CopyRange(prop.TypeSpan.End, prop.Span.End)
		return
	}
	p.w.CopyRange(prop.Body.Start, at)
	p.w.WriteString(prop.NewType + " ")
	p.w.CopyRange(at, prop.Span.End)
}

// Params prints a parameter list including its parentheses. Lists with
// promoted or documented parameters are printed one parameter per line.
func Params(src []byte, params []*phpast.Param, indent string) string {
	multiline := false
	for _, param := range params {
		if param.Promoted() || param.Doc != nil {
			multiline = true
			break
		}
	}
	if !multiline {
		parts := make([]string, 0, len(params))
		for _, param := range params {
			parts = append(parts, Param(src, param))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}

	inner := indent + "    "
	var b strings.Builder
	b.WriteString("(\n")
	for i, param := range params {
		b.WriteString(inner)
		if param.Doc != nil {
			if doc := docblock.CleanCommentsIndent(param.Doc.Text, inner, true); doc != "" {
				b.WriteString(doc + "\n" + inner)
			}
		}
		b.WriteString(Param(src, param))
		if i < len(params)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent + ")")
	return b.String()
}

// Param prints one parameter from its parts.
func Param(src []byte, param *phpast.Param) string {
	var parts []string
	for _, attr := range param.Attrs {
		parts = append(parts, sourceText(src, attr))
	}
	if param.Visibility != "" {
		parts = append(parts, param.Visibility)
	}
	if param.Readonly {
		parts = append(parts, "readonly")
	}
	if param.Type != "" {
		parts = append(parts, param.Type)
	}
	name := "$" + param.Name
	if param.Variadic {
		name = "..." + name
	}
	if param.ByRef {
		name = "&" + name
	}
	parts = append(parts, name)
	out := strings.Join(parts, " ")
	if param.Default != "" {
		out += " = " + param.Default
	}
	return out
}

// LineIndent returns the leading whitespace of the line containing offset.
func LineIndent(src []byte, offset int) string {
	if offset > len(src) {
		offset = len(src)
	}
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < offset && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

func sourceText(src []byte, s phpast.Span) string {
	if !s.Valid() || s.End > len(src) {
		return ""
	}
	return string(src[s.Start:s.End])
}
