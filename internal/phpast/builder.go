package phpast

import (
	"strings"

	"fortio.org/safecast"
	"github.com/cockroachdb/errors"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

type builder struct {
	src []byte
	err error
}

func (b *builder) offset(v uint) int {
	n, err := safecast.Conv[int](v)
	if err != nil && b.err == nil {
		b.err = errors.Wrap(err, "source offset")
	}
	return n
}

func (b *builder) span(n *sitter.Node) Span {
	if n == nil {
		return Span{}
	}
	return Span{Start: b.offset(n.StartByte()), End: b.offset(n.EndByte())}
}

func (b *builder) text(n *sitter.Node) string {
	return nodeText(n, b.src)
}

func children(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func childOfKind(n *sitter.Node, kinds ...string) *sitter.Node {
	for _, child := range children(n) {
		for _, kind := range kinds {
			if child.Kind() == kind {
				return child
			}
		}
	}
	return nil
}

func isClassLikeKind(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
		return true
	}
	return false
}

func isDeclKind(kind string) bool {
	switch kind {
	case "method_declaration", "property_declaration", "const_declaration":
		return true
	}
	return isClassLikeKind(kind)
}

var typeKinds = []string{
	"primitive_type", "named_type", "optional_type", "nullable_type", "union_type",
	"intersection_type", "disjunctive_normal_form_type", "bottom_type",
}

// docBefore returns the doc comment directly preceding nodes[i], separated
// from it by whitespace only.
func (b *builder) docBefore(nodes []*sitter.Node, i int) *Comment {
	if i <= 0 || i >= len(nodes) {
		return nil
	}
	prev := nodes[i-1]
	if prev.Kind() != "comment" {
		return nil
	}
	text := b.text(prev)
	if !strings.HasPrefix(text, "/**") {
		return nil
	}
	prevSpan, curSpan := b.span(prev), b.span(nodes[i])
	if prevSpan.End > curSpan.Start || strings.TrimSpace(string(b.src[prevSpan.End:curSpan.Start])) != "" {
		return nil
	}
	return &Comment{Span: prevSpan, Text: text}
}

// attachedDoc reports whether nodes[i] is a doc comment consumed by the
// declaration that follows it.
func (b *builder) attachedDoc(nodes []*sitter.Node, i int) bool {
	if nodes[i].Kind() != "comment" || i+1 >= len(nodes) {
		return false
	}
	if !isDeclKind(nodes[i+1].Kind()) {
		return false
	}
	return b.docBefore(nodes, i+1) != nil
}

func (b *builder) program(root *sitter.Node) []Node {
	nodes := children(root)
	var out []Node
	var current *Namespace
	for i, n := range nodes {
		if b.attachedDoc(nodes, i) {
			continue
		}
		stmt := b.statement(n, b.docBefore(nodes, i))
		if ns, ok := stmt.(*Namespace); ok {
			out = append(out, ns)
			current = nil
			if !ns.Braced {
				current = ns
			}
			continue
		}
		if current != nil {
			current.Stmts = append(current.Stmts, stmt)
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func (b *builder) block(n *sitter.Node) []Node {
	nodes := children(n)
	var out []Node
	for i, child := range nodes {
		switch child.Kind() {
		case "{", "}":
			continue
		}
		if b.attachedDoc(nodes, i) {
			continue
		}
		out = append(out, b.statement(child, b.docBefore(nodes, i)))
	}
	return out
}

func (b *builder) statement(n *sitter.Node, doc *Comment) Node {
	kind := n.Kind()
	switch {
	case kind == "namespace_definition":
		return b.namespace(n)
	case kind == "namespace_use_declaration":
		return b.use(n)
	case isClassLikeKind(kind):
		return b.classLike(n, doc)
	}
	return &Raw{Span: b.span(n), Kind: kind}
}

func (b *builder) namespace(n *sitter.Node) *Namespace {
	ns := &Namespace{
		Span: b.span(n),
		Name: strings.TrimPrefix(b.text(n.ChildByFieldName("name")), `\`),
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfKind(n, "compound_statement")
	}
	if body == nil {
		ns.Header = ns.Span
		return ns
	}
	ns.Braced = true
	ns.BodySpan = b.span(body)
	ns.Header = Span{Start: ns.Span.Start, End: ns.BodySpan.Start}
	ns.Stmts = b.block(body)
	return ns
}

func (b *builder) use(n *sitter.Node) *Use {
	u := &Use{Span: b.span(n)}
	prefix := ""
	for _, child := range children(n) {
		switch child.Kind() {
		case "function", "const":
			u.Kind, _ = useKeyword(child.Kind())
		case "namespace_name", "qualified_name", "name":
			prefix = strings.Trim(b.text(child), `\`)
		case "namespace_use_clause":
			if kind, ok := clauseKind(child); ok {
				u.Kind = kind
			}
			if clause, ok := b.useClause(child, ""); ok {
				u.Clauses = append(u.Clauses, clause)
			}
		case "namespace_use_group":
			for _, item := range children(child) {
				if item.Kind() != "namespace_use_clause" && item.Kind() != "namespace_use_group_clause" {
					continue
				}
				if clause, ok := b.useClause(item, prefix); ok {
					u.Clauses = append(u.Clauses, clause)
				}
			}
		}
	}
	return u
}

// clauseKind reports the function or const keyword the grammar places
// inside a use clause rather than on the declaration.
func clauseKind(n *sitter.Node) (UseKind, bool) {
	if typ := n.ChildByFieldName("type"); typ != nil {
		if kind, ok := useKeyword(typ.Kind()); ok {
			return kind, true
		}
	}
	for _, child := range children(n) {
		if kind, ok := useKeyword(child.Kind()); ok {
			return kind, true
		}
	}
	return UseClass, false
}

func useKeyword(kind string) (UseKind, bool) {
	switch kind {
	case "function":
		return UseFunction, true
	case "const":
		return UseConst, true
	}
	return UseClass, false
}

func (b *builder) useClause(n *sitter.Node, prefix string) (UseClause, bool) {
	var clause UseClause
	nodes := children(n)
	for i, child := range nodes {
		switch child.Kind() {
		case "qualified_name", "namespace_name", "name":
			if clause.Name == "" {
				clause.Name = strings.TrimPrefix(b.text(child), `\`)
			}
		case "as":
			if i+1 < len(nodes) {
				clause.Alias = b.text(nodes[i+1])
			}
		}
	}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		clause.Alias = b.text(alias)
	}
	if clause.Name == "" {
		return clause, false
	}
	if prefix != "" {
		clause.Name = prefix + `\` + clause.Name
	}
	return clause, true
}

// declared fills the attribute lists and the post-attribute body span.
func (b *builder) declared(n *sitter.Node, doc *Comment) Declared {
	d := Declared{Span: b.span(n), Doc: doc}
	d.Lead = d.Span.Start
	if doc != nil {
		d.Lead = doc.Span.Start
	}
	d.Body = d.Span
	for _, child := range children(n) {
		if child.Kind() == "attribute_list" {
			d.Attrs = append(d.Attrs, b.span(child))
			d.Body.Start = b.span(child).End
		}
	}
	for d.Body.Start < d.Body.End && isSpace(b.src[d.Body.Start]) {
		d.Body.Start++
	}
	return d
}

func (b *builder) classLike(n *sitter.Node, doc *Comment) *ClassLike {
	c := &ClassLike{Declared: b.declared(n, doc)}
	switch n.Kind() {
	case "interface_declaration":
		c.Kind = KindInterface
	case "trait_declaration":
		c.Kind = KindTrait
	case "enum_declaration":
		c.Kind = KindEnum
	}

	if name := n.ChildByFieldName("name"); name != nil {
		c.Name = b.text(name)
		c.NameSpan = b.span(name)
	} else {
		c.Anonymous = true
	}
	if base := childOfKind(n, "base_clause"); base != nil && c.Kind == KindClass {
		if parent := childOfKind(base, "qualified_name", "name"); parent != nil {
			c.Extends = b.text(parent)
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfKind(n, "declaration_list", "enum_declaration_list")
	}
	if body == nil {
		c.Header = c.Body
		return c
	}
	c.BodySpan = b.span(body)
	c.Header = Span{Start: c.Body.Start, End: c.BodySpan.Start}
	c.Members = b.members(body)
	return c
}

func (b *builder) members(body *sitter.Node) []Node {
	nodes := children(body)
	var out []Node
	for i, n := range nodes {
		switch n.Kind() {
		case "{", "}":
			continue
		}
		if b.attachedDoc(nodes, i) {
			continue
		}
		doc := b.docBefore(nodes, i)
		switch n.Kind() {
		case "method_declaration":
			out = append(out, b.method(n, doc))
		case "property_declaration":
			out = append(out, b.property(n, doc))
		case "const_declaration":
			out = append(out, b.constant(n, doc))
		default:
			out = append(out, &Raw{Span: b.span(n), Kind: n.Kind()})
		}
	}
	return out
}

func (b *builder) modifiers(n *sitter.Node) []string {
	var mods []string
	for _, child := range children(n) {
		kind := child.Kind()
		if strings.HasSuffix(kind, "_modifier") && kind != "reference_modifier" {
			mods = append(mods, strings.ToLower(b.text(child)))
		}
	}
	return mods
}

func (b *builder) method(n *sitter.Node, doc *Comment) *Method {
	m := &Method{Declared: b.declared(n, doc), Modifiers: b.modifiers(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		m.Name = b.text(name)
		m.NameSpan = b.span(name)
	}
	params := n.ChildByFieldName("parameters")
	if params == nil {
		params = childOfKind(n, "formal_parameters")
	}
	if params != nil {
		m.ParamsSpan = b.span(params)
		m.Params = b.params(params)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		body = childOfKind(n, "compound_statement")
	}
	if body != nil {
		m.BodySpan = b.span(body)
		m.Anonymous = b.anonymousClasses(body)
	}
	return m
}

func (b *builder) params(list *sitter.Node) []*Param {
	nodes := children(list)
	var out []*Param
	for i, n := range nodes {
		switch n.Kind() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}
		p := &Param{
			Span:     b.span(n),
			Doc:      b.docBefore(nodes, i),
			Variadic: n.Kind() == "variadic_parameter",
		}
		for _, child := range children(n) {
			switch child.Kind() {
			case "attribute_list":
				p.Attrs = append(p.Attrs, b.span(child))
			case "visibility_modifier":
				p.Visibility = strings.ToLower(b.text(child))
			case "readonly_modifier":
				p.Readonly = true
			case "reference_modifier", "&":
				p.ByRef = true
			}
		}
		typ := n.ChildByFieldName("type")
		if typ == nil {
			typ = childOfKind(n, typeKinds...)
		}
		if typ != nil {
			p.Type = b.text(typ)
			p.TypeSpan = b.span(typ)
		}
		name := n.ChildByFieldName("name")
		if name != nil && name.Kind() != "variable_name" {
			if inner := childOfKind(name, "variable_name"); inner != nil {
				if name.Kind() == "by_ref" {
					p.ByRef = true
				}
				name = inner
			}
		}
		if name == nil {
			name = childOfKind(n, "variable_name")
		}
		if name != nil {
			p.Name = strings.TrimPrefix(b.text(name), "$")
			p.NameSpan = b.span(name)
		}
		if def := n.ChildByFieldName("default_value"); def != nil {
			p.Default = b.text(def)
		}
		out = append(out, p)
	}
	return out
}

func (b *builder) property(n *sitter.Node, doc *Comment) *Property {
	p := &Property{Declared: b.declared(n, doc), Modifiers: b.modifiers(n)}
	typ := n.ChildByFieldName("type")
	if typ == nil {
		typ = childOfKind(n, typeKinds...)
	}
	if typ != nil {
		p.Type = b.text(typ)
		p.TypeSpan = b.span(typ)
	}
	for _, child := range children(n) {
		if child.Kind() != "property_element" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			name = childOfKind(child, "variable_name")
		}
		if name == nil {
			continue
		}
		p.Names = append(p.Names, strings.TrimPrefix(b.text(name), "$"))
		p.NameSpans = append(p.NameSpans, b.span(name))
		p.Defaults = append(p.Defaults, b.text(child.ChildByFieldName("default_value")))
	}
	return p
}

func (b *builder) constant(n *sitter.Node, doc *Comment) *Const {
	c := &Const{Declared: b.declared(n, doc)}
	for _, child := range children(n) {
		if child.Kind() != "const_element" {
			continue
		}
		name := childOfKind(child, "name")
		if name == nil {
			continue
		}
		c.Names = append(c.Names, b.text(name))
		c.NameSpans = append(c.NameSpans, b.span(name))
	}
	return c
}

// anonymousClasses collects the anonymous classes of a method body. Classes
// nested inside an anonymous class are not descended into.
func (b *builder) anonymousClasses(body *sitter.Node) []*ClassLike {
	var out []*ClassLike
	walkTreePreOrder(body, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "anonymous_class":
			out = append(out, b.anonymousClass(n))
			return false
		case "object_creation_expression":
			if childOfKind(n, "declaration_list") != nil {
				out = append(out, b.anonymousClass(n))
				return false
			}
		}
		return true
	})
	return out
}

func (b *builder) anonymousClass(n *sitter.Node) *ClassLike {
	c := &ClassLike{Declared: b.declared(n, nil), Anonymous: true}
	if body := childOfKind(n, "declaration_list"); body != nil {
		c.BodySpan = b.span(body)
		c.Header = Span{Start: c.Body.Start, End: c.BodySpan.Start}
		c.Members = b.members(body)
	}
	return c
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
