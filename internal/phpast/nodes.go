package phpast

import "strings"

// Span is a half-open byte range [Start, End) in the source.
type Span struct {
	Start int
	End   int
}

// Valid reports whether the span covers at least one byte.
func (s Span) Valid() bool { return s.End > s.Start && s.Start >= 0 }

// Len returns the span length.
func (s Span) Len() int { return s.End - s.Start }

// Node is implemented by every syntax node.
type Node interface {
	Pos() Span
}

// Comment is a doc comment attached to a declaration. A nil *Comment means
// the declaration has no doc comment.
type Comment struct {
	Span Span
	Text string
}

// File is a parsed PHP source file.
type File struct {
	Name   string
	Source []byte
	Stmts  []Node
	span   Span
}

func (f *File) Pos() Span { return f.span }

// Text returns the source text covered by span.
func (f *File) Text(s Span) string {
	if !s.Valid() || s.End > len(f.Source) {
		return ""
	}
	return string(f.Source[s.Start:s.End])
}

// Raw is a statement or member kept verbatim (php tags, functions, free
// comments, trait uses, enum cases).
type Raw struct {
	Span Span
	Kind string
}

func (r *Raw) Pos() Span { return r.Span }

// Namespace is a namespace declaration. For the unbraced form, Stmts holds
// the statements that follow it up to the next namespace.
type Namespace struct {
	Span     Span
	Name     string
	Braced   bool
	Header   Span
	BodySpan Span
	Stmts    []Node
}

func (n *Namespace) Pos() Span { return n.Span }

// UseKind distinguishes class, function and constant imports.
type UseKind int

const (
	UseClass UseKind = iota
	UseFunction
	UseConst
)

// UseClause is one imported name.
type UseClause struct {
	Name  string
	Alias string
}

// LocalName returns the alias, or the last name segment when unaliased.
func (c UseClause) LocalName() string {
	if c.Alias != "" {
		return c.Alias
	}
	if i := strings.LastIndexByte(c.Name, '\\'); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// Use is an import statement.
type Use struct {
	Span    Span
	Kind    UseKind
	Clauses []UseClause
}

func (u *Use) Pos() Span { return u.Span }

// ClassKind enumerates class-like declarations.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	default:
		return "class"
	}
}

// Decl is implemented by declarations that can carry a doc comment and
// attributes.
type Decl interface {
	Node
	DocComment() *Comment
	SetDocComment(c *Comment)
	AddAttributes(groups ...AttributeGroup)
}

// Declared holds the parts shared by all declarations.
type Declared struct {
	Span Span
	// Lead is where the declaration starts including its original doc
	// comment.
	Lead int
	// Body is the span after any existing attribute lists, starting at the
	// first modifier or keyword.
	Body Span
	// Attrs are the existing #[...] lists, copied verbatim when printing.
	Attrs []Span
	Doc   *Comment
	// Added holds attribute groups generated during a rewrite.
	Added []AttributeGroup
}

func (d *Declared) Pos() Span { return d.Span }

func (d *Declared) DocComment() *Comment { return d.Doc }

func (d *Declared) SetDocComment(c *Comment) { d.Doc = c }

func (d *Declared) AddAttributes(g ...AttributeGroup) { d.Added = append(d.Added, g...) }

// ClassLike is a class, interface, trait or enum declaration, or an
// anonymous class found inside a method body.
type ClassLike struct {
	Declared
	Kind      ClassKind
	Name      string
	NameSpan  Span
	Anonymous bool
	// Extends is the parent class name as written.
	Extends  string
	Header   Span
	BodySpan Span
	Members  []Node
}

// Method is a method declaration.
type Method struct {
	Declared
	Name       string
	NameSpan   Span
	Modifiers  []string
	Params     []*Param
	ParamsSpan Span
	// BodySpan covers the braces; it is invalid for abstract methods.
	BodySpan Span
	// EraseBody replaces the body with an empty block when printing.
	EraseBody bool
	// ParamsChanged makes the printer render Params instead of copying
	// ParamsSpan.
	ParamsChanged bool
	Anonymous     []*ClassLike
}

// IsMagic reports whether the method name starts with a double underscore.
func (m *Method) IsMagic() bool {
	return strings.HasPrefix(m.Name, "__")
}

// IsConstructor reports whether this is __construct.
func (m *Method) IsConstructor() bool {
	return strings.EqualFold(m.Name, "__construct")
}

// Param is a formal parameter.
type Param struct {
	Span       Span
	Attrs      []Span
	Doc        *Comment
	Visibility string
	Readonly   bool
	Type       string
	TypeSpan   Span
	ByRef      bool
	Variadic   bool
	Name       string
	NameSpan   Span
	// Default is the default expression source, "" when absent.
	Default string
}

func (p *Param) Pos() Span { return p.Span }

// Promoted reports whether the parameter declares a property.
func (p *Param) Promoted() bool { return p.Visibility != "" || p.Readonly }

// Property is a property declaration statement, possibly declaring several
// properties.
type Property struct {
	Declared
	Modifiers []string
	Type      string
	TypeSpan  Span
	Names     []string
	NameSpans []Span
	// Defaults holds each property's default expression, "" when absent.
	Defaults []string
	// NewType is written into the type slot when printing.
	NewType string
}

// Const is a class constant declaration statement.
type Const struct {
	Declared
	Names     []string
	NameSpans []Span
}

// Lead returns the offset where n starts, including a leading doc comment.
func Lead(n Node) int {
	switch t := n.(type) {
	case *ClassLike:
		return t.Lead
	case *Method:
		return t.Lead
	case *Property:
		return t.Lead
	case *Const:
		return t.Lead
	}
	return n.Pos().Start
}

// Walker receives enter and leave events from Walk.
type Walker interface {
	Enter(n Node) error
	Leave(n Node) error
}

// Walk visits statements in source order: Enter before children, Leave
// after them. Walking stops at the first error.
func Walk(w Walker, f *File) error {
	for _, stmt := range f.Stmts {
		if err := walkNode(w, stmt); err != nil {
			return err
		}
	}
	return nil
}

func walkNode(w Walker, n Node) error {
	if err := w.Enter(n); err != nil {
		return err
	}
	switch t := n.(type) {
	case *Namespace:
		for _, stmt := range t.Stmts {
			if err := walkNode(w, stmt); err != nil {
				return err
			}
		}
	case *ClassLike:
		for _, member := range t.Members {
			if err := walkNode(w, member); err != nil {
				return err
			}
		}
	case *Method:
		for _, anon := range t.Anonymous {
			if err := walkNode(w, anon); err != nil {
				return err
			}
		}
	}
	return w.Leave(n)
}
