package phpast

// Name is a class reference. FullyQualified names print with a leading
// namespace separator.
type Name struct {
	Text           string
	FullyQualified bool
}

func (n Name) String() string {
	if n.FullyQualified {
		return `\` + n.Text
	}
	return n.Text
}

// Expr is a constant expression usable as an attribute argument.
type Expr interface {
	expr()
}

type (
	// NullLit is the null literal.
	NullLit struct{}
	// BoolLit is true or false.
	BoolLit struct{ Value bool }
	// IntLit is an integer literal.
	IntLit struct{ Value int64 }
	// FloatLit is a float literal.
	FloatLit struct{ Value float64 }
	// StringLit is a string literal.
	StringLit struct{ Value string }
	// ArrayLit is a short array literal.
	ArrayLit struct{ Items []ArrayItem }
	// New constructs an object: new Class(args).
	New struct {
		Class Name
		Args  []Arg
	}
	// ClassConst is a Class::class reference.
	ClassConst struct{ Class Name }
)

// ArrayItem is an array element; Key is nil for list items.
type ArrayItem struct {
	Key   Expr
	Value Expr
}

// Arg is a named argument.
type Arg struct {
	Name  string
	Value Expr
}

func (NullLit) expr()    {}
func (BoolLit) expr()    {}
func (IntLit) expr()     {}
func (FloatLit) expr()   {}
func (StringLit) expr()  {}
func (ArrayLit) expr()   {}
func (New) expr()        {}
func (ClassConst) expr() {}

// Attribute is one attribute: Name(args).
type Attribute struct {
	Name Name
	Args []Arg
}

// AttributeGroup is one #[...] list.
type AttributeGroup struct {
	Attrs []Attribute
}
