package rewrite

import (
	"github.com/Someblueman/phpattr/internal/phpast"
)

// DeclKind is the kind of declaration a change targets.
type DeclKind int

const (
	DeclClass DeclKind = iota
	DeclMethod
	DeclProperty
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclMethod:
		return "method"
	case DeclProperty:
		return "property"
	case DeclConst:
		return "const"
	default:
		return "class"
	}
}

// Change is the rewrite of one declaration as produced by the visitor.
// Strategies turn it into text edits or tree mutations.
type Change struct {
	Kind DeclKind
	Decl phpast.Decl
	// Anchor is the offset of the declaration's name token.
	Anchor int
	Attrs  []phpast.AttributeGroup
	// Comment is the new doc comment text before cleaning. It only applies
	// when CommentSet is true; an empty Comment removes the doc comment.
	Comment    string
	CommentSet bool
	// Prepend queues the change ahead of earlier ones.
	Prepend bool
	// Promotion rewrites the constructor parameter list.
	Promotion *Promotion
	// PropertyType is written into an untyped property's type slot.
	PropertyType string
}

// Promotion describes a constructor whose parameters become promoted
// properties.
type Promotion struct {
	Method    *phpast.Method
	Params    []*phpast.Param
	EraseBody bool
}

// Empty reports whether the change carries no edit at all.
func (c Change) Empty() bool {
	return len(c.Attrs) == 0 && !c.CommentSet && c.Promotion == nil && c.PropertyType == ""
}
