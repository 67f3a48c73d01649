package phpast

import (
	"fmt"

	"github.com/cockroachdb/errors"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

var phpSyntaxLanguage = sitter.NewLanguage(tree_sitter_php.LanguagePHP())

// ErrParse marks errors caused by invalid PHP source.
var ErrParse = errors.New("php syntax error")

// Parse builds the syntax model of a PHP file. Source with syntax errors is
// rejected with an error marked ErrParse.
func Parse(name string, src []byte) (*File, error) {
	parser, err := newPHPParser()
	if err != nil {
		return nil, errors.Wrap(err, "create php parser")
	}
	defer parser.Close()

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, errors.Newf("parse %s: parser returned no tree", name)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.Mark(errors.Newf("parse %s: syntax error at %s", name, firstErrorPosition(root)), ErrParse)
	}

	b := &builder{src: src}
	f := &File{Name: name, Source: src}
	f.span = Span{Start: 0, End: len(src)}
	f.Stmts = b.program(root)
	if b.err != nil {
		return nil, errors.Wrapf(b.err, "parse %s", name)
	}
	return f, nil
}

func newPHPParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(phpSyntaxLanguage); err != nil {
		parser.Close()
		return nil, err
	}
	return parser, nil
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

func walkTreePreOrder(root *sitter.Node, visit func(*sitter.Node) bool) {
	if root == nil || visit == nil {
		return
	}

	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(node) {
			continue
		}

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			child := node.Child(uint(i))
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
}

func firstErrorPosition(root *sitter.Node) string {
	pos := "unknown position"
	found := false
	walkTreePreOrder(root, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.IsError() || n.IsMissing() {
			p := n.StartPosition()
			pos = fmt.Sprintf("line %d, column %d", p.Row+1, p.Column+1)
			found = true
			return false
		}
		return n.HasError()
	})
	return pos
}
