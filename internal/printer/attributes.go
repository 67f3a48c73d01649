package printer

import (
	"math"
	"strconv"
	"strings"

	"github.com/Someblueman/phpattr/internal/phpast"
)

// Attributes prints one #[...] line per group.
func Attributes(groups []phpast.AttributeGroup) string {
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, Group(g))
	}
	return strings.Join(lines, "\n")
}

// Group prints a single attribute group.
func Group(g phpast.AttributeGroup) string {
	parts := make([]string, 0, len(g.Attrs))
	for _, a := range g.Attrs {
		parts = append(parts, Attribute(a))
	}
	return "#[" + strings.Join(parts, ", ") + "]"
}

// Attribute prints Name or Name(args).
func Attribute(a phpast.Attribute) string {
	if len(a.Args) == 0 {
		return a.Name.String()
	}
	return a.Name.String() + "(" + Args(a.Args) + ")"
}

// Args prints named arguments separated by commas.
func Args(args []phpast.Arg) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg.Name == "" {
			parts = append(parts, Expr(arg.Value))
			continue
		}
		parts = append(parts, arg.Name+": "+Expr(arg.Value))
	}
	return strings.Join(parts, ", ")
}

// Expr prints a constant expression.
func Expr(e phpast.Expr) string {
	switch v := e.(type) {
	case nil, phpast.NullLit:
		return "null"
	case phpast.BoolLit:
		if v.Value {
			return "true"
		}
		return "false"
	case phpast.IntLit:
		return strconv.FormatInt(v.Value, 10)
	case phpast.FloatLit:
		return formatFloat(v.Value)
	case phpast.StringLit:
		return quote(v.Value)
	case phpast.ArrayLit:
		items := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			if item.Key != nil {
				items = append(items, Expr(item.Key)+" => "+Expr(item.Value))
				continue
			}
			items = append(items, Expr(item.Value))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case phpast.New:
		return "new " + v.Class.String() + "(" + Args(v.Args) + ")"
	case phpast.ClassConst:
		return v.Class.String() + "::class"
	}
	return "null"
}

// quote writes a single-quoted PHP string.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('\'')
	return b.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	s := strconv.FormatFloat(f, 'G', -1, 64)
	if !strings.ContainsAny(s, ".EN") {
		s += ".0"
	}
	return s
}
