package rewrite

import (
	"regexp"
	"strings"

	"github.com/Someblueman/phpattr/internal/docblock"
	"github.com/Someblueman/phpattr/internal/phpast"
)

var (
	delegationBodyPattern = regexp.MustCompile(`(?i)^\{\s*parent\s*::\s*__construct\s*\(\s*\.\.\.\s*\\?func_get_args\s*\(\s*\)\s*\)\s*;\s*\}$`)
	emptyBodyPattern      = regexp.MustCompile(`^\{\s*\}$`)
)

// promote turns the constructor parameters of an annotation definition into
// promoted public properties.
func (v *visitor) promote(m *phpast.Method) error {
	cc := v.class
	name := cc.fqcn + "::" + m.Name + "()"

	declared := make(map[string]bool)
	for _, member := range cc.node.Members {
		if prop, ok := member.(*phpast.Property); ok {
			for _, propName := range prop.Names {
				declared[propName] = true
			}
		}
	}

	modified := false
	params := make([]*phpast.Param, 0, len(m.Params))
	for _, p := range m.Params {
		if p.Name == v.opts.DataParam {
			modified = true
			continue
		}
		param := *p
		if !declared[p.Name] && !p.Promoted() {
			param.Visibility = "public"
			modified = true
		}
		params = append(params, &param)
	}

	erase := false
	if m.BodySpan.Valid() {
		body := strings.TrimSpace(v.file.Text(m.BodySpan))
		switch {
		case delegationBodyPattern.MatchString(body):
			erase = true
			modified = true
		case !emptyBodyPattern.MatchString(body):
			v.report.warn(name, "constructor has a body, please review it")
		}
	}
	if !modified {
		return nil
	}

	fields := make([]docblock.Field, 0, len(params))
	for _, p := range params {
		fields = append(fields, docblock.Field{Name: p.Name, NativeType: p.Type})
	}
	classComment, docs, changed := docblock.Refactor(cc.comment, fields)
	if changed {
		cc.comment = classComment
		cc.commentChanged = true
	}
	for _, p := range params {
		doc, ok := docs[p.Name]
		if !ok {
			continue
		}
		if doc.Text != "" {
			p.Doc = &phpast.Comment{Text: doc.Text}
		}
		if doc.ClearType {
			p.Type = ""
			p.TypeSpan = phpast.Span{}
		}
	}

	change := Change{
		Kind:      DeclMethod,
		Decl:      m,
		Anchor:    anchor(m.NameSpan, m.Body.Start),
		Promotion: &Promotion{Method: m, Params: params, EraseBody: erase},
	}
	if m.Doc != nil {
		if comment, _, ok := docblock.Refactor(m.Doc.Text, fields); ok {
			change.Comment, change.CommentSet = comment, true
		}
	}
	v.report.debug("promote constructor", "declaration", name, "params", len(params), "erase_body", erase)
	return v.record(change)
}
