package rewrite

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/phpast"
)

// classContext is the resolved top-level class being rewritten.
type classContext struct {
	node *phpast.ClassLike
	decl *metadata.Declaration
	fqcn string
	// comment is the working copy of the class doc comment. Constructor
	// promotion rewrites it before the class itself is generated.
	comment        string
	commentChanged bool
	definition     bool
}

type scope struct {
	id   int
	node *phpast.ClassLike
}

// visitor walks one file and records a Change per rewritten declaration.
type visitor struct {
	ctx      context.Context
	file     *phpast.File
	provider metadata.Provider
	opts     Options
	sink     Sink
	report   *reporter
	state    *traversal
	imports  *Imports
	mapper   *Mapper

	namespace    string
	hasNamespace bool
	inNamespace  bool
	classSeen    bool
	class        *classContext
	scopes       []scope
	scopeIDs     map[*phpast.ClassLike]int
	nextID       int
	anonymous    int
	abortReason  string
}

func newVisitor(ctx context.Context, f *phpast.File, provider metadata.Provider, opts Options, sink Sink, report *reporter) *visitor {
	imports := &Imports{}
	mapper := NewMapper(provider, imports, opts.DataParam)
	mapper.report = report
	return &visitor{
		ctx:      ctx,
		file:     f,
		provider: provider,
		opts:     opts,
		sink:     sink,
		report:   report,
		state:    newTraversal(),
		imports:  imports,
		mapper:   mapper,
		scopeIDs: make(map[*phpast.ClassLike]int),
	}
}

func (v *visitor) Enter(n phpast.Node) error {
	if v.state.Aborted() {
		return nil
	}
	switch t := n.(type) {
	case *phpast.Namespace:
		if v.hasNamespace && !strings.EqualFold(v.namespace, t.Name) {
			v.report.warn(t.Name, "multiple namespaces are not supported")
			return v.abort("multiple namespaces")
		}
		v.namespace, v.hasNamespace, v.inNamespace = t.Name, true, true
		v.report.debug("enter namespace", "namespace", t.Name)
		return v.state.Fire(v.ctx, EventEnterNamespace)
	case *phpast.Use:
		v.imports.Add(t)
	case *phpast.ClassLike:
		return v.enterClass(t)
	}
	return nil
}

func (v *visitor) Leave(n phpast.Node) error {
	if v.state.Aborted() {
		return nil
	}
	switch t := n.(type) {
	case *phpast.Namespace:
		v.inNamespace = false
		return v.state.Fire(v.ctx, EventLeaveNamespace)
	case *phpast.ClassLike:
		return v.leaveClass(t)
	case *phpast.Method:
		if v.active() {
			return v.generateMethod(t)
		}
	case *phpast.Property:
		if v.active() {
			return v.generateProperty(t)
		}
	case *phpast.Const:
		if v.active() {
			return v.generateConst(t)
		}
	}
	return nil
}

// active reports whether members are rewritten at this point.
func (v *visitor) active() bool {
	return v.class != nil && v.anonymous == 0
}

func (v *visitor) enterClass(c *phpast.ClassLike) error {
	id := v.nextID
	v.nextID++
	v.scopes = append(v.scopes, scope{id: id, node: c})
	v.scopeIDs[c] = id

	if c.Anonymous {
		v.anonymous++
		return nil
	}
	if v.classSeen {
		v.report.warn(c.Name, "multiple classes are not supported")
		return v.abort("multiple classes")
	}
	if err := v.state.Fire(v.ctx, EventEnterClass); err != nil {
		return err
	}

	fqcn := c.Name
	if v.namespace != "" {
		fqcn = v.namespace + `\` + c.Name
	}
	decl, ok := v.provider.Lookup(fqcn)
	if !ok {
		v.report.warn(fqcn, "class not found in metadata index")
		return nil
	}
	v.report.debug("enter class", "class", fqcn, "imports", v.imports.Len())
	v.classSeen = true
	v.class = &classContext{
		node:       c,
		decl:       decl,
		fqcn:       fqcn,
		comment:    docText(c),
		definition: v.isAnnotationDefinition(c, decl),
	}
	return nil
}

func (v *visitor) leaveClass(c *phpast.ClassLike) error {
	if len(v.scopes) == 0 {
		return errors.AssertionFailedf("leaving class %q with no open scope", c.Name)
	}
	top := v.scopes[len(v.scopes)-1]
	v.scopes = v.scopes[:len(v.scopes)-1]
	id, ok := v.scopeIDs[c]
	if !ok || top.id != id {
		return errors.AssertionFailedf("scope mismatch leaving class %q: open scope %d", c.Name, top.id)
	}
	delete(v.scopeIDs, c)

	if c.Anonymous {
		v.anonymous--
		return nil
	}
	if v.class != nil && v.class.node == c {
		err := v.generateClass()
		v.class = nil
		if err != nil {
			return err
		}
	}
	event := EventLeaveClassFile
	if v.inNamespace {
		event = EventLeaveClassNS
	}
	return v.state.Fire(v.ctx, event)
}

// abort stops processing of the file and applies the strategy's abort
// policy.
func (v *visitor) abort(reason string) error {
	v.abortReason = reason
	v.sink.Abort()
	return v.state.Fire(v.ctx, EventAbort)
}

func (v *visitor) isAnnotationDefinition(c *phpast.ClassLike, decl *metadata.Declaration) bool {
	parent := decl.Parent
	if parent == "" && c.Extends != "" {
		parent = v.resolveClassRef(c.Extends)
	}
	return parent != "" && strings.EqualFold(metadata.NormalizeName(parent), metadata.NormalizeName(v.opts.AnnotationBase))
}

// resolveClassRef resolves a class name as written in code.
func (v *visitor) resolveClassRef(name string) string {
	if strings.HasPrefix(name, `\`) {
		return metadata.NormalizeName(name)
	}
	head, rest, qualified := strings.Cut(name, `\`)
	if imported, ok := v.imports.Resolve(head); ok {
		if qualified {
			return imported + `\` + rest
		}
		return imported
	}
	if v.namespace != "" {
		return v.namespace + `\` + name
	}
	return name
}

func (v *visitor) record(c Change) error {
	return v.sink.Record(c)
}

func docText(d phpast.Decl) string {
	if doc := d.DocComment(); doc != nil {
		return doc.Text
	}
	return ""
}
