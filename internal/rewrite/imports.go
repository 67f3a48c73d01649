package rewrite

import (
	"sort"
	"strings"

	"github.com/Someblueman/phpattr/internal/metadata"
	"github.com/Someblueman/phpattr/internal/phpast"
)

type importEntry struct {
	name  string
	local string
}

// Imports is the ordered alias table of one file. Lookups scan from the
// end, so the last registered entry wins.
type Imports struct {
	entries []importEntry
}

// Add registers every class import of a use statement.
func (t *Imports) Add(u *phpast.Use) {
	if u.Kind != phpast.UseClass {
		return
	}
	for _, clause := range u.Clauses {
		t.entries = append(t.entries, importEntry{
			name:  metadata.NormalizeName(clause.Name),
			local: clause.LocalName(),
		})
	}
}

// Local returns the name under which fqcn was imported.
func (t *Imports) Local(fqcn string) (string, bool) {
	fqcn = metadata.NormalizeName(fqcn)
	for i := len(t.entries) - 1; i >= 0; i-- {
		if strings.EqualFold(t.entries[i].name, fqcn) {
			return t.entries[i].local, true
		}
	}
	return "", false
}

// Resolve maps a local alias to the imported fully-qualified name.
func (t *Imports) Resolve(local string) (string, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if strings.EqualFold(t.entries[i].local, local) {
			return t.entries[i].name, true
		}
	}
	return "", false
}

// Len returns the number of registered imports.
func (t *Imports) Len() int { return len(t.entries) }

// resolveTag returns the candidate fully-qualified names of an annotation
// tag as written in a doc comment.
func resolveTag(tag, namespace string, imports *Imports, global map[string]string) []string {
	if strings.HasPrefix(tag, `\`) {
		return []string{metadata.NormalizeName(tag)}
	}
	head, rest, qualified := strings.Cut(tag, `\`)
	var out []string
	if name, ok := imports.Resolve(head); ok {
		if qualified {
			name += `\` + rest
		}
		out = append(out, name)
	}
	if name, ok := globalAlias(global, head); ok {
		if qualified {
			name += `\` + rest
		}
		out = append(out, name)
	}
	if namespace != "" {
		out = append(out, namespace+`\`+tag)
	}
	return append(out, tag)
}

func globalAlias(global map[string]string, alias string) (string, bool) {
	if name, ok := global[alias]; ok {
		return name, true
	}
	keys := make([]string, 0, len(global))
	for key := range global {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.EqualFold(key, alias) {
			return global[key], true
		}
	}
	return "", false
}

// tagMatches reports whether a comment tag refers to typeName.
func tagMatches(tag, typeName, namespace string, imports *Imports, global map[string]string) bool {
	typeName = metadata.NormalizeName(typeName)
	for _, candidate := range resolveTag(tag, namespace, imports, global) {
		if strings.EqualFold(candidate, typeName) {
			return true
		}
	}
	return strings.EqualFold(metadata.ShortName(tag), metadata.ShortName(typeName)) && !strings.Contains(tag, `\`)
}
