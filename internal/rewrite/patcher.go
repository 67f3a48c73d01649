package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Someblueman/phpattr/internal/docblock"
	"github.com/Someblueman/phpattr/internal/phpast"
	"github.com/Someblueman/phpattr/internal/printer"
)

// keywords that may start the first line of a declaration, per kind.
var declKeywords = map[DeclKind][]string{
	DeclClass:    {"final", "abstract", "trait", "class", "readonly", "interface", "enum"},
	DeclMethod:   {"public", "protected", "private", "function", "static", "abstract", "final"},
	DeclProperty: {"public", "protected", "private", "static", "readonly", "var"},
	DeclConst:    {"public", "protected", "private", "const", "final"},
}

// Patcher applies queued edit records to the original bytes of a file.
type Patcher struct {
	report *reporter
}

// NewPatcher creates a patcher logging skipped edits to log.
func NewPatcher(file string, log *zap.SugaredLogger) *Patcher {
	return &Patcher{report: newReporter(file, log)}
}

// Warnings returns the edits skipped so far.
func (p *Patcher) Warnings() []string { return p.report.warnings }

// Apply drains q, most recently pushed record first, and returns the patched
// text. The queue cannot be used again afterwards.
func (p *Patcher) Apply(f *phpast.File, q *Queue) ([]byte, error) {
	if q.drained {
		return nil, errors.AssertionFailedf("edit queue for %s already drained", f.Name)
	}
	text := append([]byte(nil), f.Source...)
	eol := docblock.LineEnding(f.Source)
	for {
		rec, ok := q.Pop()
		if !ok {
			break
		}
		if rec.File != f {
			q.drained = true
			return nil, errors.AssertionFailedf("edit record for %s applied to %s", fileName(rec.File), f.Name)
		}
		text = p.apply(text, rec, eol)
	}
	q.drained = true
	return text, nil
}

// apply splices one record into text. Inserted text uses the line ending
// eol of the original file.
func (p *Patcher) apply(text []byte, rec EditRecord, eol string) []byte {
	indent := ""
	insertAt := -1
	if rec.Attributes != "" {
		start, lineIndent, ok := keywordLine(text, rec.Anchor, declKeywords[rec.Kind])
		if !ok {
			p.report.warn(fmt.Sprintf("%s at offset %d", rec.Kind, rec.Anchor), "declaration line not found, edit skipped")
			return text
		}
		insertAt, indent = start, lineIndent
	} else if rec.Doc.Valid() {
		indent = printer.LineIndent(text, rec.Doc.Start)
	}

	reps := append([]Replacement(nil), rec.Replacements...)
	sort.SliceStable(reps, func(i, j int) bool { return reps[i].Start > reps[j].Start })
	for _, r := range reps {
		text = splice(text, r.Start, r.End, docblock.WithLineEnding(r.Text, eol))
	}

	if insertAt >= 0 {
		text = splice(text, insertAt, insertAt, docblock.WithLineEnding(docblock.IndentLines(rec.Attributes, indent)+"\n", eol))
	}

	if rec.HasComment && rec.Doc.Valid() {
		cleaned := docblock.CleanCommentsIndent(rec.Comment, indent, false)
		start, end := rec.Doc.Start, rec.Doc.End
		if cleaned == "" {
			start, end = commentLine(text, start, end)
		}
		text = splice(text, start, end, docblock.WithLineEnding(cleaned, eol))
	}
	return text
}

// keywordLine scans backward from anchor for the nearest line whose first
// word is one of keywords. It returns the line start and its indentation.
func keywordLine(text []byte, anchor int, keywords []string) (int, string, bool) {
	end := min(max(anchor, 0), len(text))
	for {
		start := strings.LastIndexByte(string(text[:end]), '\n') + 1
		i := start
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		j := i
		for j < len(text) && isWordByte(text[j]) {
			j++
		}
		word := string(text[i:j])
		for _, kw := range keywords {
			if strings.EqualFold(word, kw) {
				return start, string(text[start:i]), true
			}
		}
		if start == 0 {
			return 0, "", false
		}
		end = start - 1
	}
}

// commentLine widens a comment span to its whole line when nothing else is
// on that line.
func commentLine(text []byte, start, end int) (int, int) {
	lineStart := start
	for lineStart > 0 && (text[lineStart-1] == ' ' || text[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart > 0 && text[lineStart-1] != '\n' {
		return start, end
	}
	lineEnd := end
	for lineEnd < len(text) && (text[lineEnd] == ' ' || text[lineEnd] == '\t' || text[lineEnd] == '\r') {
		lineEnd++
	}
	if lineEnd < len(text) && text[lineEnd] != '\n' {
		return start, end
	}
	if lineEnd < len(text) {
		lineEnd++
	}
	return lineStart, lineEnd
}

func splice(text []byte, start, end int, repl string) []byte {
	start = min(max(start, 0), len(text))
	end = min(max(end, start), len(text))
	out := make([]byte, 0, len(text)-(end-start)+len(repl))
	out = append(out, text[:start]...)
	out = append(out, repl...)
	return append(out, text[end:]...)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func fileName(f *phpast.File) string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}
