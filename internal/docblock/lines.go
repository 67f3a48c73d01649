package docblock

import (
	"bytes"
	"regexp"
	"strings"
)

var (
	tagCandidatePattern = regexp.MustCompile(`^\s*\*\s+@(property|param)`)
	tagLinePattern      = regexp.MustCompile(`^\*\s+@((?:property|param)\S*?)\s+(\S+)\s+\$(\S+)(?:\s([\S\s]+))?`)
	openLinePattern     = regexp.MustCompile(`^\s*/\*+$`)
	closeLinePattern    = regexp.MustCompile(`^\s*\*+/$`)
)

// LineKind classifies a doc-comment line.
type LineKind int

const (
	// Raw lines are preserved verbatim.
	Raw LineKind = iota
	// Tag lines are well-formed @property / @param declarations.
	Tag
)

// Line is one parsed doc-comment line.
type Line struct {
	Kind    LineKind
	Text    string
	Head    string
	Type    string
	Name    string
	Comment string
}

// IsProperty reports whether the tag is one of the @property variants.
func (l Line) IsProperty() bool {
	return l.Kind == Tag && strings.HasPrefix(l.Head, "property")
}

// IsParam reports whether the tag is a @param line.
func (l Line) IsParam() bool {
	return l.Kind == Tag && l.Head == "param"
}

// ParseLines splits a doc comment into raw and tag lines. The opening and
// closing delimiter lines are not returned.
func ParseLines(comment string) []Line {
	if comment == "" {
		return nil
	}
	var lines []Line
	for _, text := range splitLines(comment) {
		if openLinePattern.MatchString(text) || closeLinePattern.MatchString(text) {
			continue
		}
		lines = append(lines, parseLine(text))
	}
	return lines
}

func parseLine(text string) Line {
	if !tagCandidatePattern.MatchString(text) {
		return Line{Kind: Raw, Text: text}
	}
	m := tagLinePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Line{Kind: Raw, Text: text}
	}
	return Line{
		Kind:    Tag,
		Text:    text,
		Head:    m[1],
		Type:    m[2],
		Name:    m[3],
		Comment: strings.TrimSpace(m[4]),
	}
}

// VarType returns the type of the first @var tag in comment.
func VarType(comment string) string {
	for _, text := range splitLines(comment) {
		m := varTagPattern.FindStringSubmatch(text)
		if m != nil {
			return m[1]
		}
	}
	return ""
}

var varTagPattern = regexp.MustCompile(`^\s*(?:/\*\*)?\s*\*?\s*@var\s+(\S+)`)

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// LineEnding returns the line break of the first line of src, "\n" when src
// has none.
func LineEnding(src []byte) string {
	i := bytes.IndexByte(src, '\n')
	if i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// WithLineEnding rewrites every line break of text to eol.
func WithLineEnding(text, eol string) string {
	if eol == "\n" || !strings.Contains(text, "\n") {
		return text
	}
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", eol)
}
