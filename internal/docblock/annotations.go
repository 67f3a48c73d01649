package docblock

import "strings"

// Annotation is the byte span of one top-level @Name(...) occurrence in a
// doc comment.
type Annotation struct {
	Name  string
	Start int
	End   int
}

// ScanAnnotations returns the top-level annotation spans of comment in
// order. Annotations nested inside another annotation's arguments are part of
// the outer span. Unbalanced argument lists end at the name.
func ScanAnnotations(comment string) []Annotation {
	var found []Annotation
	for i := 0; i < len(comment); i++ {
		if comment[i] != '@' || !tagBoundary(comment, i) {
			continue
		}
		nameEnd := i + 1
		for nameEnd < len(comment) && isNameByte(comment[nameEnd], nameEnd == i+1) {
			nameEnd++
		}
		if nameEnd == i+1 {
			continue
		}
		ann := Annotation{Name: comment[i+1 : nameEnd], Start: i, End: nameEnd}
		if nameEnd < len(comment) && comment[nameEnd] == '(' {
			if closeAt, ok := matchParen(comment, nameEnd); ok {
				ann.End = closeAt + 1
			}
		}
		found = append(found, ann)
		i = ann.End - 1
	}
	return found
}

// Strip blanks the annotation span with spaces. When only a "*" prefix
// precedes the annotation on its line, the prefix is blanked as well so the
// line cleans away entirely.
func Strip(comment string, ann Annotation) string {
	if ann.Start < 0 || ann.End > len(comment) || ann.Start >= ann.End {
		return comment
	}
	begin := ann.Start
	lineStart := strings.LastIndexByte(comment[:begin], '\n') + 1
	if starPrefix(comment[lineStart:begin]) {
		begin = lineStart
	}
	return comment[:begin] + strings.Repeat(" ", ann.End-begin) + comment[ann.End:]
}

func starPrefix(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Trim(s, "*") == ""
}

func tagBoundary(s string, at int) bool {
	if at == 0 {
		return true
	}
	switch s[at-1] {
	case ' ', '\t', '\n', '\r', '*':
		return true
	}
	return false
}

func isNameByte(b byte, first bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b == '_', b == '\\', b >= 0x80:
		return true
	case b >= '0' && b <= '9':
		return !first
	}
	return false
}

func matchParen(s string, open int) (int, bool) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
