package docblock

import (
	"regexp"
	"strings"
)

var emptyCommentLinePattern = regexp.MustCompile(`^[\s*/]*$`)

// LinePadding left-aligns every non-blank line of content at width spaces.
func LinePadding(content string, width int) string {
	return IndentLines(content, strings.Repeat(" ", max(width, 0)))
}

// IndentLines is LinePadding with an explicit indent string.
func IndentLines(content, indent string) string {
	var out []string
	for _, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, indent+strings.TrimLeft(line, " \t"))
	}
	return strings.Join(out, "\n")
}

// CleanComments rebuilds a well-formed /** ... */ block indented by width
// spaces. It returns "" when nothing but whitespace and asterisks remain.
func CleanComments(comments string, width int, dropEmptyLines bool) string {
	return CleanCommentsIndent(comments, strings.Repeat(" ", max(width, 0)), dropEmptyLines)
}

// CleanCommentsIndent is CleanComments with an explicit indent string. The
// first line is not indented; it is expected to replace a comment in place.
func CleanCommentsIndent(comments, indent string, dropEmptyLines bool) string {
	var lines []string
	for _, line := range splitLines(comments) {
		line = strings.TrimLeft(line, " \t")
		if openLinePattern.MatchString(line) || closeLinePattern.MatchString(line) {
			continue
		}
		line = stripDelimiters(line)
		if line == "" {
			if !dropEmptyLines {
				lines = append(lines, indent+" *")
			}
			continue
		}
		if line[0] == '*' {
			line = " " + line
		} else {
			line = " * " + line
		}
		lines = append(lines, indent+line)
	}

	lines = trimBlankEdges(lines)
	if isEmptyLines(lines) {
		return ""
	}
	return "/**\n" + strings.Join(lines, "\n") + "\n" + indent + " */"
}

// IsEmpty reports whether a comment carries no text besides delimiters.
func IsEmpty(comment string) bool {
	return isEmptyLines(splitLines(comment))
}

// stripDelimiters removes a leading /** and a trailing */ left on a content
// line, as found in single-line comments.
func stripDelimiters(line string) string {
	if strings.HasPrefix(line, "/*") {
		line = strings.TrimLeft(line[2:], "*")
		line = strings.TrimLeft(line, " \t")
	}
	line = strings.TrimRight(line, " \t\r")
	if strings.HasSuffix(line, "*/") {
		line = strings.TrimRight(line[:len(line)-2], " \t")
		if strings.Trim(line, "*") == "" {
			return ""
		}
	}
	return line
}

func trimBlankEdges(lines []string) []string {
	blank := func(line string) bool {
		return strings.Trim(line, " \t\n\r\x00\x0B*") == ""
	}
	for len(lines) > 0 && blank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && blank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isEmptyLines(lines []string) bool {
	for _, line := range lines {
		if !emptyCommentLinePattern.MatchString(line) {
			return false
		}
	}
	return true
}
