package rewrite

import (
	"github.com/cockroachdb/errors"

	"github.com/Someblueman/phpattr/internal/phpast"
)

// Replacement replaces source bytes [Start, End) with Text.
type Replacement struct {
	Start int
	End   int
	Text  string
}

// EditRecord is one pending text edit of a file.
type EditRecord struct {
	Kind DeclKind
	File *phpast.File
	// Anchor is the original offset of the declaration's name token.
	Anchor int
	// Doc is the original doc comment span; it is invalid when the
	// declaration had no doc comment.
	Doc phpast.Span
	// Attributes is the rendered attribute text, "" when none.
	Attributes string
	// Comment replaces Doc when HasComment is set. An empty Comment removes
	// the doc comment.
	Comment    string
	HasComment bool
	Prepend    bool
	// Replacements are applied before the attribute insertion.
	Replacements []Replacement
}

// Queue holds the edit records of one file generation. It is drained once
// by the Patcher.
type Queue struct {
	records []EditRecord
	drained bool
}

// Push adds rec to the front when rec.Prepend is set, otherwise to the back.
func (q *Queue) Push(rec EditRecord) error {
	if q.drained {
		return errors.AssertionFailedf("edit queue reused after it was drained")
	}
	if rec.Prepend {
		q.records = append([]EditRecord{rec}, q.records...)
		return nil
	}
	q.records = append(q.records, rec)
	return nil
}

// Pop removes and returns the most recently pushed record at the back.
func (q *Queue) Pop() (EditRecord, bool) {
	if len(q.records) == 0 {
		return EditRecord{}, false
	}
	last := len(q.records) - 1
	rec := q.records[last]
	q.records = q.records[:last]
	return rec, true
}

// Len returns the number of pending records.
func (q *Queue) Len() int { return len(q.records) }

// Clear drops all pending records.
func (q *Queue) Clear() { q.records = nil }
