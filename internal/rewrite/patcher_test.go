package rewrite

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Someblueman/phpattr/internal/phpast"
)

const patchSource = "<?php\n\nclass A\n{\n    /**\n     * @Old\n     */\n    public const LIMIT = 10;\n}\n"

func parse(t *testing.T, name, src string) *phpast.File {
	t.Helper()
	f, err := phpast.Parse(name, []byte(src))
	require.NoError(t, err)
	return f
}

func TestPatcherEmptyQueueRoundTrip(t *testing.T) {
	f := parse(t, "a.php", patchSource)
	out, err := NewPatcher("a.php", nil).Apply(f, &Queue{})
	require.NoError(t, err)
	assert.Equal(t, patchSource, string(out))
}

func TestPatcherAppliesRecordsLastFirst(t *testing.T) {
	f := parse(t, "a.php", patchSource)
	docStart := strings.Index(patchSource, "/**")
	docEnd := strings.Index(patchSource, "*/") + 2

	q := &Queue{}
	require.NoError(t, q.Push(EditRecord{
		Kind:       DeclConst,
		File:       f,
		Anchor:     strings.Index(patchSource, "LIMIT"),
		Doc:        phpast.Span{Start: docStart, End: docEnd},
		Attributes: "#[Limit]",
		HasComment: true,
	}))
	require.NoError(t, q.Push(EditRecord{
		Kind:       DeclClass,
		File:       f,
		Anchor:     strings.Index(patchSource, "A\n"),
		Attributes: "#[First]\n#[Second]",
		Prepend:    true,
	}))
	assert.Equal(t, 2, q.Len())

	out, err := NewPatcher("a.php", nil).Apply(f, q)
	require.NoError(t, err)
	assert.Equal(t, "<?php\n\n#[First]\n#[Second]\nclass A\n{\n    #[Limit]\n    public const LIMIT = 10;\n}\n", string(out))
	assert.Zero(t, q.Len())
}

func TestPatcherKeepsRemainingComment(t *testing.T) {
	src := "<?php\nclass A\n{\n    /** @Old first line */\n    public function run() {}\n}\n"
	f := parse(t, "a.php", src)
	docStart := strings.Index(src, "/**")
	docEnd := strings.Index(src, "*/") + 2

	q := &Queue{}
	require.NoError(t, q.Push(EditRecord{
		Kind:       DeclMethod,
		File:       f,
		Anchor:     strings.Index(src, "run"),
		Doc:        phpast.Span{Start: docStart, End: docEnd},
		Comment:    "/** first line */",
		HasComment: true,
		Replacements: []Replacement{
			{Start: strings.Index(src, "{}"), End: strings.Index(src, "{}") + 2, Text: "{\n    }"},
		},
	}))
	out, err := NewPatcher("a.php", nil).Apply(f, q)
	require.NoError(t, err)
	assert.Equal(t, "<?php\nclass A\n{\n    /**\n     * first line\n     */\n    public function run() {\n    }\n}\n", string(out))
}

func TestPatcherSkipsMissingDeclarationLine(t *testing.T) {
	f := parse(t, "a.php", patchSource)
	q := &Queue{}
	require.NoError(t, q.Push(EditRecord{
		Kind:       DeclConst,
		File:       f,
		Anchor:     strings.Index(patchSource, "A\n"),
		Attributes: "#[Limit]",
	}))

	p := NewPatcher("a.php", nil)
	out, err := p.Apply(f, q)
	require.NoError(t, err)
	assert.Equal(t, patchSource, string(out))
	require.Len(t, p.Warnings(), 1)
	assert.Contains(t, p.Warnings()[0], "declaration line not found")
}

func TestPatcherRejectsDrainedQueue(t *testing.T) {
	f := parse(t, "a.php", patchSource)
	q := &Queue{}
	p := NewPatcher("a.php", nil)
	_, err := p.Apply(f, q)
	require.NoError(t, err)

	_, err = p.Apply(f, q)
	require.Error(t, err)
	assert.Error(t, q.Push(EditRecord{File: f}))
}

func TestPatcherRejectsForeignRecord(t *testing.T) {
	f := parse(t, "a.php", patchSource)
	other := parse(t, "b.php", patchSource)
	q := &Queue{}
	require.NoError(t, q.Push(EditRecord{Kind: DeclClass, File: other, Attributes: "#[X]"}))

	_, err := NewPatcher("a.php", nil).Apply(f, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.php")
}

func TestQueueOrder(t *testing.T) {
	q := &Queue{}
	require.NoError(t, q.Push(EditRecord{Anchor: 10}))
	require.NoError(t, q.Push(EditRecord{Anchor: 20}))
	require.NoError(t, q.Push(EditRecord{Anchor: 1, Prepend: true}))

	var anchors []int
	for {
		rec, ok := q.Pop()
		if !ok {
			break
		}
		anchors = append(anchors, rec.Anchor)
	}
	assert.Equal(t, []int{20, 10, 1}, anchors)

	require.NoError(t, q.Push(EditRecord{Anchor: 5}))
	q.Clear()
	assert.Zero(t, q.Len())
}

func TestKeywordLine(t *testing.T) {
	text := []byte("<?php\n\tfinal class A\n{\n    #[Old]\n    public static function\n    run() {}\n}\n")
	start, indent, ok := keywordLine(text, strings.Index(string(text), "A\n"), declKeywords[DeclClass])
	require.True(t, ok)
	assert.Equal(t, strings.Index(string(text), "\tfinal"), start)
	assert.Equal(t, "\t", indent)

	start, indent, ok = keywordLine(text, strings.Index(string(text), "run"), declKeywords[DeclMethod])
	require.True(t, ok)
	assert.Equal(t, strings.Index(string(text), "    public"), start)
	assert.Equal(t, "    ", indent)

	_, _, ok = keywordLine(text, 3, declKeywords[DeclProperty])
	assert.False(t, ok)
}

func TestCommentLine(t *testing.T) {
	text := []byte("a\n    /** x */\nb /** y */ c\n")
	start, end := commentLine(text, 6, 14)
	assert.Equal(t, 2, start)
	assert.Equal(t, 15, end)

	start, end = commentLine(text, 17, 25)
	assert.Equal(t, 17, start)
	assert.Equal(t, 25, end)
}

func TestTraversalStates(t *testing.T) {
	ctx := context.Background()
	tr := newTraversal()
	assert.Equal(t, StateScanning, tr.Current())

	require.NoError(t, tr.Fire(ctx, EventEnterNamespace))
	require.NoError(t, tr.Fire(ctx, EventEnterNamespace))
	assert.Equal(t, StateInsideNamespace, tr.Current())

	require.NoError(t, tr.Fire(ctx, EventEnterClass))
	assert.Equal(t, StateInsideClass, tr.Current())
	require.NoError(t, tr.Fire(ctx, EventLeaveClassNS))
	assert.Equal(t, StateInsideNamespace, tr.Current())

	require.NoError(t, tr.Fire(ctx, EventLeaveNamespace))
	assert.Equal(t, StateScanning, tr.Current())

	require.Error(t, tr.Fire(ctx, EventLeaveClassFile))

	require.NoError(t, tr.Fire(ctx, EventAbort))
	assert.True(t, tr.Aborted())
	require.Error(t, tr.Fire(ctx, EventEnterClass))
}
