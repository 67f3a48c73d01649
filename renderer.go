package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Status is the per-file outcome printed by migrate.
type Status int

const (
	StatusSkip Status = iota
	StatusRewrite
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusRewrite:
		return "Rewrite"
	case StatusError:
		return "Error"
	}
	return "Skip"
}

// Summary counts the files of one run per status.
type Summary struct {
	Rewritten int
	Skipped   int
	Failed    int
}

func (s *Summary) add(status Status) {
	switch status {
	case StatusRewrite:
		s.Rewritten++
	case StatusError:
		s.Failed++
	default:
		s.Skipped++
	}
}

// Renderer prints migration progress lines.
type Renderer struct {
	w       io.Writer
	verbose bool
	colors  map[Status]*color.Color
	warn    *color.Color
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, colored, verbose bool) *Renderer {
	r := &Renderer{
		w:       w,
		verbose: verbose,
		colors: map[Status]*color.Color{
			StatusSkip:    color.New(color.FgHiBlack),
			StatusRewrite: color.New(color.FgGreen),
			StatusError:   color.New(color.FgRed, color.Bold),
		},
		warn: color.New(color.FgYellow),
	}
	for _, c := range append(r.all(), r.warn) {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *Renderer) all() []*color.Color {
	return []*color.Color{r.colors[StatusSkip], r.colors[StatusRewrite], r.colors[StatusError]}
}

// File prints the status line of path, followed by its warnings and error
// detail in verbose mode.
func (r *Renderer) File(status Status, path string, warnings []string, err error) {
	fmt.Fprintf(r.w, "%s\t%s\n", r.colors[status].Sprint(status.String()), path)
	if err != nil {
		fmt.Fprintf(r.w, "\t%s\n", err)
	}
	if !r.verbose {
		return
	}
	for _, w := range warnings {
		fmt.Fprintf(r.w, "\t%s %s\n", r.warn.Sprint("warning:"), w)
	}
}

// Summary prints the closing line of a run.
func (r *Renderer) Summary(s Summary, dryRun bool) {
	parts := []string{
		fmt.Sprintf("%d rewritten", s.Rewritten),
		fmt.Sprintf("%d skipped", s.Skipped),
		fmt.Sprintf("%d failed", s.Failed),
	}
	line := strings.Join(parts, ", ")
	if dryRun {
		line += " (dry run, nothing written)"
	}
	fmt.Fprintln(r.w, line)
}
