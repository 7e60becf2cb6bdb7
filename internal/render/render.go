// Package render formats ValidationRecords as terminal output: colored
// and tabular on a TTY, plain text when stdout is piped or redirected.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/jdutton/vibe-validate/internal/model"
)

const (
	colorSuccess = "42"  // green
	colorError   = "203" // red
	colorMuted   = "240" // dark gray
	colorAccent  = "45"  // cyan
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	boldStyle    = lipgloss.NewStyle().Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
)

// Renderer writes ValidationRecords to an io.Writer, coloring output
// when the target looks like a terminal.
type Renderer struct {
	w      io.Writer
	isTerm bool
}

// New returns a Renderer for w. isTerminal is an os.File-only check
// (isatty.IsTerminal on its Fd()); callers pass false for non-*os.File
// writers such as a captured buffer.
func New(w io.Writer, isTerminal bool) *Renderer {
	return &Renderer{w: w, isTerm: isTerminal}
}

// NewForFile returns a Renderer that detects TTY-ness from f's file
// descriptor, the way cmd/run.go picks between colored and plain output
// for os.Stdout/os.Stderr.
func NewForFile(f interface{ Fd() uintptr }, w io.Writer) *Renderer {
	return &Renderer{w: w, isTerm: isatty.IsTerminal(f.Fd())}
}

func (r *Renderer) style(s lipgloss.Style) lipgloss.Style {
	if !r.isTerm {
		return lipgloss.NewStyle()
	}
	return s
}

func (r *Renderer) statusIcon(passed bool) string {
	if passed {
		return r.style(successStyle).Render("✓")
	}
	return r.style(errorStyle).Render("✗")
}

// Record renders a full ValidationRecord: a header line, one line per
// phase, and one indented line per step.
func (r *Renderer) Record(rec model.ValidationRecord) {
	fmt.Fprintf(r.w, "%s %s (%s)\n",
		r.statusIcon(rec.Passed),
		r.style(boldStyle).Render(rec.Summary),
		formatDuration(rec.DurationMs))

	for _, phase := range rec.Phases {
		r.phase(phase)
	}

	if !rec.Passed && rec.FailedStep != "" {
		fmt.Fprintf(r.w, "%s %s\n",
			r.style(mutedStyle).Render("failed step:"),
			r.style(errorStyle).Render(rec.FailedStep))
	}
}

func (r *Renderer) phase(phase model.PhaseRecord) {
	fmt.Fprintf(r.w, "  %s %s %s\n",
		r.statusIcon(phase.Passed),
		phase.Name,
		r.style(mutedStyle).Render(formatSeconds(phase.DurationSecs)))

	for _, step := range phase.Steps {
		r.step(step)
	}
}

func (r *Renderer) step(step model.StepRecord) {
	fmt.Fprintf(r.w, "    %s %s %s\n",
		r.statusIcon(step.Passed),
		step.Name,
		r.style(mutedStyle).Render(formatSeconds(step.DurationSecs)))

	if step.Extraction == nil {
		return
	}
	for _, e := range step.Extraction.Errors {
		fmt.Fprintf(r.w, "      %s %s\n", r.style(mutedStyle).Render("·"), errorLine(e))
	}
	if step.Extraction.TotalErrors > len(step.Extraction.Errors) {
		remaining := step.Extraction.TotalErrors - len(step.Extraction.Errors)
		fmt.Fprintf(r.w, "      %s\n", r.style(mutedStyle).Render(fmt.Sprintf("… and %d more", remaining)))
	}
	if step.FullOutputFile != "" {
		fmt.Fprintf(r.w, "      %s %s\n",
			r.style(mutedStyle).Render("full output:"),
			r.style(accentStyle).Render(step.FullOutputFile))
	}
}

func errorLine(e model.ExtractedError) string {
	var loc strings.Builder
	if e.File != "" {
		loc.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&loc, ":%d", e.Line)
			if e.Column > 0 {
				fmt.Fprintf(&loc, ":%d", e.Column)
			}
		}
		loc.WriteString(": ")
	}
	return loc.String() + e.Message
}

func formatDuration(ms int64) string {
	return formatSeconds(float64(ms) / 1000)
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.1fs", s)
}
