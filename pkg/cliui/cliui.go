// Package cliui holds the small set of lipgloss styles and helpers shared by
// the ambient commands: step spinners, key/value lines and rendered memory
// documents.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	StepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step shows a spinner next to msg while fn runs and then settles on a
// ✓ or ✗ with the elapsed time. The error from fn is returned unchanged.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var mu sync.Mutex

	go func() {
		defer close(stopped)

		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)
	<-stopped

	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)

	return err
}

// Mark returns a ✓ for nil errors or ✗ otherwise.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats d as "12ms" below a second and "3.2s" above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// KeyValue writes one indented "key  value" line. Empty values render as
// a dimmed <not set>.
func KeyValue(w io.Writer, key, value string) {
	if value == "" {
		fmt.Fprintf(w, "  %s  %s\n", KeyStyle.Render(key), DimStyle.Render("<not set>"))
		return
	}
	fmt.Fprintf(w, "  %s  %s\n", KeyStyle.Render(key), ValueStyle.Render(value))
}

// RenderMarkdown renders markdown for the terminal. On failure the raw
// content is returned alongside the error so callers can still print it.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
