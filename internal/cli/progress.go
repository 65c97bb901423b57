package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// ProgressBar renders a single-line progress bar.
type ProgressBar struct {
	completed int
	total     int
	label     string
	width     int
}

// NewProgressBar creates a new progress bar with the specified total and width.
func NewProgressBar(total int, width int) *ProgressBar {
	if width <= 0 {
		width = 15
	}
	return &ProgressBar{
		total: total,
		width: width,
	}
}

// Update sets the current progress and label. The total can grow while
// the bar is shown.
func (p *ProgressBar) Update(completed, total int, label string) {
	p.completed = min(max(completed, 0), total)
	p.total = total
	p.label = label
}

// Render returns the formatted progress bar string.
func (p *ProgressBar) Render() string {
	if p.total == 0 {
		return ""
	}

	percent := float64(p.completed) / float64(p.total)
	filled := int(float64(p.width) * percent)
	empty := p.width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)

	progressStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	barStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	countStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B6B6B"))

	return progressStyle.Render("⚡ ") +
		barStyle.Render("["+bar+"]") +
		countStyle.Render(fmt.Sprintf(" %d/%d ", p.completed, p.total)) +
		progressStyle.Render(p.label)
}

// ClearLine clears the current line for in-place progress updates.
func ClearLine(w io.Writer) {
	fmt.Fprint(w, "\r\033[K")
}

// drain waits for the task queue to run dry, redrawing a progress bar of
// finished tasks meanwhile.
func drain(cmd *cobra.Command) error {
	q := app.Queue
	if q == nil {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	done := make(chan error, 1)
	go func() { done <- q.Wait(ctx) }()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	bar := NewProgressBar(0, 20)
	drawn := false
	for {
		select {
		case err := <-done:
			if drawn {
				ClearLine(out)
			}
			if err != nil {
				return fmt.Errorf("wait for background tasks: %w", err)
			}
			return nil
		case <-ticker.C:
			total, pending := q.Enqueued(), q.Pending()
			bar.Update(total-pending, total, fmt.Sprintf("%d pending", pending))
			ClearLine(out)
			fmt.Fprint(out, bar.Render())
			drawn = true
		}
	}
}
