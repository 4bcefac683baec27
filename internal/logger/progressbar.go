package logger

import (
	"fmt"
	"strings"
	"sync"
)

// ProgressBar renders an ASCII progress bar with optional ANSI color.
// When the total is unknown (zero), Render degrades to a plain counter.
type ProgressBar struct {
	mu          sync.Mutex
	current     int
	total       int
	width       int
	enableColor bool
}

// NewProgressBar creates a progress bar over total units, rendered width
// characters wide. A width below 1 falls back to 10.
func NewProgressBar(total, width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{
		total:       total,
		width:       width,
		enableColor: enableColor,
	}
}

// Update sets the current progress value.
func (pb *ProgressBar) Update(current int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
}

// Increment advances the current progress by 1.
func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current++
}

// Current returns the current progress value.
func (pb *ProgressBar) Current() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.current
}

// Percentage returns the progress percentage clamped to 0-100. Always 0
// when the total is unknown.
func (pb *ProgressBar) Percentage() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return clampedPercentage(pb.current, pb.total)
}

// Render generates the progress bar string, e.g. "[====      ] 4/10 (40%)".
// With an unknown total it renders just the counter, e.g. "4".
func (pb *ProgressBar) Render() string {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if pb.total == 0 {
		return fmt.Sprintf("%d", pb.current)
	}

	perc := clampedPercentage(pb.current, pb.total)
	filled := (perc * pb.width) / 100
	if filled > pb.width {
		filled = pb.width
	}
	if filled < 0 {
		filled = 0
	}

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	b.WriteString(strings.Repeat(" ", pb.width-filled))
	b.WriteByte(']')

	result := fmt.Sprintf("%s %d/%d (%d%%)", b.String(), pb.current, pb.total, perc)

	if pb.enableColor {
		if perc < 100 {
			result = fmt.Sprintf("\033[36m%s\033[0m", result) // cyan while running
		} else {
			result = fmt.Sprintf("\033[32m%s\033[0m", result) // green when complete
		}
	}

	return result
}

// clampedPercentage computes current/total as a percentage clamped to 0-100.
func clampedPercentage(current, total int) int {
	if total == 0 {
		return 0
	}
	perc := (current * 100) / total
	if perc > 100 {
		perc = 100
	}
	if perc < 0 {
		perc = 0
	}
	return perc
}
