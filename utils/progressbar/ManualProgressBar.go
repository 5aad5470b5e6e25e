// Package progressbar implements functionality of printing a progress
// bar to a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
}

// NewManualProgressBar returns a new ManualProgressBar writing to out.
// If out is nil, Display is a no-op.
func NewManualProgressBar(out io.Writer, width, max int) *ManualProgressBar {
	return &ManualProgressBar{
		out:             out,
		width:           float64(width),
		maxProgress:     float64(max),
		currentProgress: 0,
		startTime:       time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Set sets the internal progress counter, clipped to [0, max]
func (p *ManualProgressBar) Set(progress int) {
	p.currentProgress = float64(progress)
	if p.currentProgress > p.maxProgress {
		p.currentProgress = p.maxProgress
	} else if p.currentProgress < 0 {
		p.currentProgress = 0
	}
}

// Fraction returns the fraction of the progress bar that is complete
func (p *ManualProgressBar) Fraction() float64 {
	if p.maxProgress <= 0 {
		return 1
	}
	return p.currentProgress / p.maxProgress
}

// String returns the current progress bar line
func (p *ManualProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.Fraction() * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	p.bar.WriteString(fmt.Sprintf("| [%.2f%v | elapsed: %v]",
		p.Fraction()*100, "%",
		time.Since(p.startTime).Truncate(time.Second)))

	return p.bar.String()
}

// Display overwrites the current terminal line with the progress bar
func (p *ManualProgressBar) Display() {
	if p.out == nil {
		return
	}
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}

// Close moves output past the progress bar line
func (p *ManualProgressBar) Close() {
	if p.out == nil {
		return
	}
	fmt.Fprintln(p.out)
}
