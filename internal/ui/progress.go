// Package ui draws lookup progress on the terminal.
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

const RefreshRate = 100 * time.Millisecond

var frames = []string{"▁▂▃", "▂▃▄", "▃▄▅", "▄▅▆", "▅▆▇", "▆▇█", "▇█▇", "█▇▆", "▇▆▅", "▆▅▄", "▅▄▃", "▄▃▂", "▃▂▁"}

// Spinner is the subset of a terminal spinner that Progress drives.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() {
	rs.s.Start()
}

func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(out io.Writer) Spinner {
	s := spinner.New(frames, RefreshRate, spinner.WithWriter(out), spinner.WithHiddenCursor(true))
	return &realSpinner{s}
}

// Suffix formats the counter shown next to the spinner.
func Suffix(done, total int) string {
	percent := 100
	if total > 0 {
		percent = done * 100 / total
	}
	return fmt.Sprintf(" %d/%d [%d%%]", done, total, percent)
}

// Progress counts settled lookups, it satisfies fetch.Observer.
type Progress struct {
	spinner Spinner
	total   int

	mutex sync.Mutex
	done  int
}

func NewProgress(out io.Writer, total int) *Progress {
	p := &Progress{spinner: newSpinner(out), total: total}
	p.spinner.UpdateSuffix(Suffix(0, total))
	return p
}

func (p *Progress) Start() {
	p.spinner.Start()
}

func (p *Progress) Stop() {
	p.spinner.Stop()
}

func (p *Progress) Settled(code string, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.done < p.total {
		p.done++
	}
	p.spinner.UpdateSuffix(Suffix(p.done, p.total))
}

func (p *Progress) Done() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.done
}
