package style

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

type Spinner interface {
	SetSuffix(suffix string)
	SetFinalMSG(finalMSG string)
	Start()
	Stop()
}

// TerminalSpinner is the interactive spinner used on real terminals.
type TerminalSpinner struct {
	spinner *spinner.Spinner
}

func NewTerminalSpinner(cs []string, d time.Duration, options ...spinner.Option) *TerminalSpinner {
	return &TerminalSpinner{spinner: spinner.New(cs, d, options...)}
}

func (s *TerminalSpinner) SetSuffix(suffix string)     { s.spinner.Suffix = suffix }
func (s *TerminalSpinner) SetFinalMSG(finalMSG string) { s.spinner.FinalMSG = finalMSG }
func (s *TerminalSpinner) Start()                      { s.spinner.Start() }
func (s *TerminalSpinner) Stop()                       { s.spinner.Stop() }

// LineSpinner writes each update on its own line instead of clearing and
// redrawing; used under tests and non-TTY output.
type LineSpinner struct {
	mu       sync.Mutex
	Suffix   string
	FinalMSG string
	Writer   io.Writer
	colored  func(a ...interface{}) string
	active   bool
}

func NewLineSpinner(w io.Writer) *LineSpinner {
	return &LineSpinner{
		Writer:  w,
		colored: color.New(color.FgCyan).SprintFunc(),
	}
}

func (s *LineSpinner) SetSuffix(suffix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if suffix != s.Suffix {
		s.Suffix = suffix
		if s.active {
			fmt.Fprintf(s.Writer, "%s%s\n", s.colored("·"), suffix)
		}
	}
}

func (s *LineSpinner) SetFinalMSG(finalMSG string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinalMSG = finalMSG
}

func (s *LineSpinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	if s.Suffix != "" {
		fmt.Fprintf(s.Writer, "%s%s\n", s.colored("·"), s.Suffix)
	}
}

func (s *LineSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	if s.FinalMSG != "" {
		fmt.Fprint(s.Writer, s.FinalMSG)
	}
}

// NewSpinner picks the spinner implementation for w.
func NewSpinner(w io.Writer) Spinner {
	if os.Getenv("LODESTONE_TEST") == "true" {
		return NewLineSpinner(w)
	}
	return NewTerminalSpinner(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
}
