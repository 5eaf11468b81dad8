package monitor

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/term"
)

// LineReader supplies input lines to the monitor. ReadLine returns io.EOF
// when input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// ScannerReader reads lines from a plain stream, writing the prompt to out
// first. It is used when stdin is not a terminal.
type ScannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScannerReader creates a reader over r. Prompts go to out; a nil out
// disables them.
func NewScannerReader(r io.Reader, out io.Writer) *ScannerReader {
	return &ScannerReader{
		scanner: bufio.NewScanner(r),
		out:     out,
	}
}

// ReadLine implements LineReader.
func (s *ScannerReader) ReadLine(prompt string) (string, error) {
	if s.out != nil {
		fmt.Fprint(s.out, prompt)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	return s.scanner.Text(), nil
}

// TerminalReader reads lines with editing and history from a terminal in raw
// mode.
type TerminalReader struct {
	t *term.Terminal
}

// NewTerminalReader creates a reader over rw, which is normally stdin and
// stdout joined together after term.MakeRaw.
func NewTerminalReader(rw io.ReadWriter) *TerminalReader {
	return &TerminalReader{
		t: term.NewTerminal(rw, ""),
	}
}

// Writer returns a writer that prints through the terminal, translating
// newlines for raw mode.
func (r *TerminalReader) Writer() io.Writer {
	return r.t
}

// ReadLine implements LineReader.
func (r *TerminalReader) ReadLine(prompt string) (string, error) {
	r.t.SetPrompt(prompt)
	return r.t.ReadLine()
}
