// Package loader reads assembly source files into parsed programs.
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/pipesim/insts"
)

// Program represents a source file after parsing.
type Program struct {
	// Path is the file the program was read from, or the name given to
	// LoadReader.
	Path string
	// Results holds one entry per non-blank source line, in order.
	Results []insts.ParseResult
}

// Load reads and parses the source file at path. Lines that fail to parse
// are kept in Results; only open and read failures are returned as errors.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(path, f)
}

// LoadReader parses source text from r. name is recorded as the program path.
func LoadReader(name string, r io.Reader) (*Program, error) {
	results, err := insts.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Program{
		Path:    name,
		Results: results,
	}, nil
}

// Instructions returns the instructions that parsed, in source order.
func (p *Program) Instructions() []insts.Instruction {
	var out []insts.Instruction
	for _, r := range p.Results {
		if r.OK() {
			out = append(out, r.Inst)
		}
	}
	return out
}

// Errors returns one error per line that failed to parse. Each error names
// the file and line.
func (p *Program) Errors() []error {
	var errs []error
	for _, r := range p.Results {
		if !r.OK() {
			errs = append(errs, fmt.Errorf("%s:%d: %w", p.Path, r.Line, r.Err))
		}
	}
	return errs
}
