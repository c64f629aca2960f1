// Package input contains identifiers used in getting terminal symbols for a
// sequitur session from CLI or other sources of input.
package input

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// RuneReader supplies terminal symbols for a Session one rune at a time. It
// is the CLI-facing analogue of Engine.Append's input.
type RuneReader interface {
	// ReadRune reads the next input rune. At end of input it returns io.EOF.
	ReadRune() (rune, error)

	// Close releases any resources associated with the reader.
	Close() error
}

// DirectReader implements RuneReader by reading runes off of any io.Reader
// directly, with no line editing or sanitization. It can be used generically
// with any io.Reader, including a redirected file or pipe.
//
// DirectReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectReader struct {
	r *bufio.Reader
}

// NewDirectReader creates a new DirectReader and initializes a buffered
// reader on the provided reader.
func NewDirectReader(r io.Reader) *DirectReader {
	return &DirectReader{r: bufio.NewReader(r)}
}

// ReadRune reads the next rune from the underlying reader.
func (dr *DirectReader) ReadRune() (rune, error) {
	ch, _, err := dr.r.ReadRune()
	return ch, err
}

// Close is here so DirectReader implements RuneReader; it currently does
// not need to release anything but callers should still call it.
func (dr *DirectReader) Close() error {
	return nil
}

// InteractiveReader implements RuneReader by reading lines from stdin using
// a Go implementation of the GNU Readline library, then yielding the line's
// runes one at a time followed by a trailing newline rune. This keeps input
// clear of typing and editing escape sequences and enables command history;
// it should in general only be used when directly connected to a TTY.
//
// InteractiveReader should not be used directly; instead, create one with
// [NewInteractiveReader].
type InteractiveReader struct {
	rl      *readline.Instance
	pending []rune
	pos     int
	atEOF   bool
}

// NewInteractiveReader creates a new InteractiveReader and initializes
// readline. The returned InteractiveReader must have Close called on it
// before disposal to properly tear down readline resources.
func NewInteractiveReader(prompt string) (*InteractiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveReader{rl: rl}, nil
}

// ReadRune returns the next rune of input, pulling a fresh line from
// readline whenever the previously buffered line is exhausted.
func (ir *InteractiveReader) ReadRune() (rune, error) {
	for ir.pos >= len(ir.pending) {
		if ir.atEOF {
			return 0, io.EOF
		}

		line, err := ir.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			ir.atEOF = true
			if err != io.EOF {
				return 0, err
			}
			if line == "" {
				return 0, io.EOF
			}
		}

		ir.pending = append([]rune(line), '\n')
		ir.pos = 0
	}

	r := ir.pending[ir.pos]
	ir.pos++
	return r, nil
}

// SetPrompt updates the prompt to the given text.
func (ir *InteractiveReader) SetPrompt(p string) {
	ir.rl.SetPrompt(p)
}

// Close cleans up readline resources associated with the InteractiveReader.
func (ir *InteractiveReader) Close() error {
	return ir.rl.Close()
}
