// Package sequitur contains a CLI-driven session for feeding terminal
// symbols into a grammar-induction engine continuously until input ends.
package sequitur

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dekarrin/rosed"
	"golang.org/x/text/language"

	"github.com/dekarrin/sequitur/internal/grammar"
	"github.com/dekarrin/sequitur/internal/input"
	"github.com/dekarrin/sequitur/internal/stats"
)

const consoleOutputWidth = 80

var defaultLocale = language.AmericanEnglish

// Session drives a grammar.Engine[rune] from an interactive shell attached
// to an input stream and an output stream, printing periodic status lines
// as terminals are appended.
type Session struct {
	engine      *grammar.Engine[rune]
	in          input.RuneReader
	out         *bufio.Writer
	printer     stats.Printer
	forceDirect bool
	statusEvery int
	running     bool

	terminalCount int
}

// New creates a new Session ready to operate on the given input and output
// streams.
//
// If nil is given for the input stream, a buffered reader is opened on
// stdin. If nil is given for the output stream, a buffered writer is opened
// on stdout. statusEvery controls how many appended terminals pass between
// status lines; if non-positive, a default of 1000 is used.
func New(inputStream io.Reader, outputStream io.Writer, forceDirectInput bool, statusEvery int) (*Session, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}
	if statusEvery <= 0 {
		statusEvery = 1000
	}

	sess := &Session{
		engine:      grammar.NewEngine[rune](),
		out:         bufio.NewWriter(outputStream),
		printer:     stats.NewPrinter(defaultLocale),
		forceDirect: forceDirectInput,
		statusEvery: statusEvery,
	}

	useReadline := !forceDirectInput && inputStream == os.Stdin && outputStream == os.Stdout

	var err error
	if useReadline {
		sess.in, err = input.NewInteractiveReader("sequitur> ")
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		sess.in = input.NewDirectReader(inputStream)
	}

	return sess, nil
}

// Engine returns the session's underlying grammar engine, for callers that
// want to inspect the grammar directly after RunUntilEOF returns.
func (sess *Session) Engine() *grammar.Engine[rune] {
	return sess.engine
}

// Close closes all resources associated with the Session, including any
// readline-related resources created for interactive mode.
func (sess *Session) Close() error {
	if sess.running {
		return fmt.Errorf("cannot close a running session")
	}

	if err := sess.in.Close(); err != nil {
		return fmt.Errorf("close input reader: %w", err)
	}
	return nil
}

// RunUntilEOF reads runes from the session's input stream and appends each
// one to the grammar until input ends, printing a status line every
// statusEvery terminals and once more at the end.
func (sess *Session) RunUntilEOF() error {
	introMsg := "sequitur: online grammar induction\n"
	if sess.forceDirect {
		introMsg += "(direct input mode)\n"
	}
	introMsg += "===================================\n"

	if _, err := sess.out.WriteString(introMsg); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := sess.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}

	sess.running = true
	defer func() {
		sess.running = false
	}()

	for {
		r, err := sess.in.ReadRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read input: %w", err)
		}

		if err := sess.engine.Append(r); err != nil {
			return fmt.Errorf("append terminal: %w", err)
		}
		sess.terminalCount++

		if sess.terminalCount%sess.statusEvery == 0 {
			if err := sess.printStatus(); err != nil {
				return err
			}
		}
	}

	if err := sess.printStatus(); err != nil {
		return err
	}

	if _, err := sess.out.WriteString("Goodbye\n"); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	return sess.out.Flush()
}

func (sess *Session) printStatus() error {
	line := sess.printer.Line(sess.terminalCount, sess.engine.RuleCount(), sess.engine.StartRule().Length())
	line = rosed.Edit(line).Wrap(consoleOutputWidth).String()

	if _, err := sess.out.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	return sess.out.Flush()
}
