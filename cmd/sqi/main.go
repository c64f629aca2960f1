/*
Sqi starts an interactive sequitur session.

It reads terminal symbols (runes) from stdin one at a time, feeds each into a
fresh grammar-induction engine, and periodically reports the grammar's size
to stdout until input ends.

Usage:

	sqi [flags]

The flags are:

	-v, --version
		Give the current version of sequitur and then exit.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input even if launched in a tty
		with stdin and stdout.

	-s, --status-every N
		Print a status line every N appended terminals. Defaults to 1000.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/version"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitRunError indicates an unsuccessful program execution due to a
	// problem while reading input or advancing the grammar.
	ExitRunError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the session.
	ExitInitError
)

var (
	returnCode  int   = ExitSuccess
	flagVersion *bool = pflag.BoolP("version", "v", false, "Gives the version info")
	forceDirect *bool = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	statusEvery *int  = pflag.IntP("status-every", "s", 1000, "Print a status line every N appended terminals")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	sess, initErr := sequitur.New(os.Stdin, os.Stdout, *forceDirect, *statusEvery)
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", initErr.Error())
		returnCode = ExitInitError
		return
	}
	defer sess.Close()

	if err := sess.RunUntilEOF(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitRunError
		return
	}
}
