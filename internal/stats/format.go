// Package stats formats grammar-size counters for human-facing status
// lines, with locale-aware thousands grouping for large inputs.
package stats

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Printer renders integer counters with the thousands grouping appropriate
// to a locale. The zero value is ready to use and formats for
// language.AmericanEnglish.
type Printer struct {
	p *message.Printer
}

// NewPrinter returns a Printer that formats counters for the given locale
// tag.
func NewPrinter(tag language.Tag) Printer {
	return Printer{p: message.NewPrinter(tag)}
}

// Count renders n with locale-appropriate thousands grouping, e.g.
// "12,345" for language.AmericanEnglish.
func (p Printer) Count(n int) string {
	if p.p == nil {
		p.p = message.NewPrinter(language.AmericanEnglish)
	}
	return p.p.Sprintf("%d", n)
}

// Line renders a one-line summary of a grammar's current size: the number
// of terminals appended so far, the number of rules (including the start
// rule), and the start rule's own symbol count.
func (p Printer) Line(terminals, rules, startSymbols int) string {
	if p.p == nil {
		p.p = message.NewPrinter(language.AmericanEnglish)
	}
	return p.p.Sprintf("terminals: %d  rules: %d  start-rule symbols: %d", terminals, rules, startSymbols)
}
