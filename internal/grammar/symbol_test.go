package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbol_KindAccessors(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "abab")

	var terminal, nonTerminal *Symbol[rune]
	for _, s := range e.StartRule().Symbols() {
		if s.Kind() == Terminal {
			terminal = s
		} else {
			nonTerminal = s
		}
	}
	assert.Nil(t, terminal, "scenario 5 start rule should be entirely non-terminal")
	assert.NotNil(t, nonTerminal, "expected at least one non-terminal in S0")

	assert.Equal(t, NonTerminal, nonTerminal.Kind())
	assert.NotPanics(t, func() { nonTerminal.Rule() })
	assert.Panics(t, func() { nonTerminal.Terminal() })

	ruleSyms := nonTerminal.Rule().Symbols()
	assert.Equal(t, Terminal, ruleSyms[0].Kind())
	assert.NotPanics(t, func() { ruleSyms[0].Terminal() })
	assert.Panics(t, func() { ruleSyms[0].Rule() })
}
