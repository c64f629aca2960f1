package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ruleBody renders a rule's body as a string of single-character runes and
// capital-letter placeholders for non-terminals, e.g. "aAd" where A stands
// for whatever rule id is referenced. It is only used to assert shapes in
// these tests, not part of the package's public surface.
func bodyValues(t *testing.T, r *Rule[rune]) []string {
	t.Helper()
	var out []string
	for _, s := range r.Symbols() {
		if s.Kind() == NonTerminal {
			out = append(out, "R"+itoa(s.Rule().ID()))
		} else {
			out = append(out, string(s.Terminal()))
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func feed(t *testing.T, e *Engine[rune], s string) {
	t.Helper()
	for _, r := range s {
		require.NoError(t, e.Append(r))
	}
}

func TestAppend_EmptyInput(t *testing.T) {
	e := NewEngine[rune]()
	assert.True(t, e.StartRule().isEmpty())
	assert.Equal(t, 1, e.RuleCount())
	assert.Equal(t, []rune(nil), e.Expand())
}

func TestAppend_SingleTerminal(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "a")
	assert.Equal(t, 1, e.StartRule().Length())
	assert.Equal(t, []rune("a"), e.Expand())
	assert.Equal(t, 1, e.RuleCount())
}

func TestAppend_NoRepetition(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "abcd")
	assert.Equal(t, []rune("abcd"), e.Expand())
	assert.Equal(t, 1, e.RuleCount())
}

func TestScenario1_abcdbc(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "abcdbc")

	require.Equal(t, []rune("abcdbc"), e.Expand())
	assert.Equal(t, 2, e.RuleCount())

	s0 := bodyValues(t, e.StartRule())
	require.Len(t, s0, 4)
	assert.Equal(t, "a", s0[0])
	assert.Equal(t, "d", s0[2])
	assert.Equal(t, s0[1], s0[3], "both non-terminal occurrences must reference the same rule")

	var a *Rule[rune]
	for _, sym := range e.StartRule().Symbols() {
		if sym.Kind() == NonTerminal {
			a = sym.Rule()
			break
		}
	}
	require.NotNil(t, a)
	assert.Equal(t, []string{"b", "c"}, bodyValues(t, a))
	assert.Equal(t, 2, a.ReferenceCount())
}

func TestScenario2_abcabd(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "abcabd")

	require.Equal(t, []rune("abcabd"), e.Expand())

	s0 := bodyValues(t, e.StartRule())
	require.Len(t, s0, 4)
	assert.Equal(t, "c", s0[1])
	assert.Equal(t, "d", s0[3])
	assert.Equal(t, s0[0], s0[2])
}

func TestScenario3_aaaa(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "aaaa")

	require.Equal(t, []rune("aaaa"), e.Expand())
	assert.Equal(t, 2, e.RuleCount(), "S0 plus exactly one intermediate rule, no third rule")

	s0 := e.StartRule().Symbols()
	require.Len(t, s0, 2)
	require.Equal(t, NonTerminal, s0[0].Kind())
	require.Equal(t, NonTerminal, s0[1].Kind())
	assert.Equal(t, s0[0].Rule().ID(), s0[1].Rule().ID())

	a := s0[0].Rule()
	assert.Equal(t, []string{"a", "a"}, bodyValues(t, a))
	assert.Equal(t, 2, a.ReferenceCount())
}

func TestScenario4_abcabcabc(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "abcabcabc")

	require.Equal(t, []rune("abcabcabc"), e.Expand())

	s0 := e.StartRule().Symbols()
	require.Len(t, s0, 3)
	for _, sym := range s0 {
		require.Equal(t, NonTerminal, sym.Kind())
		assert.Equal(t, s0[0].Rule().ID(), sym.Rule().ID())
	}
	a := s0[0].Rule()
	assert.Equal(t, []string{"a", "b", "c"}, bodyValues(t, a))
	assert.Equal(t, 3, a.ReferenceCount())
}

func TestScenario5_abab(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "abab")

	require.Equal(t, []rune("abab"), e.Expand())

	s0 := e.StartRule().Symbols()
	require.Len(t, s0, 2)
	a := s0[0].Rule()
	assert.Equal(t, []string{"a", "b"}, bodyValues(t, a))
}

func TestScenario6_xyzxyzwxyzxyz(t *testing.T) {
	e := NewEngine[rune]()
	feed(t, e, "xyzxyzwxyzxyz")

	require.Equal(t, []rune("xyzxyzwxyzxyz"), e.Expand())
	assertInvariants(t, e)
}

func TestDeterminism(t *testing.T) {
	input := "the quick brown fox the quick brown fox jumps"
	e1 := NewEngine[rune]()
	e2 := NewEngine[rune]()
	feed(t, e1, input)
	feed(t, e2, input)

	assert.Equal(t, e1.Snapshot(), e2.Snapshot())
}

func TestResourceExhaustion(t *testing.T) {
	e := NewEngineWithLimits[rune](Limits{MaxRules: 1})
	err := func() error {
		for _, r := range "abcabcabcabcabc" {
			if err := e.Append(r); err != nil {
				return err
			}
		}
		return nil
	}()
	require.Error(t, err)
	var re *ResourceExhaustion
	assert.ErrorAs(t, err, &re)
}
