package grammar

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertInvariants checks P2-P6 against the live engine state. P1 (expansion
// correctness) is checked separately by callers, since it requires the
// original input for comparison.
func assertInvariants[T comparable](t *testing.T, e *Engine[T]) {
	t.Helper()

	rules := map[int]*Rule[T]{}
	refCounts := map[int]int{}
	var walk func(r *Rule[T])
	walk = func(r *Rule[T]) {
		if _, ok := rules[r.id]; ok {
			return
		}
		rules[r.id] = r

		// P5: proper circular list through the guard.
		seen := 0
		s := r.first()
		for !s.isGuard() {
			assert.Same(t, s, s.next.prev, "rule %d: body symbol's next.prev must point back to it", r.id)
			seen++
			if seen > 1_000_000 {
				t.Fatalf("rule %d: body list does not terminate at its guard", r.id)
			}
			if s.isNonTerminal() {
				require.NotNil(t, s.rule, "rule %d: non-terminal symbol has nil rule reference", r.id)
				refCounts[s.rule.id]++
				walk(s.rule)
			}
			s = s.next
		}
		assert.Equal(t, seen, r.Length())
	}
	walk(e.start)

	for id, r := range rules {
		if id == e.start.id {
			continue
		}
		// P3: rule utility.
		assert.GreaterOrEqual(t, r.refCount, 2, "rule %d: reference count must be >= 2", id)
		// P4: reference-count accuracy.
		assert.Equal(t, refCounts[id], r.refCount, "rule %d: stored refCount must match actual non-terminal references", id)
	}

	// P2 / P6: every digram in the grammar appears in the index pointing at
	// a symbol whose current digram key matches, and the index holds no
	// more entries than there are live digram sites.
	liveDigrams := 0
	for _, r := range rules {
		for s := r.first(); !s.isGuard() && !s.next.isGuard(); s = s.next {
			liveDigrams++
		}
	}
	assert.LessOrEqual(t, e.index.size(), liveDigrams, "index must not hold more entries than there are live digram sites")

	for key, left := range e.index.m {
		assert.False(t, left.isGuard(), "index entry %q points at a guard", key)
		assert.False(t, left.next.isGuard(), "index entry %q points at a symbol whose next is a guard", key)
		assert.Equal(t, key, digramKeyOf(left), "index entry %q is stale: stored symbol's current digram key differs", key)
	}
}

func TestProperty_RandomStrings(t *testing.T) {
	alphabets := [][]rune{
		{'a', 'b'},
		{'a', 'b', 'c'},
		{'a', 'b', 'c', 'd'},
	}

	rng := rand.New(rand.NewSource(1))

	for _, alphabet := range alphabets {
		e := NewEngine[rune]()
		var input []rune

		const length = 2000
		for i := 0; i < length; i++ {
			r := alphabet[rng.Intn(len(alphabet))]
			input = append(input, r)
			require.NoError(t, e.Append(r))

			if i%97 == 0 || i == length-1 {
				require.Equal(t, input, e.Expand(), "P1 expansion correctness failed at length %d", i+1)
				assertInvariants(t, e)
			}
		}
	}
}

func TestProperty_RepetitionPeriod1(t *testing.T) {
	e := NewEngine[rune]()
	var input []rune
	for i := 0; i < 64; i++ {
		input = append(input, 'a')
		require.NoError(t, e.Append('a'))
		require.Equal(t, input, e.Expand())
		assertInvariants(t, e)
	}
	// Hierarchical doubling: far fewer rules than terminals appended.
	assert.Less(t, e.RuleCount(), len(input))
}
