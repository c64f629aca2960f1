package grammar

import (
	"fmt"

	"github.com/dekarrin/sequitur/internal/util"
)

// Limits bounds how large a single Engine is allowed to grow. It exists so
// that a long-lived host (the HTTP session layer, chiefly) can cap the work
// a single caller-fed input stream can force the engine to do, without the
// core algorithm itself needing any notion of who is driving it.
type Limits struct {
	// MaxRules caps the number of live non-start rules the engine may hold
	// at once. Zero means unlimited. Exceeding it turns Append into a
	// ResourceExhaustion error instead of growing the grammar further.
	MaxRules int
}

// Engine holds one grammar under active construction: the start rule (S0)
// and the digram index shared across every rule reachable from it. It is
// not safe for concurrent use by multiple goroutines; callers that need
// that (the HTTP session layer) serialize access with their own lock.
type Engine[T comparable] struct {
	start      *Rule[T]
	index      *digramIndex[T]
	nextRuleID int
	liveRules  int
	limits     Limits
}

// NewEngine returns a freshly initialized Engine with an empty start rule
// and no growth limit.
func NewEngine[T comparable]() *Engine[T] {
	return NewEngineWithLimits[T](Limits{})
}

// NewEngineWithLimits is like NewEngine but applies lim to all future
// growth.
func NewEngineWithLimits[T comparable](lim Limits) *Engine[T] {
	e := &Engine[T]{
		index:      newDigramIndex[T](),
		limits:     lim,
		nextRuleID: 1,
	}
	e.start = newRule[T](0)
	return e
}

// StartRule returns the engine's top-level rule, S0.
func (e *Engine[T]) StartRule() *Rule[T] {
	return e.start
}

// RuleCount returns the number of rules currently reachable from S0,
// including S0 itself.
func (e *Engine[T]) RuleCount() int {
	seen := util.NewKeySet[int]()
	var walk func(r *Rule[T])
	walk = func(r *Rule[T]) {
		if seen.Has(r.id) {
			return
		}
		seen.Add(r.id)
		for s := r.first(); !s.isGuard(); s = s.next {
			if s.isNonTerminal() {
				walk(s.rule)
			}
		}
	}
	walk(e.start)
	return seen.Len()
}

// Append extends S0 with one more terminal symbol and runs the matching
// procedure on the digram it may have just formed with its predecessor.
// This is the engine's sole input-facing operation: every structural
// change to the grammar traces back to one of these calls.
func (e *Engine[T]) Append(v T) error {
	sym := newTerminalSymbol(v)
	prev := e.start.last()
	e.insertAfter(prev, sym)
	_, err := e.check(prev)
	return err
}

func (e *Engine[T]) insertAfter(pos, sym *Symbol[T]) {
	next := pos.next
	pos.next = sym
	sym.prev = pos
	sym.next = next
	next.prev = sym
}

// join splices right directly after left, discarding whatever used to sit
// between them. If that leaves a stale digram-index entry recording left's
// old pairing, it is scrubbed. If the splice happens to produce a run of
// three symbols sharing one fingerprint (an "xxx" triple, the sole
// exception to digram uniqueness), the index is re-seeded on the new
// leftmost pair of that run so no dangling pointer into whatever was
// spliced out can linger.
func (e *Engine[T]) join(left, right *Symbol[T]) {
	if !left.isGuard() && !left.next.isGuard() && left.next != right {
		e.index.removeIf(digramKeyOf(left), left)
	}

	left.next = right
	right.prev = left

	if !left.isGuard() && !right.isGuard() && !right.next.isGuard() {
		key := digramKeyOf(left)
		if key == digramKeyOf(right) {
			e.index.insert(key, left)
		}
	}
}

// delete unlinks sym from its rule's body, decrementing and, if needed,
// cascading the destruction of any rule sym referenced as a non-terminal.
func (e *Engine[T]) delete(sym *Symbol[T]) error {
	if sym.isGuard() {
		return newLogicError("cannot delete a guard symbol", nil)
	}

	if !sym.next.isGuard() {
		e.index.removeIf(digramKeyOf(sym), sym)
	}

	prev, next := sym.prev, sym.next
	e.join(prev, next)

	if sym.kind == kindNonTerminal {
		r := sym.rule
		r.decRef()
		if r.refCount == 0 {
			if err := e.dissolveRule(r); err != nil {
				return err
			}
		}
	}

	sym.prev, sym.next, sym.rule = nil, nil, nil
	return nil
}

// dissolveRule tears down a rule whose reference count has just reached
// zero. Its body symbols are deleted one by one rather than simply
// abandoned: each delete scrubs that symbol's own digram-index entry and,
// for a non-terminal, cascades the same teardown into whatever rule it
// pointed at. Skipping this is the canonical way to end up with a stale
// index entry pointing into grammar that no longer exists.
func (e *Engine[T]) dissolveRule(r *Rule[T]) error {
	for s := r.first(); !s.isGuard(); {
		next := s.next
		if err := e.delete(s); err != nil {
			return err
		}
		s = next
	}
	e.liveRules--
	return nil
}

func (e *Engine[T]) allocRule() (*Rule[T], error) {
	if e.limits.MaxRules > 0 && e.liveRules >= e.limits.MaxRules {
		return nil, newResourceExhaustion(fmt.Sprintf("rule limit of %d reached", e.limits.MaxRules), nil)
	}
	id := e.nextRuleID
	e.nextRuleID++
	e.liveRules++
	return newRule[T](id), nil
}

func (e *Engine[T]) newNonTerminalSymbol(r *Rule[T]) *Symbol[T] {
	r.incRef()
	return &Symbol[T]{kind: kindNonTerminal, rule: r}
}

func (e *Engine[T]) cloneSymbol(src *Symbol[T]) *Symbol[T] {
	if src.kind == kindNonTerminal {
		return e.newNonTerminalSymbol(src.rule)
	}
	return newTerminalSymbol(src.terminal)
}

// check inspects the digram starting at l. If l touches a guard on either
// side there is no digram to check. If the digram's fingerprint is new, it
// is recorded with l as its left occurrence. If it already has a recorded
// occurrence other than l itself (the xxx-triple exception aside), the
// match is handed off to processMatch. The bool result reports whether a
// second occurrence was found, regardless of whether processMatch's
// substitution succeeded.
func (e *Engine[T]) check(l *Symbol[T]) (bool, error) {
	if l.isGuard() || l.next.isGuard() {
		return false, nil
	}

	key := digramKeyOf(l)
	m, ok := e.index.lookup(key)
	if !ok {
		e.index.insert(key, l)
		return false, nil
	}

	if m == l || m.next == l {
		// Overlapping occurrence of a repeated symbol, e.g. the middle
		// pair of a run of three identical values. Not a genuine second
		// occurrence of the digram.
		return false, nil
	}

	if err := e.processMatch(l, m); err != nil {
		return true, err
	}
	return true, nil
}

// processMatch resolves a confirmed repeated digram (l and m). If m already
// sits alone as the entirety of some rule's body, that rule is reused;
// otherwise a new two-symbol rule is minted from the digram. Either way,
// both occurrences are substituted for a reference to the resulting rule,
// and the rule's own utility (reference-count) invariant is restored
// afterward.
func (e *Engine[T]) processMatch(l, m *Symbol[T]) error {
	if m.prev.isGuard() && m.next.next.isGuard() {
		rule := m.prev.rule
		if err := e.substitute(l, rule); err != nil {
			return err
		}
		return e.restoreUtility(rule)
	}

	newRule, err := e.allocRule()
	if err != nil {
		return err
	}

	first := e.cloneSymbol(l)
	second := e.cloneSymbol(l.next)
	e.insertAfter(newRule.guard, first)
	e.insertAfter(first, second)
	e.index.insert(digramKeyOf(first), first)

	if err := e.substitute(m, newRule); err != nil {
		return err
	}
	if err := e.substitute(l, newRule); err != nil {
		return err
	}
	return e.restoreUtility(newRule)
}

// substitute deletes the digram at l (l and l.next) and replaces it in
// place with a fresh non-terminal referencing rule. The two digrams newly
// formed at the splice's boundary (with the symbol now before the
// non-terminal, and, failing a match there, with the symbol now after it)
// are checked in turn.
func (e *Engine[T]) substitute(l *Symbol[T], rule *Rule[T]) error {
	if l.isGuard() || l.next.isGuard() {
		return newLogicError("substitute: digram touches a guard", nil)
	}

	prev := l.prev
	right := l.next

	if err := e.delete(l); err != nil {
		return err
	}
	if err := e.delete(right); err != nil {
		return err
	}

	newSym := e.newNonTerminalSymbol(rule)
	e.insertAfter(prev, newSym)

	matched, err := e.check(prev)
	if err != nil {
		return err
	}
	if !matched {
		if _, err := e.check(newSym); err != nil {
			return err
		}
	}
	return nil
}

// restoreUtility inspects rule's own first body symbol. If that symbol is
// itself a non-terminal and its rule's reference count has dropped to one,
// that rule is no longer pulling its weight as a separate production and is
// expanded back into rule in place.
func (e *Engine[T]) restoreUtility(rule *Rule[T]) error {
	first := rule.first()
	if first.isGuard() {
		return nil
	}
	if first.kind == kindNonTerminal && first.rule.refCount == 1 {
		return e.expand(first)
	}
	return nil
}

// expand dissolves sym's referenced rule by splicing its body directly into
// place where sym sat, then checks the (up to) two new boundary digrams
// this produces. sym's rule must have a reference count of exactly one:
// this is the sole remaining reference, so nothing else observes the rule
// disappearing.
func (e *Engine[T]) expand(sym *Symbol[T]) error {
	if sym.kind != kindNonTerminal {
		return newLogicError("expand: symbol is not a non-terminal", nil)
	}
	inner := sym.rule
	if inner.refCount != 1 {
		return newLogicError("expand: rule reference count is not 1", nil)
	}

	if !sym.next.isGuard() {
		e.index.removeIf(digramKeyOf(sym), sym)
	}

	prev, next := sym.prev, sym.next
	first, last := inner.first(), inner.last()

	inner.refCount = 0
	e.liveRules--
	sym.prev, sym.next, sym.rule = nil, nil, nil

	if first.isGuard() {
		e.join(prev, next)
		_, err := e.check(prev)
		return err
	}

	e.join(prev, first)
	e.join(last, next)

	if first == last {
		matched, err := e.check(prev)
		if err != nil {
			return err
		}
		if !matched {
			if _, err := e.check(last); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := e.check(prev); err != nil {
		return err
	}
	if _, err := e.check(last); err != nil {
		return err
	}
	return nil
}
