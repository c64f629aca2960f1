package grammar

import (
	"fmt"

	"github.com/dekarrin/sequitur/internal/util"
)

// SymbolKind distinguishes a terminal Symbol from a non-terminal one in the
// public, read-only view of a grammar. Guard symbols are never exposed
// through this API: Rule.Symbols already excludes them.
type SymbolKind int

const (
	Terminal SymbolKind = iota
	NonTerminal
)

func (k SymbolKind) String() string {
	if k == NonTerminal {
		return "non-terminal"
	}
	return "terminal"
}

// Kind reports whether s is a terminal or a non-terminal. Calling it on a
// guard symbol (never returned by Rule.Symbols or Engine.StartRule's
// traversal) is a programming error.
func (s *Symbol[T]) Kind() SymbolKind {
	if s.isGuard() {
		panic("grammar: Kind called on guard symbol")
	}
	if s.kind == kindNonTerminal {
		return NonTerminal
	}
	return Terminal
}

// Terminal returns the payload of a terminal Symbol. The caller must check
// Kind() == Terminal first; calling this on a non-terminal panics.
func (s *Symbol[T]) Terminal() T {
	if s.kind != kindTerminal {
		panic("grammar: Terminal called on non-terminal symbol")
	}
	return s.terminal
}

// Rule returns the rule a non-terminal Symbol refers to. The caller must
// check Kind() == NonTerminal first; calling this on a terminal panics.
func (s *Symbol[T]) Rule() *Rule[T] {
	if s.kind != kindNonTerminal {
		panic("grammar: Rule called on terminal symbol")
	}
	return s.rule
}

// Expand walks the grammar from S0 and returns the full terminal sequence
// it represents, with every non-terminal recursively inlined. This
// reconstructs exactly the input the engine has been fed so far; it is
// meant for verification and small-scale inspection, not as a substitute
// for the compact grammar itself.
func (e *Engine[T]) Expand() []T {
	var out []T
	var walk func(r *Rule[T])
	walk = func(r *Rule[T]) {
		for s := r.first(); !s.isGuard(); s = s.next {
			if s.isNonTerminal() {
				walk(s.rule)
			} else {
				out = append(out, s.terminal)
			}
		}
	}
	walk(e.start)
	return out
}

// SymbolSnapshot is a JSON-friendly rendering of one Symbol: either a
// stringified terminal value, or the ID of the rule a non-terminal points
// at.
type SymbolSnapshot struct {
	Kind     string `json:"kind"`
	Terminal string `json:"terminal,omitempty"`
	RuleID   int    `json:"rule_id,omitempty"`
}

// RuleSnapshot is a JSON-friendly rendering of one Rule's body.
type RuleSnapshot struct {
	ID             int              `json:"id"`
	ReferenceCount int              `json:"reference_count"`
	Body           []SymbolSnapshot `json:"body"`
}

// GrammarSnapshot is a JSON-friendly rendering of an entire grammar, used
// by the HTTP layer to report a session's current state without exposing
// the live, mutable engine internals.
type GrammarSnapshot struct {
	StartRuleID int            `json:"start_rule_id"`
	Rules       []RuleSnapshot `json:"rules"`
}

// Snapshot walks every rule reachable from S0 and renders it into a
// GrammarSnapshot, with S0 always first and the rest in first-discovered
// order.
func (e *Engine[T]) Snapshot() GrammarSnapshot {
	seen := util.NewKeySet[int]()
	var order []*Rule[T]

	var walk func(r *Rule[T])
	walk = func(r *Rule[T]) {
		if seen.Has(r.id) {
			return
		}
		seen.Add(r.id)
		order = append(order, r)
		for s := r.first(); !s.isGuard(); s = s.next {
			if s.isNonTerminal() {
				walk(s.rule)
			}
		}
	}
	walk(e.start)

	snap := GrammarSnapshot{
		StartRuleID: e.start.id,
		Rules:       make([]RuleSnapshot, 0, len(order)),
	}
	for _, r := range order {
		rs := RuleSnapshot{
			ID:             r.id,
			ReferenceCount: r.refCount,
			Body:           make([]SymbolSnapshot, 0, r.Length()),
		}
		for s := r.first(); !s.isGuard(); s = s.next {
			if s.isNonTerminal() {
				rs.Body = append(rs.Body, SymbolSnapshot{Kind: "non-terminal", RuleID: s.rule.id})
			} else {
				rs.Body = append(rs.Body, SymbolSnapshot{Kind: "terminal", Terminal: fmt.Sprintf("%v", s.terminal)})
			}
		}
		snap.Rules = append(snap.Rules, rs)
	}
	return snap
}
