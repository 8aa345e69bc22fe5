// Package filter decides whether a feed item is relevant enough to publish.
//
// The policy is an ordered chain of rules evaluated first-match-wins:
//
//  1. hard_exclude: reject titles naming staff recruitment notices
//  2. allow_category: accept every item of the AI category
//  3. open_call: 公募 titles are kept only with an education context term
//  4. score: additive keyword score compared against the threshold
//
// Exclusion runs before the category short-circuit, so a recruitment notice in
// the AI feed is still dropped.
package filter

import (
	"strings"

	"github.com/samber/lo"
)

// Rule names reported by Evaluate.
const (
	RuleHardExclude   = "hard_exclude"
	RuleAllowCategory = "allow_category"
	RuleOpenCall      = "open_call"
	RuleScore         = "score"
)

type verdict int

const (
	next verdict = iota
	accept
	reject
)

type rule struct {
	name  string
	apply func(title, category string) verdict
}

// Decision is the outcome of evaluating one title.
type Decision struct {
	Keep bool
	// Rule is the name of the rule that decided.
	Rule string
	// Score is only meaningful when Rule == RuleScore.
	Score int
}

// Filter evaluates titles against an immutable Rules value.
type Filter struct {
	rules Rules
	chain []rule
}

// New builds a Filter. The rules are copied; later changes to the caller's
// slices do not affect the filter. Empty keywords are ignored.
func New(rules Rules) *Filter {
	f := &Filter{rules: cloneRules(rules)}
	f.chain = []rule{
		{name: RuleHardExclude, apply: f.hardExclude},
		{name: RuleAllowCategory, apply: f.allowCategory},
		{name: RuleOpenCall, apply: f.openCall},
		{name: RuleScore, apply: f.threshold},
	}
	return f
}

// Rules returns a copy of the filter's policy.
func (f *Filter) Rules() Rules {
	return cloneRules(f.rules)
}

// ShouldKeep reports whether an item with this title and feed category is kept.
func (f *Filter) ShouldKeep(title, category string) bool {
	return f.Evaluate(title, category).Keep
}

// Evaluate runs the rule chain and reports which rule decided.
func (f *Filter) Evaluate(title, category string) Decision {
	for _, r := range f.chain {
		switch r.apply(title, category) {
		case accept:
			return f.decision(true, r.name, title)
		case reject:
			return f.decision(false, r.name, title)
		}
	}
	// score always decides; unreachable unless the chain is empty
	return Decision{Keep: false, Rule: RuleScore}
}

func (f *Filter) decision(keep bool, name, title string) Decision {
	d := Decision{Keep: keep, Rule: name}
	if name == RuleScore {
		d.Score = f.Score(title)
	}
	return d
}

// Score computes the additive relevance score of title. Every keyword found as
// a substring contributes its group's weight once.
func (f *Filter) Score(title string) int {
	return lo.SumBy(f.rules.Groups, func(g WeightedGroup) int {
		return g.Weight * lo.CountBy(g.Keywords, func(k string) bool {
			return strings.Contains(title, k)
		})
	})
}

func (f *Filter) hardExclude(title, _ string) verdict {
	if containsAny(title, f.rules.HardExclude) {
		return reject
	}
	return next
}

func (f *Filter) allowCategory(_, category string) verdict {
	if f.rules.AllowCategory != "" && category == f.rules.AllowCategory {
		return accept
	}
	return next
}

func (f *Filter) openCall(title, _ string) verdict {
	if f.rules.OpenCallMarker == "" || !strings.Contains(title, f.rules.OpenCallMarker) {
		return next
	}
	if containsAny(title, f.rules.OpenCallContext) {
		return accept
	}
	return reject
}

func (f *Filter) threshold(title, _ string) verdict {
	if f.Score(title) >= f.rules.Threshold {
		return accept
	}
	return reject
}

func containsAny(s string, terms []string) bool {
	return lo.ContainsBy(terms, func(t string) bool {
		return strings.Contains(s, t)
	})
}

func cloneRules(r Rules) Rules {
	out := r
	out.HardExclude = lo.Compact(r.HardExclude)
	out.OpenCallContext = lo.Compact(r.OpenCallContext)
	out.Groups = lo.Map(r.Groups, func(g WeightedGroup, _ int) WeightedGroup {
		return WeightedGroup{Weight: g.Weight, Keywords: lo.Compact(g.Keywords)}
	})
	return out
}
