package chain

import "sort"

// ResolvedLevel pairs a chain level with its parsed condition and the
// applicability verdict for one fact set.
type ResolvedLevel struct {
	Level      ApprovalLevel
	Applicable bool
}

// ResolvedChain is the outcome of evaluating a chain against a request's
// facts. All carries every level (escalation may target a level whose own
// condition did not match); Applicable is the filtered, sequence-ordered
// subset the request will walk through.
type ResolvedChain struct {
	Chain      *ApprovalChain
	All        []ResolvedLevel
	Applicable []ApprovalLevel
}

// Resolve evaluates every level's condition against facts. Conditions are
// parsed here; a parse failure means the chain slipped past registration
// validation and is surfaced as ErrInvalidConfig.
func Resolve(c *ApprovalChain, facts Facts) (*ResolvedChain, error) {
	levels := make([]ApprovalLevel, len(c.Levels))
	copy(levels, c.Levels)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Sequence < levels[j].Sequence })

	out := &ResolvedChain{Chain: c}
	for _, lvl := range levels {
		cond, err := ParseCondition(lvl.Condition)
		if err != nil {
			return nil, err
		}
		applicable := cond.Evaluate(facts)
		out.All = append(out.All, ResolvedLevel{Level: lvl, Applicable: applicable})
		if applicable {
			out.Applicable = append(out.Applicable, lvl)
		}
	}
	return out, nil
}
