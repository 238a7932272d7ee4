package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Comparison operators supported by condition leaves.
const (
	OpEq  = "eq"
	OpNe  = "ne"
	OpGt  = "gt"
	OpGte = "gte"
	OpLt  = "lt"
	OpLte = "lte"
)

var ErrBadCondition = errors.New("malformed condition")

// Condition is the parsed form of a level's applicability rule. It is either
// a comparison leaf or an AND/OR over children. The zero value (empty leaf,
// no children) is produced only through ParseCondition, which returns nil for
// an always-true condition instead.
type Condition struct {
	// Leaf fields; set when And and Or are empty.
	Field    string
	Operator string
	Value    any

	And []Condition
	Or  []Condition
}

// ParseCondition decodes the stored JSON rule into a Condition tree.
// Accepted forms, matching the legacy data:
//
//	""                                -> nil (always applicable)
//	{"field":"amount","operator":"gt","value":50000}
//	{"$and":[ ... ]}  /  {"$or":[ ... ]}
//	[ ... ]                           -> implicit AND over the list
//
// A nil result means "always true".
func ParseCondition(raw string) (*Condition, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "{}" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCondition, err)
	}
	return parseNode(v)
}

func parseNode(v any) (*Condition, error) {
	switch node := v.(type) {
	case []any:
		// Bare list: implicit AND.
		children, err := parseChildren(node)
		if err != nil {
			return nil, err
		}
		return &Condition{And: children}, nil
	case map[string]any:
		if raw, ok := node["$and"]; ok {
			list, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: $and must be a list", ErrBadCondition)
			}
			children, err := parseChildren(list)
			if err != nil {
				return nil, err
			}
			return &Condition{And: children}, nil
		}
		if raw, ok := node["$or"]; ok {
			list, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: $or must be a list", ErrBadCondition)
			}
			children, err := parseChildren(list)
			if err != nil {
				return nil, err
			}
			return &Condition{Or: children}, nil
		}
		return parseLeaf(node)
	default:
		return nil, fmt.Errorf("%w: unexpected node %T", ErrBadCondition, v)
	}
}

func parseChildren(list []any) ([]Condition, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty combinator list", ErrBadCondition)
	}
	out := make([]Condition, 0, len(list))
	for _, it := range list {
		c, err := parseNode(it)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func parseLeaf(node map[string]any) (*Condition, error) {
	field, _ := node["field"].(string)
	op, _ := node["operator"].(string)
	if field == "" {
		return nil, fmt.Errorf("%w: leaf missing field", ErrBadCondition)
	}
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrBadCondition, op)
	}
	val, ok := node["value"]
	if !ok {
		return nil, fmt.Errorf("%w: leaf missing value", ErrBadCondition)
	}
	return &Condition{Field: field, Operator: op, Value: val}, nil
}

// Facts is the named value set a request supplies at creation time.
type Facts map[string]any

// Evaluate reports whether the condition holds for the given facts. A nil
// condition is always true. A comparison whose fact is missing, or whose
// operand types cannot be compared, evaluates to false (fail closed).
func (c *Condition) Evaluate(facts Facts) bool {
	if c == nil {
		return true
	}
	if len(c.And) > 0 {
		for i := range c.And {
			if !c.And[i].Evaluate(facts) {
				return false
			}
		}
		return true
	}
	if len(c.Or) > 0 {
		for i := range c.Or {
			if c.Or[i].Evaluate(facts) {
				return true
			}
		}
		return false
	}
	return evalLeaf(c, facts)
}

func evalLeaf(c *Condition, facts Facts) bool {
	got, ok := facts[c.Field]
	if !ok {
		return false
	}
	if a, b, ok := numericPair(got, c.Value); ok {
		switch c.Operator {
		case OpEq:
			return a == b
		case OpNe:
			return a != b
		case OpGt:
			return a > b
		case OpGte:
			return a >= b
		case OpLt:
			return a < b
		case OpLte:
			return a <= b
		}
		return false
	}
	// Non-numeric operands only support equality.
	switch c.Operator {
	case OpEq:
		return got == c.Value
	case OpNe:
		return got != c.Value
	}
	return false
}

func numericPair(a, b any) (float64, float64, bool) {
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	return fa, fb, oka && okb
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
