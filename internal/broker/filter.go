package broker

import (
	"fmt"
	"regexp"
	"strings"
)

// TrueFilter accepts every message.
const TrueFilter = "1=1"

var clausePattern = regexp.MustCompile(`^\[([^\]]+)\]\s*(LIKE|=)\s*'((?:[^']|'')*)'$`)

// EvaluateFilter evaluates a disjunction of property comparisons against
// the properties of a message. A clause is either "[name] = 'value'" or
// "[name] LIKE 'pattern'" where the pattern may start or end with %.
func EvaluateFilter(filter string, properties map[string]string) (bool, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == TrueFilter {
		return true, nil
	}
	for _, clause := range strings.Split(filter, " OR ") {
		ok, err := evaluateClause(strings.TrimSpace(clause), properties)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evaluateClause(clause string, properties map[string]string) (bool, error) {
	if clause == TrueFilter {
		return true, nil
	}
	m := clausePattern.FindStringSubmatch(clause)
	if m == nil {
		return false, fmt.Errorf("unsupported filter clause %q", clause)
	}
	value, ok := properties[m[1]]
	if !ok {
		return false, nil
	}
	operand := strings.ReplaceAll(m[3], "''", "'")
	if m[2] == "=" {
		return value == operand, nil
	}

	prefix := strings.HasPrefix(operand, "%")
	suffix := strings.HasSuffix(operand, "%") && len(operand) > 1
	core := strings.TrimSuffix(strings.TrimPrefix(operand, "%"), "%")
	switch {
	case prefix && suffix:
		return strings.Contains(value, core), nil
	case prefix:
		return strings.HasSuffix(value, core), nil
	case suffix:
		return strings.HasPrefix(value, core), nil
	default:
		return value == core, nil
	}
}
