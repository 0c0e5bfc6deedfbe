package finance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePolicy controls how free-form amount text is interpreted.
type ParsePolicy int

const (
	// ParsePermissive strips every non-digit and treats unusable text as 0.
	ParsePermissive ParsePolicy = iota
	// ParseStrict accepts only digits, "$", ",", "." and whitespace and
	// rejects anything else.
	ParseStrict
)

// String returns the config name of the policy.
func (p ParsePolicy) String() string {
	if p == ParseStrict {
		return "strict"
	}
	return "permissive"
}

// ParsePolicyFor maps the strict-input setting to a policy.
func ParsePolicyFor(strict bool) ParsePolicy {
	if strict {
		return ParseStrict
	}
	return ParsePermissive
}

// ParseAmount converts user-entered amount text to a non-negative number.
//
// Under ParsePermissive all non-digit characters are dropped first, so
// "$1,250" is 1250 and "12.50" is 1250; text with no digits is 0.
// Under ParseStrict "$1,250.50" is 1250.5 and "12k" is an error.
func ParseAmount(raw string, policy ParsePolicy) (float64, error) {
	if policy == ParseStrict {
		return parseStrict(raw)
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, nil
	}
	// Overlong digit strings parse to +Inf with a range error and are
	// clamped by the caller.
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil && !math.IsInf(v, 1) {
		return 0, nil
	}
	return v, nil
}

func parseStrict(raw string) (float64, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '$', r == ',', r == ' ':
		default:
			return 0, fmt.Errorf("%w: unexpected character %q in amount %q", ErrInvalidInput, r, raw)
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("%w: amount is empty", ErrInvalidInput)
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrInvalidInput, raw, err)
	}
	return v, nil
}

// ParseDownPayment parses raw down payment text and clamps it into
// [0, purchasePrice].
func ParseDownPayment(raw string, purchasePrice float64, policy ParsePolicy) (float64, error) {
	v, err := ParseAmount(raw, policy)
	if err != nil {
		return 0, err
	}
	return ClampDownPayment(v, purchasePrice), nil
}
