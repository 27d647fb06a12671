package boundary

import (
	"fmt"
	"strings"
)

// ParseStructuredName splits a boundary feature name of the form
// "<city-level> <parent-region> <sub-region>" into its parent-region and
// sub-region parts. The parent region is the first whitespace-separated token
// run, after the leading city-level token, whose last token ends in the
// administrative suffix. Everything after it is the sub-region name.
func ParseStructuredName(name, suffix string) (parent, sub string, err error) {
	tokens := strings.Fields(name)
	if len(tokens) < 3 {
		return "", "", fmt.Errorf("boundary name %q has fewer than 3 tokens", name)
	}

	// tokens[0] is the city-level prefix; scan the rest for the suffix.
	for i := 1; i < len(tokens)-1; i++ {
		if strings.HasSuffix(tokens[i], suffix) {
			parent = strings.Join(tokens[1:i+1], " ")
			sub = strings.Join(tokens[i+1:], " ")
			return parent, sub, nil
		}
	}

	return "", "", fmt.Errorf("boundary name %q has no token ending in %q", name, suffix)
}
