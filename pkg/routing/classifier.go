package routing

import (
	"cmp"
	"slices"
	"strings"
)

// Classifier resolves a request path to its RouteClass. Longest prefix wins,
// so "/api/scheduling" can carry a different policy than "/api".
type Classifier struct {
	rules []AllowlistRule
}

func NewClassifier(rules []AllowlistRule) *Classifier {
	kept := make([]AllowlistRule, 0, len(rules))
	for _, rule := range rules {
		rule.Prefix = strings.TrimSpace(rule.Prefix)
		if rule.Prefix != "" {
			kept = append(kept, rule)
		}
	}
	// Longest prefix first so the most specific rule decides.
	slices.SortStableFunc(kept, func(a, b AllowlistRule) int {
		return cmp.Compare(len(b.Prefix), len(a.Prefix))
	})
	return &Classifier{rules: kept}
}

// MatchAllowlist returns the class of the longest allowlisted prefix covering
// path, or false when no rule covers it.
func (c *Classifier) MatchAllowlist(path string) (RouteClass, bool) {
	for _, rule := range c.rules {
		if HasPathPrefixOnBoundary(path, rule.Prefix) {
			return rule.Class, true
		}
	}
	return "", false
}

// ClassifyPath always yields a class: allowlisted prefixes win, anything else
// under /api is treated as public API, and the rest falls back to UI.
func (c *Classifier) ClassifyPath(path string) RouteClass {
	if class, ok := c.MatchAllowlist(path); ok {
		return class
	}
	if HasPathPrefixOnBoundary(path, "/api") {
		return RouteClassPublicAPI
	}
	return RouteClassUI
}

// HasPathPrefixOnBoundary matches prefix only on a path segment boundary:
// "/api" covers "/api" and "/api/x" but never "/apifoo".
func HasPathPrefixOnBoundary(path, prefix string) bool {
	switch {
	case prefix == "":
		return false
	case prefix == "/":
		return strings.HasPrefix(path, "/")
	}
	rest, found := strings.CutPrefix(path, prefix)
	if !found {
		return false
	}
	return rest == "" || rest[0] == '/' || strings.HasSuffix(prefix, "/")
}
