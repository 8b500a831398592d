package routing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllowlist_LoadsAndHasCriticalRules(t *testing.T) {
	serverRules, err := LoadAllowlist("", "server")
	require.NoError(t, err)
	require.NotEmpty(t, serverRules)

	requireAllowlistRule(t, serverRules, "/api/scheduling", RouteClassPublicAPI)
	requireAllowlistRule(t, serverRules, "/health", RouteClassOps)
	requireAllowlistRule(t, serverRules, "/debug/metrics", RouteClassOps)
}

func TestClassifyPath_Defaults(t *testing.T) {
	c := NewClassifier(nil)

	require.Equal(t, RouteClassPublicAPI, c.ClassifyPath("/api/scheduling/v2/periods"))
	require.Equal(t, RouteClassPublicAPI, c.ClassifyPath("/api"))
	require.Equal(t, RouteClassUI, c.ClassifyPath("/apifoo"))
	require.Equal(t, RouteClassUI, c.ClassifyPath("/"))
}

func TestClassifyPath_AllowlistWins(t *testing.T) {
	c := NewClassifier([]AllowlistRule{
		{Prefix: "/api/scheduling", Class: RouteClassPublicAPI},
		{Prefix: "/debug/metrics", Class: RouteClassOps},
	})

	require.Equal(t, RouteClassOps, c.ClassifyPath("/debug/metrics"))
	require.Equal(t, RouteClassPublicAPI, c.ClassifyPath("/api/scheduling/v2/swaps"))
}

func requireAllowlistRule(t *testing.T, rules []AllowlistRule, prefix string, class RouteClass) {
	t.Helper()

	for _, rule := range rules {
		if rule.Prefix == prefix && rule.Class == class {
			return
		}
	}
	t.Fatalf("allowlist missing rule: %q -> %q", prefix, class)
}
