package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lodgecrew/lodgecrew/pkg/configuration"
	"github.com/lodgecrew/lodgecrew/pkg/routing"
)

// OpsGuard protects routes classified as ops (/health, /debug/metrics) in
// production. Requests pass when any configured credential matches: source
// CIDR, X-Ops-Token or bearer token, or basic auth. Everything else gets a
// 404 so the probe surface stays invisible to the outside.
func OpsGuard(conf *configuration.Configuration, entrypoint string) mux.MiddlewareFunc {
	if conf == nil {
		conf = configuration.Use()
	}
	rules, err := routing.LoadAllowlist("", entrypoint)
	if err != nil {
		rules = nil
	}
	g := &opsGuard{
		conf:       conf,
		classifier: routing.NewClassifier(rules),
		cidrs:      parseCIDRList(conf.OpsGuardCIDRs),
	}
	return g.middleware
}

type opsGuard struct {
	conf       *configuration.Configuration
	classifier *routing.Classifier
	cidrs      []netip.Prefix
}

func (g *opsGuard) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enforcing() || g.classifier.ClassifyPath(r.URL.Path) != routing.RouteClassOps {
			next.ServeHTTP(w, r)
			return
		}
		if g.sourceAllowed(r) || g.tokenMatches(r) || g.basicAuthMatches(r) {
			next.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func (g *opsGuard) enforcing() bool {
	return g.conf.GoAppEnvironment == configuration.Production && g.conf.OpsGuardEnabled
}

func (g *opsGuard) sourceAllowed(r *http.Request) bool {
	if len(g.cidrs) == 0 {
		return false
	}
	ip, ok := clientAddr(r, g.conf.RealIPHeader)
	if !ok {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range g.cidrs {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (g *opsGuard) tokenMatches(r *http.Request) bool {
	want := strings.TrimSpace(g.conf.OpsGuardToken)
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(opsToken(r)), []byte(want)) == 1
}

func (g *opsGuard) basicAuthMatches(r *http.Request) bool {
	if strings.TrimSpace(g.conf.OpsGuardBasicAuthUser) == "" && strings.TrimSpace(g.conf.OpsGuardBasicAuthPass) == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user), []byte(g.conf.OpsGuardBasicAuthUser)) == 1 &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(g.conf.OpsGuardBasicAuthPass)) == 1
}

// opsToken reads the credential from X-Ops-Token, falling back to an
// Authorization bearer token.
func opsToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get("X-Ops-Token")); t != "" {
		return t
	}
	scheme, value, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}

// parseCIDRList accepts prefixes separated by commas, semicolons, or
// whitespace. Unparseable entries are skipped rather than failing startup.
func parseCIDRList(raw string) []netip.Prefix {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	var out []netip.Prefix
	for _, field := range fields {
		if p, err := netip.ParsePrefix(field); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// clientAddr resolves the caller address, preferring the configured real-IP
// header. Proxy chains send comma-separated lists; the first entry is the
// original client.
func clientAddr(r *http.Request, header string) (string, bool) {
	if header != "" {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			if first, _, found := strings.Cut(v, ","); found {
				v = strings.TrimSpace(first)
			}
			return withoutPort(v)
		}
	}
	return withoutPort(r.RemoteAddr)
}

func withoutPort(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host, true
	}
	return s, true
}
