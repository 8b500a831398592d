package routing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RouteClass labels a routed path prefix with the exposure policy that
// applies to it. Error rendering, ops guarding and request logging all key
// off the class, never off the raw path.
type RouteClass string

const (
	RouteClassUI          RouteClass = "ui"
	RouteClassInternalAPI RouteClass = "internal_api"
	RouteClassPublicAPI   RouteClass = "public_api"
	RouteClassWebhook     RouteClass = "webhook"
	RouteClassOps         RouteClass = "ops"
	RouteClassTest        RouteClass = "test"
)

var knownRouteClasses = map[RouteClass]struct{}{
	RouteClassUI:          {},
	RouteClassInternalAPI: {},
	RouteClassPublicAPI:   {},
	RouteClassWebhook:     {},
	RouteClassOps:         {},
	RouteClassTest:        {},
}

// Valid reports whether the class is part of the routing taxonomy.
func (c RouteClass) Valid() bool {
	_, ok := knownRouteClasses[c]
	return ok
}

// IsAPI reports whether responses on this class must stay machine-readable.
func (c RouteClass) IsAPI() bool {
	return c == RouteClassInternalAPI || c == RouteClassPublicAPI || c == RouteClassWebhook
}

var ErrAllowlistNotFound = errors.New("routing allowlist not found")

// AllowlistRule binds a path prefix to its route class. Prefixes match on
// segment boundaries, so "/api/scheduling" covers "/api/scheduling/v2/shifts"
// but not "/api/schedulingfoo".
type AllowlistRule struct {
	Prefix string     `yaml:"prefix"`
	Class  RouteClass `yaml:"class"`
}

func (r AllowlistRule) validate() error {
	switch {
	case r.Prefix == "":
		return errors.New("empty prefix")
	case !strings.HasPrefix(r.Prefix, "/"):
		return fmt.Errorf("prefix must start with '/': %q", r.Prefix)
	case !r.Class.Valid():
		return fmt.Errorf("unknown class: %q", r.Class)
	}
	return nil
}

const allowlistRelativePath = "config/routing/allowlist.yaml"

type allowlistFile struct {
	Version     int                        `yaml:"version"`
	Entrypoints map[string][]AllowlistRule `yaml:"entrypoints"`
}

func (f *allowlistFile) rulesFor(entrypoint string) ([]AllowlistRule, error) {
	if entrypoint == "" {
		entrypoint = "server"
	}
	rules, ok := f.Entrypoints[entrypoint]
	if !ok {
		return nil, fmt.Errorf("entrypoint %q not found in allowlist", entrypoint)
	}
	return rules, nil
}

// DefaultAllowlistPath resolves the allowlist location: the
// ROUTING_ALLOWLIST_PATH override first, then config/routing/allowlist.yaml
// relative to the nearest go.mod root so tests can run from any package
// directory.
func DefaultAllowlistPath() string {
	if override := strings.TrimSpace(os.Getenv("ROUTING_ALLOWLIST_PATH")); override != "" {
		return override
	}
	if abs, ok := moduleRelativeFile(allowlistRelativePath); ok {
		return abs
	}
	return filepath.FromSlash(allowlistRelativePath)
}

// LoadAllowlist reads the allowlist for one entrypoint. An empty path means
// DefaultAllowlistPath, an empty entrypoint means "server". Every rule is
// validated so a bad allowlist fails at startup rather than at request time.
func LoadAllowlist(path, entrypoint string) ([]AllowlistRule, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultAllowlistPath()
	}
	file, err := readAllowlistFile(path)
	if err != nil {
		return nil, err
	}

	rules, err := file.rulesFor(strings.TrimSpace(entrypoint))
	if err != nil {
		return nil, err
	}
	for i := range rules {
		rules[i].Prefix = strings.TrimSpace(rules[i].Prefix)
		if err := rules[i].validate(); err != nil {
			return nil, fmt.Errorf("allowlist rule[%d]: %w", i, err)
		}
	}
	return rules, nil
}

func readAllowlistFile(path string) (*allowlistFile, error) {
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", ErrAllowlistNotFound, path)
	case err != nil:
		return nil, err
	}

	var file allowlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported allowlist version: %d", file.Version)
	}
	return &file, nil
}

// moduleRelativeFile joins rel onto the nearest enclosing go.mod directory
// and reports whether the resulting file exists.
func moduleRelativeFile(rel string) (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			abs := filepath.Join(dir, filepath.FromSlash(rel))
			if _, err := os.Stat(abs); err == nil {
				return abs, true
			}
			return "", false
		}
		if filepath.Dir(dir) == dir {
			return "", false
		}
	}
}
