// Command cleanarchguard checks that module packages respect the
// domain -> application -> interfaces -> infrastructure layering. It wraps
// go-cleanarch with a repo config that understands shared modules and
// deliberate exceptions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/roblaszczak/go-cleanarch/cleanarch"
	"gopkg.in/yaml.v3"
)

func main() {
	configPath := flag.String("config", ".gocleanarch.yml", "path to the layering config")
	debug := flag.Bool("debug", false, "enable go-cleanarch debug logging")
	flag.Parse()

	if *debug {
		cleanarch.Log.SetOutput(os.Stderr)
	}

	violations, err := check(*configPath)
	if err != nil {
		log.Fatalf("cleanarchguard: %v", err)
	}
	if len(violations) > 0 {
		for _, v := range violations {
			log.Println(v)
		}
		log.Println("layering check failed.")
		os.Exit(1)
	}
	log.Println("layering check passed.")
}

// check runs the validator and returns the violations the config does not
// excuse.
func check(configPath string) ([]string, error) {
	cfg, err := readConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	validator := cleanarch.NewValidator(cfg.layerAliases())
	ok, errs, err := validator.Validate(root, cfg.IgnoreTests, cfg.IgnorePackages)
	if err != nil {
		return nil, fmt.Errorf("go-cleanarch: %w", err)
	}
	if ok {
		return nil, nil
	}

	tolerated := cfg.exceptions()
	var out []string
	for _, validationErr := range errs {
		if msg := validationErr.Error(); !tolerated.permits(msg) {
			out = append(out, msg)
		}
	}
	return out, nil
}

type config struct {
	Version           int      `yaml:"version"`
	Root              string   `yaml:"root"`
	IgnoreTests       bool     `yaml:"ignore_tests"`
	IgnorePackages    []string `yaml:"ignore_packages"`
	SharedModules     []string `yaml:"shared_modules"`
	AllowedViolations []string `yaml:"allow_violations"`
	Aliases           struct {
		Domain         []string `yaml:"domain"`
		Application    []string `yaml:"application"`
		Interfaces     []string `yaml:"interfaces"`
		Infrastructure []string `yaml:"infrastructure"`
	} `yaml:"aliases"`
}

func readConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Root) == "" {
		cfg.Root = "."
	}
	return cfg, nil
}

// layerAliases maps package names to layers, falling back to the common
// spellings when the config leaves a layer out.
func (c *config) layerAliases() map[string]cleanarch.Layer {
	groups := []struct {
		configured []string
		fallback   []string
		layer      cleanarch.Layer
	}{
		{c.Aliases.Domain, []string{"domain", "entities"}, cleanarch.LayerDomain},
		{c.Aliases.Application, []string{"app", "application", "services", "usecases"}, cleanarch.LayerApplication},
		{c.Aliases.Interfaces, []string{"interfaces", "presentation", "handlers", "adapters"}, cleanarch.LayerInterfaces},
		{c.Aliases.Infrastructure, []string{"infrastructure", "infra"}, cleanarch.LayerInfrastructure},
	}

	out := make(map[string]cleanarch.Layer)
	for _, g := range groups {
		names := g.configured
		if len(names) == 0 {
			names = g.fallback
		}
		for _, name := range names {
			if name != "" {
				out[name] = g.layer
			}
		}
	}
	return out
}

// exceptions holds the violations the config tolerates: imports touching a
// shared module and messages matching an allowlisted substring.
type exceptions struct {
	sharedModules map[string]bool
	substrings    []string
}

var crossModuleRe = regexp.MustCompile(`between ([\w-]+) and ([\w-]+) modules`)

func (c *config) exceptions() *exceptions {
	e := &exceptions{sharedModules: make(map[string]bool)}
	for _, module := range c.SharedModules {
		if module = strings.TrimSpace(module); module != "" {
			e.sharedModules[module] = true
		}
	}
	for _, pattern := range c.AllowedViolations {
		if pattern != "" {
			e.substrings = append(e.substrings, pattern)
		}
	}
	return e
}

func (e *exceptions) permits(msg string) bool {
	if m := crossModuleRe.FindStringSubmatch(msg); len(m) == 3 {
		if e.sharedModules[m[1]] || e.sharedModules[m[2]] {
			return true
		}
	}
	for _, sub := range e.substrings {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
